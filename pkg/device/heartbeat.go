package device

import (
	"context"
	"k8s.io/apimachinery/pkg/util/wait"
	"strconv"
	"time"
)

// heartbeat publishes the liveness of a component's workers every period.
func (u *Unit) heartbeat(ctx context.Context, c *Component) {
	topic := u.topics.Heartbeat(c.Name)
	wait.UntilWithContext(ctx, func(ctx context.Context) {
		u.out.Publish(topic, heartbeatPayload(c.Alive(), len(c.Workers), time.Now()))
	}, c.Heartbeat)
}

func heartbeatPayload(alive, workers int, now time.Time) []byte {
	buf := make([]byte, 0, 80)
	buf = append(buf, `{"alive":`...)
	buf = strconv.AppendInt(buf, int64(alive), 10)
	buf = append(buf, `,"workers":`...)
	buf = strconv.AppendInt(buf, int64(workers), 10)
	buf = append(buf, `,"Timestamp":"`...)
	buf = now.UTC().AppendFormat(buf, timestampLayout)
	return append(buf, `"}`...)
}
