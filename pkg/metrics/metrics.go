package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbusbridge_polls_total",
		Help: "The total number of hardware reads issued by workers",
	}, []string{"component", "status"})

	WriteCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbusbridge_writes_total",
		Help: "The total number of hardware writes issued by workers",
	}, []string{"component", "status"})

	CommandFaultCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbusbridge_command_faults_total",
		Help: "The total number of set and get commands dropped",
	}, []string{"component", "reason"})

	PublishCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbusbridge_messages_total",
		Help: "The total number of messages handed to the message bus",
	}, []string{"kind", "status"})

	ReconnectCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbusbridge_unit_reconnects_total",
		Help: "The total number of hardware unit reconnects",
	}, []string{"unit"})

	CycleOvershoot = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modbusbridge_cycle_overshoot_seconds",
		Help: "Poll time carried over into the next cycle",
	}, []string{"component"})

	WorkersAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modbusbridge_workers_alive",
		Help: "The number of running workers per unit",
	}, []string{"unit"})

	UnitOnline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modbusbridge_unit_online",
		Help: "Whether a hardware unit is connected",
	}, []string{"unit"})
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusLost    = "lost"
)

const (
	KindPublish = "publish"
	KindReply   = "reply"
)

const (
	ReasonUnknownTarget = "unknown_target"
	ReasonBadValue      = "bad_value"
	ReasonReadOnly      = "read_only"
	ReasonQueueFull     = "queue_full"
)

func IncPoll(component, status string) {
	PollCount.WithLabelValues(component, status).Inc()
}

func IncWrite(component, status string) {
	WriteCount.WithLabelValues(component, status).Inc()
}

func IncCommandFault(component, reason string) {
	CommandFaultCount.WithLabelValues(component, reason).Inc()
}

func IncMessage(kind, status string) {
	PublishCount.WithLabelValues(kind, status).Inc()
}

func IncReconnect(unit string) {
	ReconnectCount.WithLabelValues(unit).Inc()
}

func SetOvershoot(component string, seconds float64) {
	CycleOvershoot.WithLabelValues(component).Set(seconds)
}

func AddWorkersAlive(unit string, delta int) {
	WorkersAlive.WithLabelValues(unit).Add(float64(delta))
}

func SetUnitOnline(unit string, online bool) {
	v := 0.0
	if online {
		v = 1
	}
	UnitOnline.WithLabelValues(unit).Set(v)
}
