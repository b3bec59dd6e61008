package broker

import (
	"strings"
)

type RequestKind uint8

const (
	RequestSet RequestKind = iota
	RequestGet
)

const (
	componentsLevel = "components"
	setLevel        = "set"
	getLevel        = "get"
	statusLevel     = "status"
	heartbeatLevel  = "heartbeat"
)

// Request is an inbound topic split into its parts. ID is empty when the
// request addresses the whole component.
type Request struct {
	Kind      RequestKind
	Component string
	ID        string
}

// Topics builds and parses topic names under one base.
type Topics struct {
	Base string
}

func (t Topics) join(levels ...string) string {
	if len(t.Base) == 0 {
		return strings.Join(levels, "/")
	}
	return t.Base + "/" + strings.Join(levels, "/")
}

func (t Topics) Publish(component string) string {
	return t.join(componentsLevel, component)
}

func (t Topics) Status(unit string) string {
	return t.join(statusLevel, unit)
}

func (t Topics) Heartbeat(component string) string {
	return t.join(heartbeatLevel, component)
}

func (t Topics) Set(component, id string) string {
	if len(id) == 0 {
		return t.join(setLevel, componentsLevel, component)
	}
	return t.join(setLevel, componentsLevel, component, id)
}

func (t Topics) Get(component, id string) string {
	if len(id) == 0 {
		return t.join(getLevel, componentsLevel, component)
	}
	return t.join(getLevel, componentsLevel, component, id)
}

// Subscriptions are the filters the bridge listens on.
func (t Topics) Subscriptions() []string {
	return []string{
		t.join(setLevel, componentsLevel, "#"),
		t.join(getLevel, componentsLevel, "#"),
	}
}

// Parse splits a set or get topic. Ids may contain further levels.
func (t Topics) Parse(topic string) (Request, bool) {
	if len(t.Base) > 0 {
		if !strings.HasPrefix(topic, t.Base+"/") {
			return Request{}, false
		}
		topic = topic[len(t.Base)+1:]
	}
	parts := strings.SplitN(topic, "/", 4)
	if len(parts) < 3 || parts[1] != componentsLevel || len(parts[2]) == 0 {
		return Request{}, false
	}
	req := Request{Component: parts[2]}
	switch parts[0] {
	case setLevel:
		req.Kind = RequestSet
	case getLevel:
		req.Kind = RequestGet
	default:
		return Request{}, false
	}
	if len(parts) == 4 {
		req.ID = parts[3]
	}
	return req, true
}
