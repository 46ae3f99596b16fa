package event

import "time"

// Lifecycle event types
const (
	TypeCreated    = "created"
	TypeDispatched = "dispatched"
	TypeTerminated = "terminated"
	TypeReaped     = "reaped"
)

type Context struct {
	PID       int    `json:"pid"`
	ParentPID int    `json:"parentPid"`
	Name      string `json:"name"`
	EventType string `json:"eventType"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
