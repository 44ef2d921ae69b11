// Package realtime delivers change notifications for a table so the owner
// dashboard can refetch its appointment list.
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// Event is a single row change. Record is passed through untouched; callers
// refetch rather than patch local state.
type Event struct {
	Table      string          `json:"table"`
	Type       string          `json:"type"`
	Record     json.RawMessage `json:"record,omitempty"`
	ReceivedAt time.Time       `json:"-"`
}

// Subscriber opens a change feed. The returned channel is closed when ctx
// ends or the underlying transport drops.
type Subscriber interface {
	Subscribe(ctx context.Context, table string) (<-chan Event, error)
}

const eventBuffer = 16
