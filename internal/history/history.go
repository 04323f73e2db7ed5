// Package history keeps past fan-out reports so front ends can list and
// reopen them.
package history

import (
	"context"
	"errors"
	"time"

	"gamedev-ai/internal/fanout"
)

// ErrNotFound is returned by Get for an unknown report ID.
var ErrNotFound = errors.New("report not found")

// Entry is the list view of a stored report.
type Entry struct {
	ID        string         `json:"id"`
	Mode      fanout.Mode    `json:"mode"`
	Prompt    string         `json:"prompt,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Summary   fanout.Summary `json:"summary"`
}

// Store is the interface for persistent report storage.
type Store interface {
	Save(ctx context.Context, report *fanout.Report) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (*fanout.Report, error)
	Close() error
}
