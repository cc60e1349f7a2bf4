// Package history records the outcome of every sprite sheet build.
//
// Each successful write of a sheet produces a [Record] carrying the layout
// fingerprint and the source pixel digest. Comparing a new build with the
// latest record tells whether anything changed, and the list of records
// answers "when did this sheet last change, and what did it contain".
//
// Two backends implement [Store]:
//   - [FileStore]: JSON files under a local directory, for the CLI
//   - [MongoStore]: a MongoDB collection, for shared build servers
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record describes one written sprite sheet.
type Record struct {
	ID           string    `json:"id" bson:"_id"`
	RunID        string    `json:"run_id" bson:"run_id"`
	Sheet        string    `json:"sheet" bson:"sheet"`
	Fingerprint  string    `json:"fingerprint" bson:"fingerprint"`
	SourceHash   string    `json:"source_hash" bson:"source_hash"`
	Strategy     string    `json:"strategy" bson:"strategy"`
	Images       int       `json:"images" bson:"images"`
	CanvasWidth  int       `json:"canvas_width" bson:"canvas_width"`
	CanvasHeight int       `json:"canvas_height" bson:"canvas_height"`
	Outputs      []string  `json:"outputs" bson:"outputs"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// NewRecord returns a record with a fresh id and the current time.
func NewRecord(runID, sheet string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Sheet:     sheet,
		CreatedAt: time.Now().UTC(),
	}
}

// SameContent reports whether r and o describe identical sheets: the same
// layout and the same source pixels.
func (r *Record) SameContent(o *Record) bool {
	if r == nil || o == nil {
		return false
	}
	return r.Fingerprint == o.Fingerprint && r.SourceHash == o.SourceHash
}

// Store persists build records.
type Store interface {
	// Put stores a record.
	Put(ctx context.Context, r *Record) error

	// Latest returns the most recent record for sheet.
	// Returns nil, nil if the sheet has no history.
	Latest(ctx context.Context, sheet string) (*Record, error)

	// List returns up to limit records, newest first. An empty sheet lists
	// every sheet; limit <= 0 means no limit.
	List(ctx context.Context, sheet string, limit int) ([]*Record, error)

	// Close releases resources held by the store.
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Put(context.Context, *Record) error                   { return nil }
func (NopStore) Latest(context.Context, string) (*Record, error)      { return nil, nil }
func (NopStore) List(context.Context, string, int) ([]*Record, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }

var _ Store = NopStore{}
