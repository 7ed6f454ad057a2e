package seeder

import (
	"time"

	"github.com/Rana718/quarry/internal/types"
	"go.uber.org/multierr"
)

type DuplicateStrategy string

const (
	OnDuplicateSkip   DuplicateStrategy = "skip"
	OnDuplicateUpdate DuplicateStrategy = "update"
	OnDuplicateError  DuplicateStrategy = "error"
)

const (
	DefaultBatchSize = 100
	DefaultPause     = 10 * time.Millisecond
)

type InsertOptions struct {
	UniqueFields []string
	OnDuplicate  DuplicateStrategy
	BatchSize    int
	StopOnError  bool

	PrimaryKey string // defaults to "id"
	Timestamps bool   // maintain created_at / updated_at
	Pause      time.Duration
}

func (o InsertOptions) withDefaults() InsertOptions {
	if o.OnDuplicate == "" {
		o.OnDuplicate = OnDuplicateSkip
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.PrimaryKey == "" {
		o.PrimaryKey = "id"
	}
	if o.Pause < 0 {
		o.Pause = 0
	}
	return o
}

type OutcomeKind string

const (
	Inserted OutcomeKind = "inserted"
	Skipped  OutcomeKind = "skipped"
	Updated  OutcomeKind = "updated"
	Errored  OutcomeKind = "errored"
)

// Outcome is the fate of one input record.
type Outcome struct {
	Kind   OutcomeKind
	Index  int
	Record types.Record
	ID     any
	Err    error
}

type InsertResult struct {
	Inserted []Outcome
	Skipped  []Outcome
	Updated  []Outcome
	Errors   []Outcome
}

func (r *InsertResult) add(o Outcome) {
	switch o.Kind {
	case Inserted:
		r.Inserted = append(r.Inserted, o)
	case Skipped:
		r.Skipped = append(r.Skipped, o)
	case Updated:
		r.Updated = append(r.Updated, o)
	default:
		r.Errors = append(r.Errors, o)
	}
}

// Total counts every outcome recorded so far.
func (r *InsertResult) Total() int {
	return len(r.Inserted) + len(r.Skipped) + len(r.Updated) + len(r.Errors)
}

// Err combines the per-record errors, nil when there are none.
func (r *InsertResult) Err() error {
	var err error
	for _, o := range r.Errors {
		err = multierr.Append(err, o.Err)
	}
	return err
}

// Options control a Runner pass.
type Options struct {
	Only     []string // seeder names to run, with their dependencies
	Truncate bool     // clear the tables of the requested seeders first
	Force    bool     // continue past failing seeders
}
