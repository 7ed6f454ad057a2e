package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/query"
	"github.com/Rana718/quarry/internal/types"
	"go.uber.org/zap"
)

// uniqueClassifier is implemented by store adapters.
type uniqueClassifier interface {
	IsUniqueViolation(err error) bool
}

// Operations performs duplicate-aware writes for seeders.
type Operations struct {
	exec   common.Executor
	unique uniqueClassifier
	logger *zap.SugaredLogger
}

type OperationsOption func(*Operations)

func WithOperationsLogger(logger *zap.SugaredLogger) OperationsOption {
	return func(o *Operations) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewOperations(exec common.Executor, opts ...OperationsOption) *Operations {
	o := &Operations{exec: exec, logger: zap.NewNop().Sugar()}
	if c, ok := exec.(uniqueClassifier); ok {
		o.unique = c
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Operations) Executor() common.Executor { return o.exec }

// SafeInsert writes records in sequential batches, applying the duplicate policy.
func (o *Operations) SafeInsert(ctx context.Context, table string, records []map[string]any, opts InsertOptions) (*InsertResult, error) {
	if err := common.ValidateIdentifiers(table); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := common.ValidateIdentifiers(append([]string{opts.PrimaryKey}, opts.UniqueFields...)...); err != nil {
		return nil, err
	}

	result := &InsertResult{}
	for start := 0; start < len(records); start += opts.BatchSize {
		if start > 0 && opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(opts.Pause):
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := min(start+opts.BatchSize, len(records))
		for i := start; i < end; i++ {
			outcome := o.insertOne(ctx, table, i, types.Record(records[i]).Clone(), opts)
			if outcome.Kind == Errored && opts.StopOnError {
				return result, outcome.Err
			}
			if outcome.Kind == Errored {
				o.logger.Warnw("seed record failed", "table", table, "index", i, "error", outcome.Err)
			}
			result.add(outcome)
		}
		o.logger.Debugw("seed batch done", "table", table, "from", start, "to", end)
	}

	o.logger.Infow("seeded table", "table", table,
		"inserted", len(result.Inserted), "skipped", len(result.Skipped),
		"updated", len(result.Updated), "errors", len(result.Errors))
	return result, nil
}

func (o *Operations) insertOne(ctx context.Context, table string, index int, rec types.Record, opts InsertOptions) Outcome {
	out := Outcome{Index: index, Record: rec}
	fail := func(err error) Outcome {
		out.Kind, out.Err = Errored, err
		return out
	}

	existing, fields, values, err := o.findExisting(ctx, table, rec, opts)
	if err != nil {
		return fail(err)
	}

	if existing == nil {
		now := time.Now().UTC()
		if opts.Timestamps {
			for _, col := range []string{types.CreatedAt, types.UpdatedAt} {
				if _, ok := rec[col]; !ok {
					rec[col] = now
				}
			}
		}
		id, err := query.New(o.exec, table, query.WithMeta(query.Meta{PrimaryKey: opts.PrimaryKey})).Insert(ctx, rec)
		if err == nil {
			out.Kind, out.ID = Inserted, id
			return out
		}
		if o.unique == nil || !o.unique.IsUniqueViolation(err) {
			return fail(err)
		}
		// A row appeared since the lookup, or a unique column is not in
		// UniqueFields.
		dup := &errs.DuplicateEntryError{Table: table, Fields: fields, Values: values, Err: err}
		if opts.OnDuplicate == OnDuplicateUpdate {
			existing, _, _, err = o.findExisting(ctx, table, rec, opts)
			if err != nil {
				return fail(err)
			}
			if existing == nil {
				return fail(dup)
			}
		}
		return o.resolve(ctx, table, out, existing, rec, opts, dup)
	}

	return o.resolve(ctx, table, out, existing, rec, opts,
		&errs.DuplicateEntryError{Table: table, Fields: fields, Values: values})
}

// existing is nil when only the store saw the duplicate.
func (o *Operations) resolve(ctx context.Context, table string, out Outcome, existing, rec types.Record, opts InsertOptions, dup *errs.DuplicateEntryError) Outcome {
	if existing != nil {
		out.ID = existing[opts.PrimaryKey]
	}
	switch opts.OnDuplicate {
	case OnDuplicateSkip:
		out.Kind = Skipped
	case OnDuplicateUpdate:
		if err := o.update(ctx, table, out.ID, rec, opts); err != nil {
			out.Kind, out.Err = Errored, err
			return out
		}
		out.Kind = Updated
	case OnDuplicateError:
		out.Kind, out.Err = Errored, dup
	default:
		out.Kind, out.Err = Errored, fmt.Errorf("unknown duplicate strategy %q", opts.OnDuplicate)
	}
	return out
}

// findExisting ORs together the unique fields rec carries.
func (o *Operations) findExisting(ctx context.Context, table string, rec types.Record, opts InsertOptions) (types.Record, []string, []any, error) {
	var fields []string
	var values []any
	for _, f := range opts.UniqueFields {
		if v, ok := rec[f]; ok && v != nil {
			fields = append(fields, f)
			values = append(values, v)
		}
	}
	if len(fields) == 0 {
		return nil, nil, nil, nil
	}

	q := query.New(o.exec, table).Where(fields[0], values[0])
	for i := 1; i < len(fields); i++ {
		q = q.OrWhere(fields[i], values[i])
	}
	row, err := q.First(ctx)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fields, values, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return row, fields, values, nil
}

// update overwrites the non-key fields of the matched row, leaving created_at.
func (o *Operations) update(ctx context.Context, table string, id any, rec types.Record, opts InsertOptions) error {
	values := rec.Clone()
	delete(values, opts.PrimaryKey)
	delete(values, types.CreatedAt)
	for _, f := range opts.UniqueFields {
		delete(values, f)
	}
	if opts.Timestamps {
		values[types.UpdatedAt] = time.Now().UTC()
	}
	if len(values) == 0 {
		return nil
	}
	_, err := query.New(o.exec, table).Where(opts.PrimaryKey, id).Update(ctx, values)
	return err
}
