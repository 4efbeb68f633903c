package orm

import (
	"context"
	"fmt"

	"github.com/marshallshelly/babyorm/pkg/builder"
	"github.com/marshallshelly/babyorm/pkg/ident"
	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/schema"
)

// UpdateOption configures Update and UpdateWhere.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	force bool
}

// Force lets id, created_at, updated_at and deleted_at be written from the
// caller's data even though they are not fillable.
func Force() UpdateOption {
	return func(c *updateConfig) {
		c.force = true
	}
}

// Create validates the fillable part of data, inserts it and returns the
// stored row. Non-fillable keys are dropped silently.
func (s *Session) Create(ctx context.Context, data schema.Record) (schema.Record, error) {
	filled := s.def.Fill(data)
	if err := s.validate(ctx, s.orm.exec, filled, nil); err != nil {
		return nil, err
	}

	var row schema.Record
	err := s.inTx(ctx, func(exec runtime.Executor) error {
		ins := builder.NewInsert(exec, s.def.Table)
		for _, k := range sortedKeys(filled) {
			if !autoFillable[k] {
				ins.Set(k, filled[k])
			}
		}
		if s.def.PrimaryKey == schema.PrimaryKeyGenerated {
			ins.Set("id", s.newID())
		}
		if s.def.Timestamps {
			ins.Set("created_at", s.orm.now())
		}

		res, err := ins.Returning("id").ExecReturning(ctx)
		if err != nil {
			return err
		}
		created := res.First()
		if created == nil {
			return fmt.Errorf("insert into %s returned no id", s.def.Table)
		}
		row, err = s.fetch(ctx, exec, created["id"])
		return err
	})
	if err != nil {
		return nil, err
	}

	s.def.Complete(row)
	s.orm.logger.DebugContext(ctx, "record created", "model", s.def.Name, "id", row["id"])
	return s.def.Project(row), nil
}

// Update loads the row, merges the fillable part of data over it,
// validates the result and writes the changed columns.
func (s *Session) Update(ctx context.Context, id any, data schema.Record, opts ...UpdateOption) (schema.Record, error) {
	cfg := newUpdateConfig(opts)

	current, err := s.fetch(ctx, s.orm.exec, id)
	if err != nil {
		return nil, err
	}
	s.def.Complete(current)
	filled := s.def.Fill(data)

	// Hidden fields are never loaded, so their rules apply only when written.
	err = s.validate(ctx, s.orm.exec, s.def.Fields, func(field string) bool {
		_, written := filled[field]
		return written || !s.def.IsHidden(field)
	})
	if err != nil {
		return nil, err
	}

	uq, n := s.updateQuery(filled, data, cfg)
	if n == 0 {
		return s.def.Project(current), nil
	}

	res, err := uq.Where(builder.Eq("id", id)).ExecReturning(ctx)
	if err != nil {
		return nil, err
	}
	row := res.First()
	if row == nil {
		return nil, fmt.Errorf("%s %v: %w", s.def.Name, id, runtime.ErrNotFound)
	}
	s.def.Complete(row)
	return s.def.Project(row), nil
}

// UpdateWhere writes the fillable part of data to every row matching
// where and returns the updated rows. Only the written fields are
// validated since no row is loaded first.
func (s *Session) UpdateWhere(ctx context.Context, where Where, data schema.Record, opts ...UpdateOption) ([]schema.Record, error) {
	if where.Empty() {
		return nil, runtime.NewQueryBuilderError("update of %s requires a where clause", s.def.Name)
	}
	cfg := newUpdateConfig(opts)

	filled := s.def.Fill(data)
	err := s.validate(ctx, s.orm.exec, filled, func(field string) bool {
		_, written := filled[field]
		return written
	})
	if err != nil {
		return nil, err
	}

	uq, n := s.updateQuery(filled, data, cfg)
	if n == 0 {
		return []schema.Record{}, nil
	}
	res, err := uq.Where(where.conds...).ExecReturning(ctx)
	if err != nil {
		return nil, err
	}
	return s.projectAll(res), nil
}

// Upsert inserts data or, when conflictField collides, updates the other
// inserted columns. A collision with nothing left to update returns an
// empty record.
func (s *Session) Upsert(ctx context.Context, data schema.Record, conflictField string) (schema.Record, error) {
	if conflictField == "" {
		return nil, runtime.NewQueryBuilderError("upsert of %s requires a conflict field", s.def.Name)
	}

	filled := s.def.Fill(data)
	if err := s.validate(ctx, s.orm.exec, filled, nil); err != nil {
		return nil, err
	}

	ins := builder.NewInsert(s.orm.exec, s.def.Table)
	var updates []string
	for _, k := range sortedKeys(filled) {
		if autoFillable[k] {
			continue
		}
		ins.Set(k, filled[k])
		updates = append(updates, k)
	}
	if v, ok := data[conflictField]; ok {
		if _, set := filled[conflictField]; !set || autoFillable[conflictField] {
			ins.Set(conflictField, v)
		}
	}
	if s.def.PrimaryKey == schema.PrimaryKeyGenerated && conflictField != "id" {
		ins.Set("id", s.newID())
	}
	if s.def.Timestamps {
		ins.Set("created_at", s.orm.now())
	}

	res, err := ins.OnConflictDoUpdate([]string{conflictField}, updates...).
		Returning("*").
		ExecReturning(ctx)
	if err != nil {
		return nil, err
	}
	row := res.First()
	if row == nil {
		return schema.Record{}, nil
	}
	s.def.Complete(row)
	return s.def.Project(row), nil
}

// Delete removes the row with the given id and returns the number of rows
// affected. Soft-delete models get deleted_at stamped instead.
func (s *Session) Delete(ctx context.Context, id any) (int64, error) {
	if s.def.SoftDelete {
		if _, err := s.Update(ctx, id, schema.Record{"deleted_at": s.orm.now()}, Force()); err != nil {
			return 0, err
		}
		s.orm.logger.DebugContext(ctx, "record soft deleted", "model", s.def.Name, "id", id)
		return 1, nil
	}

	n, err := builder.NewDelete(s.orm.exec, s.def.Table).Where(builder.Eq("id", id)).Exec(ctx)
	if err != nil {
		return 0, err
	}
	s.orm.logger.DebugContext(ctx, "record deleted", "model", s.def.Name, "id", id, "rows", n)
	return n, nil
}

// updateQuery sets the fillable values of data in key order, then the
// forced auto columns and updated_at. It returns the number of columns set.
func (s *Session) updateQuery(filled, data schema.Record, cfg updateConfig) (*builder.UpdateQuery, int) {
	uq := builder.NewUpdate(s.orm.exec, s.def.Table)
	n := 0
	for _, k := range sortedKeys(data) {
		if autoFillable[k] {
			if cfg.force {
				uq.Set(k, data[k])
				n++
			}
			continue
		}
		if v, ok := filled[k]; ok {
			uq.Set(k, v)
			n++
		}
	}

	_, forcedStamp := data["updated_at"]
	if s.def.Timestamps && !(cfg.force && forcedStamp) {
		uq.Set("updated_at", s.orm.now())
		n++
	}
	return uq, n
}

func (s *Session) inTx(ctx context.Context, fn func(runtime.Executor) error) error {
	if tx, ok := s.orm.exec.(runtime.Transactor); ok {
		return tx.InTx(ctx, fn)
	}
	return fn(s.orm.exec)
}

// newID draws a key in the model's id format, falling back to the ORM
// generator when the model names none.
func (s *Session) newID() string {
	if gen, ok := ident.Lookup(s.def.IDFormat); ok {
		return gen()
	}
	return s.orm.newID()
}

func newUpdateConfig(opts []UpdateOption) updateConfig {
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
