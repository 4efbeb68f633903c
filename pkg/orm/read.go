package orm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/marshallshelly/babyorm/pkg/builder"
	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/schema"
)

// FindByID returns the row whose id equals id. Soft-deleted rows are
// returned like any other.
func (s *Session) FindByID(ctx context.Context, id any) (schema.Record, error) {
	row, err := s.fetch(ctx, s.orm.exec, id)
	if err != nil {
		return nil, err
	}
	s.def.Complete(row)
	return s.def.Project(row), nil
}

// FindOne returns the first row matching where in the given order.
func (s *Session) FindOne(ctx context.Context, where Where, order ...Order) (schema.Record, error) {
	q := applySelect(builder.NewSelect(s.orm.exec).From(s.def.Table), where, order).Limit(1)
	res, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	row := res.First()
	if row == nil {
		return nil, fmt.Errorf("%s: %w", s.def.Name, runtime.ErrNotFound)
	}
	s.def.Complete(row)
	return s.def.Project(row), nil
}

// FindMany returns every row matching where. No match is an empty slice.
func (s *Session) FindMany(ctx context.Context, where Where, order ...Order) ([]schema.Record, error) {
	res, err := applySelect(builder.NewSelect(s.orm.exec).From(s.def.Table), where, order).Execute(ctx)
	if err != nil {
		return nil, err
	}
	return s.projectAll(res), nil
}

// FindManyPaginate returns one page of the rows matching where together
// with the total count. The count and the page run concurrently.
func (s *Session) FindManyPaginate(ctx context.Context, where Where, page, perPage int, order ...Order) (*Page, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page = max(page, 1)

	var (
		total int64
		rows  *runtime.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := applySelect(builder.NewSelect(s.orm.exec).From(s.def.Table), where, nil).Count(gctx)
		total = n
		return err
	})
	g.Go(func() error {
		q := applySelect(builder.NewSelect(s.orm.exec).From(s.def.Table), where, order).
			Limit(perPage, (page-1)*perPage)
		res, err := q.Execute(gctx)
		rows = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Page{
		Total:       int(total),
		PageCount:   pageCount(int(total), perPage),
		CurrentPage: page,
		PerPage:     perPage,
		Data:        s.projectAll(rows),
	}, nil
}

func (s *Session) fetch(ctx context.Context, exec runtime.Executor, id any) (schema.Record, error) {
	res, err := builder.NewSelect(exec).From(s.def.Table).Where("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return nil, err
	}
	row := res.First()
	if row == nil {
		return nil, fmt.Errorf("%s %v: %w", s.def.Name, id, runtime.ErrNotFound)
	}
	return row, nil
}

func (s *Session) projectAll(res *runtime.Result) []schema.Record {
	out := make([]schema.Record, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, s.def.Project(row))
	}
	return out
}
