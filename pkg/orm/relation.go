package orm

import (
	"context"

	"github.com/marshallshelly/babyorm/pkg/builder"
	"github.com/marshallshelly/babyorm/pkg/runtime"
	"github.com/marshallshelly/babyorm/pkg/schema"
)

// Load returns the first row of the related model whose distant field
// equals the local field of this session. No match is an empty record.
func (s *Session) Load(ctx context.Context, relation string) (schema.Record, error) {
	target, q, err := s.relationQuery(relation)
	if err != nil {
		return nil, err
	}
	res, err := q.Limit(1).Execute(ctx)
	if err != nil {
		return nil, err
	}
	row := res.First()
	if row == nil {
		return schema.Record{}, nil
	}
	return target.Project(row), nil
}

// LoadMany returns every related row.
func (s *Session) LoadMany(ctx context.Context, relation string) ([]schema.Record, error) {
	target, q, err := s.relationQuery(relation)
	if err != nil {
		return nil, err
	}
	res, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Record, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, target.Project(row))
	}
	return out, nil
}

func (s *Session) relationQuery(name string) (*schema.Definition, *builder.SelectQuery, error) {
	rel, ok := s.def.Relations[name]
	if !ok {
		return nil, nil, &runtime.RelationNotFoundError{Model: s.def.Name, Relation: name}
	}
	target, err := s.orm.registry.Get(rel.Model)
	if err != nil {
		return nil, nil, err
	}
	q := builder.NewSelect(s.orm.exec).
		From(target.Table).
		Where(rel.DistantField, s.def.GetField(rel.LocalField))
	return target, q, nil
}
