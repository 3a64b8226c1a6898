package resolve

import (
	"context"
	"fmt"
	"sort"
)

// Option is the type-erased view of a record: what a question offers and
// what a click sends back.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Found struct {
	Outcome Outcome
	Match   Option
	Options []Option
}

// Lookup is the non-generic face of a Family, used where the engine only
// needs ids and display names.
type Lookup interface {
	Noun() string
	TopOptions(ctx context.Context, n int) ([]Option, error)
	Label(ctx context.Context, id string) (string, bool, error)
	Find(ctx context.Context, texts ...string) (Found, error)
	Suggest(ctx context.Context, text string, n int) ([]Option, error)
}

// Family binds the generic matcher to one record collection.
type Family[T any] struct {
	noun string
	load func(ctx context.Context) ([]T, error)
	id   func(T) string
	name func(T) string
	less func(a, b T) bool
}

func NewFamily[T any](noun string, load func(context.Context) ([]T, error), id, name func(T) string, less func(a, b T) bool) Family[T] {
	if less == nil {
		less = func(a, b T) bool { return Normalize(name(a)) < Normalize(name(b)) }
	}
	return Family[T]{noun: noun, load: load, id: id, name: name, less: less}
}

func (f Family[T]) Noun() string { return f.noun }

func (f Family[T]) All(ctx context.Context) ([]T, error) {
	items, err := f.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", f.noun, err)
	}
	return items, nil
}

// Top returns the first n records in the family's order (recency or name).
func (f Family[T]) Top(ctx context.Context, n int) ([]T, error) {
	items, err := f.All(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]T(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return f.less(sorted[i], sorted[j]) })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted, nil
}

func (f Family[T]) ByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if id == "" {
		return zero, false, nil
	}
	items, err := f.All(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, it := range items {
		if f.id(it) == id {
			return it, true, nil
		}
	}
	return zero, false, nil
}

func (f Family[T]) Fuzzy(ctx context.Context, texts ...string) (Result[T], error) {
	items, err := f.All(ctx)
	if err != nil {
		return Result[T]{}, err
	}
	return First(items, f.name, texts...), nil
}

func (f Family[T]) Option(item T) Option {
	return Option{ID: f.id(item), Label: f.name(item)}
}

func (f Family[T]) options(items []T) []Option {
	out := make([]Option, 0, len(items))
	for _, it := range items {
		out = append(out, f.Option(it))
	}
	return out
}

func (f Family[T]) TopOptions(ctx context.Context, n int) ([]Option, error) {
	items, err := f.Top(ctx, n)
	if err != nil {
		return nil, err
	}
	return f.options(items), nil
}

func (f Family[T]) Label(ctx context.Context, id string) (string, bool, error) {
	item, ok, err := f.ByID(ctx, id)
	if err != nil || !ok {
		return "", ok, err
	}
	return f.name(item), true, nil
}

func (f Family[T]) Find(ctx context.Context, texts ...string) (Found, error) {
	res, err := f.Fuzzy(ctx, texts...)
	if err != nil {
		return Found{}, err
	}
	found := Found{Outcome: res.Outcome, Options: f.options(res.Options)}
	if res.Outcome == Unique {
		found.Match = f.Option(res.Match)
	}
	return found, nil
}

func (f Family[T]) Suggest(ctx context.Context, text string, n int) ([]Option, error) {
	items, err := f.All(ctx)
	if err != nil {
		return nil, err
	}
	return f.options(Suggest(items, f.name, text, n)), nil
}

// Filter narrows the family, e.g. people at one company.
func (f Family[T]) Filter(keep func(T) bool) Family[T] {
	load := f.load
	f.load = func(ctx context.Context) ([]T, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		out := items[:0:0]
		for _, it := range items {
			if keep(it) {
				out = append(out, it)
			}
		}
		return out, nil
	}
	return f
}
