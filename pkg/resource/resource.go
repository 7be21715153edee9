// Package resource shapes models into the JSON an endpoint returns, so a
// handler never leaks a column it did not mean to.
//
//	func OrderSummary(o models.Order) resource.Map {
//	    return resource.Map{"id": o.ID, "total_amount": o.TotalAmount}
//	}
//
//	c.Success(resource.Collection(orders, OrderSummary))
package resource

// Map is what a transformer produces.
type Map = map[string]any

// Transformer turns one model into its public shape.
type Transformer[T any] func(T) Map

// Item applies t to v.
func Item[T any](v T, t Transformer[T]) Map {
	return t(v)
}

// Collection applies t to every item. It never returns nil, so an empty
// list encodes as [].
func Collection[T any](items []T, t Transformer[T]) []Map {
	out := make([]Map, len(items))
	for i, v := range items {
		out[i] = t(v)
	}
	return out
}

// With returns a transformer that adds extra's keys on top of t's output.
func With[T any](t Transformer[T], extra func(T) Map) Transformer[T] {
	return func(v T) Map {
		m := t(v)
		for k, val := range extra(v) {
			m[k] = val
		}
		return m
	}
}
