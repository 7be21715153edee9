// Package collection has small generic slice helpers used when shaping
// query results: grouping order lines by vendor, indexing products by id,
// summing money.
package collection

import "github.com/shopspring/decimal"

func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

func Filter[T any](s []T, fn func(T) bool) []T {
	var out []T
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// GroupBy partitions s by key, keeping the order of first appearance in
// the returned key slice.
func GroupBy[T any, K comparable](s []T, fn func(T) K) (map[K][]T, []K) {
	out := make(map[K][]T)
	var keys []K
	for _, v := range s {
		k := fn(v)
		if _, seen := out[k]; !seen {
			keys = append(keys, k)
		}
		out[k] = append(out[k], v)
	}
	return out, keys
}

// KeyBy indexes s by key. Later elements win on duplicate keys.
func KeyBy[T any, K comparable](s []T, fn func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[fn(v)] = v
	}
	return out
}

// Unique drops repeated values, keeping first occurrences in order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	var out []T
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func Reduce[T, R any](s []T, initial R, fn func(carry R, item T) R) R {
	acc := initial
	for _, v := range s {
		acc = fn(acc, v)
	}
	return acc
}

// SumDecimal adds fn(v) over s exactly.
func SumDecimal[T any](s []T, fn func(T) decimal.Decimal) decimal.Decimal {
	return Reduce(s, decimal.Zero, func(acc decimal.Decimal, v T) decimal.Decimal {
		return acc.Add(fn(v))
	})
}
