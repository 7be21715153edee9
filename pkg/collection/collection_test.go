package collection_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/markethub/pkg/collection"
)

type line struct {
	vendor string
	amount string
}

func TestGroupByKeepsFirstSeenOrder(t *testing.T) {
	lines := []line{{"b", "1"}, {"a", "2"}, {"b", "3"}}
	groups, keys := collection.GroupBy(lines, func(l line) string { return l.vendor })

	assert.Equal(t, []string{"b", "a"}, keys)
	assert.Len(t, groups["b"], 2)
	assert.Len(t, groups["a"], 1)
}

func TestSumDecimalIsExact(t *testing.T) {
	lines := []line{{"a", "0.10"}, {"a", "0.20"}, {"a", "0.30"}}
	sum := collection.SumDecimal(lines, func(l line) decimal.Decimal { return decimal.RequireFromString(l.amount) })
	assert.Equal(t, "0.60", sum.StringFixed(2))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, collection.Unique([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, []int{2, 4}, collection.Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 }))
	assert.Equal(t, []string{"x1", "x2"}, collection.Map([]int{1, 2}, func(v int) string { return "x" + string(rune('0'+v)) }))

	byID := collection.KeyBy([]line{{"a", "1"}, {"b", "2"}}, func(l line) string { return l.vendor })
	assert.Equal(t, "2", byID["b"].amount)
}
