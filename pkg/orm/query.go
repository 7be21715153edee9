// Package orm is a thin chainable layer over gorm used by the repositories.
// Every method works on a fresh gorm session of the wrapped handle, so a
// *Query stays reusable after other queries are derived from it.
package orm

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("orm: record not found")

type Query struct {
	db *gorm.DB
}

// Use starts a query on db, typically a transaction handle.
func Use(db *gorm.DB) *Query {
	return &Query{db: db.Session(&gorm.Session{})}
}

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.Session(&gorm.Session{Context: ctx})}
}

// fork returns a session whose next chained call clones the statement.
func (q *Query) fork() *gorm.DB { return q.db.Session(&gorm.Session{}) }

func (q *Query) Model(v any) *Query { return &Query{db: q.fork().Model(v)} }
func (q *Query) Table(name string) *Query {
	return &Query{db: q.fork().Table(name)}
}

func (q *Query) Where(query any, args ...any) *Query {
	return &Query{db: q.fork().Where(query, args...)}
}

func (q *Query) Joins(query string, args ...any) *Query {
	return &Query{db: q.fork().Joins(query, args...)}
}

func (q *Query) Preload(assoc string, args ...any) *Query {
	return &Query{db: q.fork().Preload(assoc, args...)}
}

func (q *Query) Select(query any, args ...any) *Query {
	return &Query{db: q.fork().Select(query, args...)}
}

func (q *Query) Order(v any) *Query { return &Query{db: q.fork().Order(v)} }
func (q *Query) Limit(n int) *Query { return &Query{db: q.fork().Limit(n)} }

func (q *Query) Get(dest any) error {
	return q.fork().Find(dest).Error
}

// First loads the first row ordered by primary key. A miss is ErrNotFound.
func (q *Query) First(dest any) error {
	err := q.fork().First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.fork().Count(&n).Error
	return n, err
}

func (q *Query) Create(v any) error { return q.fork().Create(v).Error }
func (q *Query) Save(v any) error   { return q.fork().Save(v).Error }

// Updates applies a column map to the current model and reports the number
// of affected rows.
func (q *Query) Updates(values map[string]any) (int64, error) {
	res := q.fork().Updates(values)
	return res.RowsAffected, res.Error
}

func (q *Query) Delete(v any) (int64, error) {
	res := q.fork().Delete(v)
	return res.RowsAffected, res.Error
}

// Gorm exposes the underlying handle for expressions the builder lacks.
func (q *Query) Gorm() *gorm.DB { return q.fork() }

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Paginate counts matching rows and loads the requested page into dest.
// page starts at 1; perPage is clamped to 1..100.
func (q *Query) Paginate(page, perPage int, dest any) (Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	var total int64
	if err := q.fork().Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	if err := q.fork().Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error; err != nil {
		return Pagination{}, err
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}
