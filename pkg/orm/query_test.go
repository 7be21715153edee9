package orm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/pkg/orm"
	"github.com/shashiranjanraj/markethub/pkg/testkit"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
	Kind string
}

func TestPaginate(t *testing.T) {
	db := testkit.OpenDB(t, &widget{})
	for i := 1; i <= 7; i++ {
		require.NoError(t, db.Create(&widget{Name: fmt.Sprintf("w%d", i), Kind: "gear"}).Error)
	}
	require.NoError(t, db.Create(&widget{Name: "odd", Kind: "spring"}).Error)

	q := orm.Use(db).WithContext(context.Background()).Model(&widget{}).Where("kind = ?", "gear").Order("id")

	var page []widget
	p, err := q.Paginate(3, 3, &page)
	require.NoError(t, err)
	assert.Equal(t, orm.Pagination{Page: 3, PerPage: 3, Total: 7, TotalPages: 3}, p)
	require.Len(t, page, 1)
	assert.Equal(t, "w7", page[0].Name)

	p, err = q.Paginate(0, 500, &page)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)
	assert.Len(t, page, 7)
}

func TestFirstMissIsErrNotFound(t *testing.T) {
	db := testkit.OpenDB(t, &widget{})
	var w widget
	err := orm.Use(db).Where("name = ?", "nope").First(&w)
	assert.ErrorIs(t, err, orm.ErrNotFound)

	require.NoError(t, db.Create(&widget{Name: "here"}).Error)
	require.NoError(t, orm.Use(db).Where("name = ?", "here").First(&w))
	assert.Equal(t, "here", w.Name)
}

func TestUpdatesReportsRows(t *testing.T) {
	db := testkit.OpenDB(t, &widget{})
	require.NoError(t, db.Create(&widget{Name: "a", Kind: "gear"}).Error)
	require.NoError(t, db.Create(&widget{Name: "b", Kind: "gear"}).Error)

	n, err := orm.Use(db).Model(&widget{}).Where("kind = ?", "gear").Updates(map[string]any{"kind": "cog"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDerivedQueryLeavesBaseAlone(t *testing.T) {
	db := testkit.OpenDB(t, &widget{})
	require.NoError(t, db.Create(&widget{Name: "a", Kind: "gear"}).Error)
	require.NoError(t, db.Create(&widget{Name: "b", Kind: "spring"}).Error)

	base := orm.Use(db).WithContext(context.Background()).Model(&widget{}).Where("id > ?", 0)
	var springs []widget
	require.NoError(t, base.Where("kind = ?", "spring").Get(&springs))
	assert.Len(t, springs, 1)

	var all []widget
	require.NoError(t, base.Get(&all))
	assert.Len(t, all, 2)

	n, err := base.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
