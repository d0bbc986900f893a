// Package sqlxrepo implements the core repositories on PostgreSQL via sqlx.
package sqlxrepo

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shuleni/shule/core"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// orderBy renders an ORDER BY clause from the requested orderings,
// keeping only whitelisted columns. Falls back to fallback when nothing
// usable remains.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, fallback string) string {
	var clauses []string
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
