package sqlxrepo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/school"
)

const schoolQuery = `
	SELECT school_id, name, address, contact, principal, created_at, updated_at
	FROM schools`

var schoolOrderColumns = map[string]string{
	"school_id":  "school_id",
	"name":       "name",
	"created_at": "created_at",
}

func (repo *Repository) QuerySchools(ctx context.Context, ordering []core.DBOrdering) ([]school.School, error) {
	var schools []school.School
	query := schoolQuery + orderBy(ordering, schoolOrderColumns, "name ASC")
	if err := repo.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	return schools, nil
}

func (repo *Repository) GetSchoolByID(ctx context.Context, id int) (school.School, error) {
	var sch school.School
	if err := repo.db.GetContext(ctx, &sch, schoolQuery+" WHERE school_id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, errors.Wrap(err, "getting school by ID")
	}
	return sch, nil
}

func (repo *Repository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	query := `
	INSERT INTO schools (name, address, contact, principal, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING school_id`

	err := repo.db.QueryRowContext(
		ctx, query,
		sch.Name, sch.Address, sch.Contact, sch.Principal, sch.CreatedAt, sch.UpdatedAt,
	).Scan(&sch.ID)
	if err != nil {
		return school.School{}, errors.Wrap(err, "creating school")
	}
	return sch, nil
}

func (repo *Repository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	query := `
	UPDATE schools
	SET name = $1, address = $2, contact = $3, principal = $4, updated_at = $5
	WHERE school_id = $6`

	res, err := repo.db.ExecContext(ctx, query, sch.Name, sch.Address, sch.Contact, sch.Principal, sch.UpdatedAt, sch.ID)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return sch, nil
}

func (repo *Repository) DeleteSchoolsByID(ctx context.Context, ids ...int) error {
	query, args, err := sqlx.In("DELETE FROM schools WHERE school_id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return errors.Wrap(err, "deleting schools")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrNotFound
	}
	return nil
}
