package school

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/shule/core"
)

var ErrNotFound = errors.New("school not found")

type (
	Repository interface {
		QuerySchools(ctx context.Context, ordering []core.DBOrdering) ([]School, error)
		GetSchoolByID(ctx context.Context, id int) (School, error)
		CreateSchool(ctx context.Context, sch School) (School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		DeleteSchoolsByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, ordering []core.DBOrdering) ([]School, error) {
	return svc.repo.QuerySchools(ctx, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()
	sch := School{
		Name:      ns.Name,
		Address:   null.NewString(ns.Address, ns.Address != ""),
		Contact:   null.NewString(ns.Contact, ns.Contact != ""),
		Principal: null.NewString(ns.Principal, ns.Principal != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if us.Name != "" {
		sch.Name = us.Name
	}
	if us.Address != "" {
		sch.Address = null.StringFrom(us.Address)
	}
	if us.Contact != "" {
		sch.Contact = null.StringFrom(us.Contact)
	}
	if us.Principal != "" {
		sch.Principal = null.StringFrom(us.Principal)
	}
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}

func (svc *Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteSchoolsByID(ctx, ids...)
}
