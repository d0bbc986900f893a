package dummy

import (
	"context"
	"sort"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/school"
)

func (repo *Repository) QuerySchools(ctx context.Context, ordering []core.DBOrdering) ([]school.School, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var schools []school.School
	for _, sch := range repo.schools {
		schools = append(schools, sch)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })
	return schools, nil
}

func (repo *Repository) GetSchoolByID(ctx context.Context, id int) (school.School, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	sch, ok := repo.schools[id]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	return sch, nil
}

func (repo *Repository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	sch.ID = repo.nextPK("schools")
	repo.schools[sch.ID] = sch
	return sch, nil
}

func (repo *Repository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.schools[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	repo.schools[sch.ID] = sch
	return sch, nil
}

func (repo *Repository) DeleteSchoolsByID(ctx context.Context, ids ...int) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := repo.schools[id]; ok {
			delete(repo.schools, id)
			deleted++
		}
	}
	if deleted == 0 {
		return school.ErrNotFound
	}
	return nil
}
