// Package dummy provides in-memory implementations of the core
// repositories, for tests and local hacking without PostgreSQL.
package dummy

import (
	"sync"
	"time"

	"github.com/shuleni/shule/core/school"
	"github.com/shuleni/shule/core/student"
	"github.com/shuleni/shule/core/user"
)

type Repository struct {
	mu sync.RWMutex

	students    map[int]student.Student
	admins      map[int]user.Account
	schools     map[int]school.School
	records     map[int]student.AcademicRecord
	documents   map[int]student.Document
	tcs         map[int]student.TransferCertificate
	enrollments map[int]student.SchemeEnrollment

	// student last_login lives in its own column in the real schema;
	// the Student struct does not carry it, so it is kept aside here.
	studentLastLogin map[int]time.Time

	pks map[string]int
}

func NewRepository() *Repository {
	return &Repository{
		students:         make(map[int]student.Student),
		admins:           make(map[int]user.Account),
		schools:          make(map[int]school.School),
		records:          make(map[int]student.AcademicRecord),
		documents:        make(map[int]student.Document),
		tcs:              make(map[int]student.TransferCertificate),
		enrollments:      make(map[int]student.SchemeEnrollment),
		studentLastLogin: make(map[int]time.Time),
		pks:              make(map[string]int),
	}
}

// nextPK returns the next primary key for table. Callers must hold mu.
func (repo *Repository) nextPK(table string) int {
	repo.pks[table]++
	return repo.pks[table]
}
