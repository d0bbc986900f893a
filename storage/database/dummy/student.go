package dummy

import (
	"context"
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/student"
)

// withSchoolName mirrors the JOIN the SQL implementation does.
// Callers must hold mu.
func (repo *Repository) withSchoolName(stu student.Student) student.Student {
	stu.SchoolName = null.String{}
	if stu.CurrentSchoolID.Valid {
		if sch, ok := repo.schools[int(stu.CurrentSchoolID.Int)]; ok {
			stu.SchoolName = null.StringFrom(sch.Name)
		}
	}
	return stu
}

func (repo *Repository) CheckUsernameUniqueness(ctx context.Context, username string, excluded ...student.Student) error {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, stu := range repo.students {
		if len(excluded) > 0 && stu.ID == excluded[0].ID {
			continue
		}
		if stu.Username == username {
			return student.ErrUsernameExists
		}
	}
	return nil
}

func (repo *Repository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stu.ID = repo.nextPK("students")
	repo.students[stu.ID] = stu
	return repo.withSchoolName(stu), nil
}

func (repo *Repository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	stu, ok := repo.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.withSchoolName(stu), nil
}

func (repo *Repository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	match := func(stu student.Student) bool {
		if filter == nil {
			return true
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(stu.Name), needle) &&
				!strings.Contains(strings.ToLower(stu.Username), needle) &&
				!strings.Contains(strings.ToLower(stu.Email.String), needle) {
				return false
			}
		}
		if filter.SchoolID != 0 && int(stu.CurrentSchoolID.Int) != filter.SchoolID {
			return false
		}
		if filter.IsActive != nil && stu.IsActive != *filter.IsActive {
			return false
		}
		return true
	}

	var students []student.Student
	for _, stu := range repo.students {
		if match(stu) {
			students = append(students, repo.withSchoolName(stu))
		}
	}

	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(students, func(i, j int) bool {
			var less bool
			switch ord.Field {
			case "name":
				less = students[i].Name < students[j].Name
			case "username":
				less = students[i].Username < students[j].Username
			case "created_at":
				less = students[i].CreatedAt.Before(students[j].CreatedAt)
			default:
				less = students[i].ID < students[j].ID
			}
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
	return students, nil
}

func (repo *Repository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.students[stu.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.students[stu.ID] = stu
	return repo.withSchoolName(stu), nil
}

// Academic records

func (repo *Repository) QueryAcademicRecords(ctx context.Context, studentID int) ([]student.AcademicRecord, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var records []student.AcademicRecord
	for _, rec := range repo.records {
		if rec.StudentID == studentID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (repo *Repository) GetAcademicRecordByID(ctx context.Context, id int) (student.AcademicRecord, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	rec, ok := repo.records[id]
	if !ok {
		return student.AcademicRecord{}, student.ErrRecordNotFound
	}
	return rec, nil
}

func (repo *Repository) CreateAcademicRecord(ctx context.Context, rec student.AcademicRecord) (student.AcademicRecord, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	rec.ID = repo.nextPK("academic_records")
	repo.records[rec.ID] = rec
	return rec, nil
}

func (repo *Repository) UpdateAcademicRecord(ctx context.Context, rec student.AcademicRecord) (student.AcademicRecord, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.records[rec.ID]; !ok {
		return student.AcademicRecord{}, student.ErrRecordNotFound
	}
	repo.records[rec.ID] = rec
	return rec, nil
}

func (repo *Repository) DeleteAcademicRecordsByID(ctx context.Context, ids ...int) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := repo.records[id]; ok {
			delete(repo.records, id)
			deleted++
		}
	}
	if deleted == 0 {
		return student.ErrRecordNotFound
	}
	return nil
}

// Documents

func (repo *Repository) QueryDocuments(ctx context.Context, studentID int) ([]student.Document, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var docs []student.Document
	for _, doc := range repo.documents {
		if doc.StudentID == studentID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (repo *Repository) GetDocumentByID(ctx context.Context, id int) (student.Document, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	doc, ok := repo.documents[id]
	if !ok {
		return student.Document{}, student.ErrDocumentNotFound
	}
	return doc, nil
}

func (repo *Repository) CreateDocument(ctx context.Context, doc student.Document) (student.Document, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doc.ID = repo.nextPK("documents")
	repo.documents[doc.ID] = doc
	return doc, nil
}

// Transfer certificates

func (repo *Repository) QueryTransferCertificates(ctx context.Context, studentID int) ([]student.TransferCertificate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var tcs []student.TransferCertificate
	for _, tc := range repo.tcs {
		if tc.StudentID == studentID {
			tcs = append(tcs, repo.withStudentName(tc))
		}
	}
	sort.Slice(tcs, func(i, j int) bool { return tcs[i].ID < tcs[j].ID })
	return tcs, nil
}

func (repo *Repository) QueryAllTransferCertificates(ctx context.Context, ordering []core.DBOrdering) ([]student.TransferCertificate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var tcs []student.TransferCertificate
	for _, tc := range repo.tcs {
		tcs = append(tcs, repo.withStudentName(tc))
	}
	sort.Slice(tcs, func(i, j int) bool { return tcs[i].ID < tcs[j].ID })
	return tcs, nil
}

func (repo *Repository) GetTransferCertificateByID(ctx context.Context, id int) (student.TransferCertificate, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	tc, ok := repo.tcs[id]
	if !ok {
		return student.TransferCertificate{}, student.ErrTCNotFound
	}
	return repo.withStudentName(tc), nil
}

func (repo *Repository) CreateTransferCertificate(ctx context.Context, tc student.TransferCertificate) (student.TransferCertificate, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	tc.ID = repo.nextPK("transfer_certificates")
	repo.tcs[tc.ID] = tc
	return repo.withStudentName(tc), nil
}

func (repo *Repository) UpdateTransferCertificate(ctx context.Context, tc student.TransferCertificate) (student.TransferCertificate, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.tcs[tc.ID]; !ok {
		return student.TransferCertificate{}, student.ErrTCNotFound
	}
	repo.tcs[tc.ID] = tc
	return repo.withStudentName(tc), nil
}

func (repo *Repository) DeleteTransferCertificatesByID(ctx context.Context, ids ...int) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := repo.tcs[id]; ok {
			delete(repo.tcs, id)
			deleted++
		}
	}
	if deleted == 0 {
		return student.ErrTCNotFound
	}
	return nil
}

// withStudentName mirrors the JOIN the SQL implementation does.
// Callers must hold mu.
func (repo *Repository) withStudentName(tc student.TransferCertificate) student.TransferCertificate {
	if stu, ok := repo.students[tc.StudentID]; ok {
		tc.StudentName = stu.Name
	}
	return tc
}

// Schemes

func (repo *Repository) QuerySchemeEnrollments(ctx context.Context, studentID int) ([]student.SchemeEnrollment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var enrollments []student.SchemeEnrollment
	for _, enr := range repo.enrollments {
		if enr.StudentID == studentID {
			enrollments = append(enrollments, enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

// AddSchemeEnrollment seeds an enrollment row. There is no HTTP surface
// for scheme management; tests and fixtures use this directly.
func (repo *Repository) AddSchemeEnrollment(enr student.SchemeEnrollment) student.SchemeEnrollment {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	enr.ID = repo.nextPK("scheme_enrollments")
	repo.enrollments[enr.ID] = enr
	return enr
}
