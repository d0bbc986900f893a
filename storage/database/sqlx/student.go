package sqlxrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/student"
)

const studentColumns = `
	s.student_id, s.name, s.username, s.email, s.dob, s.gender, s.contact_info,
	s.current_school_id, sch.name AS school_name, s.is_active, s.password_hash,
	s.created_at, s.updated_at`

const studentQuery = `
	SELECT ` + studentColumns + `
	FROM students s
	LEFT JOIN schools sch ON sch.school_id = s.current_school_id`

var studentOrderColumns = map[string]string{
	"student_id":  "s.student_id",
	"name":        "s.name",
	"username":    "s.username",
	"school_name": "school_name",
	"created_at":  "s.created_at",
}

func (repo *Repository) CheckUsernameUniqueness(ctx context.Context, username string, excluded ...student.Student) error {
	query := "SELECT EXISTS (SELECT 1 FROM students WHERE username = $1"
	args := []interface{}{username}
	if len(excluded) > 0 {
		query += " AND student_id != $2"
		args = append(args, excluded[0].ID)
	}
	query += ")"

	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return student.ErrUsernameExists
	}
	return nil
}

func (repo *Repository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	query := `
	INSERT INTO students (name, username, email, dob, gender, contact_info, current_school_id,
		is_active, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING student_id`

	err := repo.db.QueryRowContext(
		ctx, query,
		stu.Name, stu.Username, stu.Email, stu.DOB, stu.Gender, stu.ContactInfo, stu.CurrentSchoolID,
		stu.IsActive, stu.PasswordHash, stu.CreatedAt, stu.UpdatedAt,
	).Scan(&stu.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	return repo.GetStudentByID(ctx, stu.ID)
}

func (repo *Repository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var stu student.Student
	err := repo.db.GetContext(ctx, &stu, studentQuery+" WHERE s.student_id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by ID")
	}
	return stu, nil
}

func (repo *Repository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	query := studentQuery
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			clauses = append(clauses, fmt.Sprintf("(s.name ILIKE %s OR s.username ILIKE %s OR s.email ILIKE %s)", p, p, p))
		}
		if filter.SchoolID != 0 {
			clauses = append(clauses, "s.current_school_id = "+arg(filter.SchoolID))
		}
		if filter.IsActive != nil {
			clauses = append(clauses, "s.is_active = "+arg(*filter.IsActive))
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += orderBy(ordering, studentOrderColumns, "s.student_id ASC")

	var students []student.Student
	if err := repo.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *Repository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	query := `
	UPDATE students
	SET name = $1, email = $2, dob = $3, gender = $4, contact_info = $5,
		current_school_id = $6, is_active = $7, updated_at = $8
	WHERE student_id = $9`

	res, err := repo.db.ExecContext(
		ctx, query,
		stu.Name, stu.Email, stu.DOB, stu.Gender, stu.ContactInfo,
		stu.CurrentSchoolID, stu.IsActive, stu.UpdatedAt, stu.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, stu.ID)
}

// Academic records

func (repo *Repository) QueryAcademicRecords(ctx context.Context, studentID int) ([]student.AcademicRecord, error) {
	query := `
	SELECT record_id, student_id, school_standard, subject, marks, percentage, grade, created_at
	FROM academic_records
	WHERE student_id = $1
	ORDER BY school_standard ASC, subject ASC`

	var records []student.AcademicRecord
	if err := repo.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying academic records")
	}
	return records, nil
}

func (repo *Repository) GetAcademicRecordByID(ctx context.Context, id int) (student.AcademicRecord, error) {
	query := `
	SELECT record_id, student_id, school_standard, subject, marks, percentage, grade, created_at
	FROM academic_records
	WHERE record_id = $1`

	var rec student.AcademicRecord
	if err := repo.db.GetContext(ctx, &rec, query, id); err != nil {
		if err == sql.ErrNoRows {
			return student.AcademicRecord{}, student.ErrRecordNotFound
		}
		return student.AcademicRecord{}, errors.Wrap(err, "getting academic record by ID")
	}
	return rec, nil
}

func (repo *Repository) CreateAcademicRecord(ctx context.Context, rec student.AcademicRecord) (student.AcademicRecord, error) {
	query := `
	INSERT INTO academic_records (student_id, school_standard, subject, marks, percentage, grade, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING record_id`

	err := repo.db.QueryRowContext(
		ctx, query,
		rec.StudentID, rec.Standard, rec.Subject, rec.Marks, rec.Percentage, rec.Grade, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return student.AcademicRecord{}, errors.Wrap(err, "creating academic record")
	}
	return rec, nil
}

func (repo *Repository) UpdateAcademicRecord(ctx context.Context, rec student.AcademicRecord) (student.AcademicRecord, error) {
	query := `
	UPDATE academic_records
	SET school_standard = $1, subject = $2, marks = $3, percentage = $4, grade = $5
	WHERE record_id = $6`

	res, err := repo.db.ExecContext(ctx, query, rec.Standard, rec.Subject, rec.Marks, rec.Percentage, rec.Grade, rec.ID)
	if err != nil {
		return student.AcademicRecord{}, errors.Wrap(err, "updating academic record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.AcademicRecord{}, student.ErrRecordNotFound
	}
	return rec, nil
}

func (repo *Repository) DeleteAcademicRecordsByID(ctx context.Context, ids ...int) error {
	query, args, err := sqlx.In("DELETE FROM academic_records WHERE record_id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return errors.Wrap(err, "deleting academic records")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrRecordNotFound
	}
	return nil
}

// Documents

func (repo *Repository) QueryDocuments(ctx context.Context, studentID int) ([]student.Document, error) {
	query := `
	SELECT document_id, student_id, document_type, file_name, file_path, upload_date
	FROM documents
	WHERE student_id = $1
	ORDER BY upload_date DESC`

	var docs []student.Document
	if err := repo.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	return docs, nil
}

func (repo *Repository) GetDocumentByID(ctx context.Context, id int) (student.Document, error) {
	query := `
	SELECT document_id, student_id, document_type, file_name, file_path, upload_date
	FROM documents
	WHERE document_id = $1`

	var doc student.Document
	if err := repo.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Document{}, student.ErrDocumentNotFound
		}
		return student.Document{}, errors.Wrap(err, "getting document by ID")
	}
	return doc, nil
}

func (repo *Repository) CreateDocument(ctx context.Context, doc student.Document) (student.Document, error) {
	query := `
	INSERT INTO documents (student_id, document_type, file_name, file_path, upload_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING document_id`

	err := repo.db.QueryRowContext(
		ctx, query,
		doc.StudentID, doc.Type, doc.FileName, doc.FilePath, doc.UploadDate,
	).Scan(&doc.ID)
	if err != nil {
		return student.Document{}, errors.Wrap(err, "creating document")
	}
	return doc, nil
}

// Transfer certificates

const tcQuery = `
	SELECT tc.tc_id, tc.student_id, s.name AS student_name, tc.application_date, tc.destination_school,
		tc.reason, tc.transfer_date, tc.status, tc.comments, tc.processed_by, tc.processed_date
	FROM transfer_certificates tc
	JOIN students s ON s.student_id = tc.student_id`

var tcOrderColumns = map[string]string{
	"tc_id":            "tc.tc_id",
	"student_name":     "student_name",
	"application_date": "tc.application_date",
	"status":           "tc.status",
}

func (repo *Repository) QueryTransferCertificates(ctx context.Context, studentID int) ([]student.TransferCertificate, error) {
	var tcs []student.TransferCertificate
	query := tcQuery + " WHERE tc.student_id = $1 ORDER BY tc.application_date DESC"
	if err := repo.db.SelectContext(ctx, &tcs, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying transfer certificates")
	}
	return tcs, nil
}

func (repo *Repository) QueryAllTransferCertificates(ctx context.Context, ordering []core.DBOrdering) ([]student.TransferCertificate, error) {
	var tcs []student.TransferCertificate
	query := tcQuery + orderBy(ordering, tcOrderColumns, "tc.application_date DESC")
	if err := repo.db.SelectContext(ctx, &tcs, query); err != nil {
		return nil, errors.Wrap(err, "querying transfer certificates")
	}
	return tcs, nil
}

func (repo *Repository) GetTransferCertificateByID(ctx context.Context, id int) (student.TransferCertificate, error) {
	var tc student.TransferCertificate
	err := repo.db.GetContext(ctx, &tc, tcQuery+" WHERE tc.tc_id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.TransferCertificate{}, student.ErrTCNotFound
		}
		return student.TransferCertificate{}, errors.Wrap(err, "getting transfer certificate by ID")
	}
	return tc, nil
}

func (repo *Repository) CreateTransferCertificate(ctx context.Context, tc student.TransferCertificate) (student.TransferCertificate, error) {
	query := `
	INSERT INTO transfer_certificates (student_id, application_date, destination_school, reason,
		transfer_date, status, comments, processed_by, processed_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING tc_id`

	err := repo.db.QueryRowContext(
		ctx, query,
		tc.StudentID, tc.ApplicationDate, tc.DestinationSchool, tc.Reason,
		tc.TransferDate, tc.Status, tc.Comments, tc.ProcessedBy, tc.ProcessedDate,
	).Scan(&tc.ID)
	if err != nil {
		return student.TransferCertificate{}, errors.Wrap(err, "creating transfer certificate")
	}
	return tc, nil
}

func (repo *Repository) UpdateTransferCertificate(ctx context.Context, tc student.TransferCertificate) (student.TransferCertificate, error) {
	query := `
	UPDATE transfer_certificates
	SET status = $1, comments = $2, processed_by = $3, processed_date = $4
	WHERE tc_id = $5`

	res, err := repo.db.ExecContext(ctx, query, tc.Status, tc.Comments, tc.ProcessedBy, tc.ProcessedDate, tc.ID)
	if err != nil {
		return student.TransferCertificate{}, errors.Wrap(err, "updating transfer certificate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.TransferCertificate{}, student.ErrTCNotFound
	}
	return tc, nil
}

func (repo *Repository) DeleteTransferCertificatesByID(ctx context.Context, ids ...int) error {
	query, args, err := sqlx.In("DELETE FROM transfer_certificates WHERE tc_id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return errors.Wrap(err, "deleting transfer certificates")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrTCNotFound
	}
	return nil
}

// Schemes

func (repo *Repository) QuerySchemeEnrollments(ctx context.Context, studentID int) ([]student.SchemeEnrollment, error) {
	query := `
	SELECT e.enrollment_id, e.student_id, e.scheme_id, sc.name AS scheme_name,
		e.start_date, e.end_date, e.status
	FROM scheme_enrollments e
	JOIN schemes sc ON sc.scheme_id = e.scheme_id
	WHERE e.student_id = $1
	ORDER BY e.start_date DESC`

	var enrollments []student.SchemeEnrollment
	if err := repo.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying scheme enrollments")
	}
	return enrollments, nil
}
