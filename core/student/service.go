package student

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/shuleni/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("student not found")
	ErrRecordNotFound     = errors.New("academic record not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrTCNotFound         = errors.New("transfer certificate not found")
	ErrTCAlreadyProcessed = errors.New("transfer certificate has already been processed")
	ErrUsernameExists     = errors.New("a student with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, excluded ...Student) error
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Username or Email.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, stu Student) (Student, error)

		QueryAcademicRecords(ctx context.Context, studentID int) ([]AcademicRecord, error)
		GetAcademicRecordByID(ctx context.Context, id int) (AcademicRecord, error)
		CreateAcademicRecord(ctx context.Context, rec AcademicRecord) (AcademicRecord, error)
		UpdateAcademicRecord(ctx context.Context, rec AcademicRecord) (AcademicRecord, error)
		DeleteAcademicRecordsByID(ctx context.Context, ids ...int) error

		QueryDocuments(ctx context.Context, studentID int) ([]Document, error)
		GetDocumentByID(ctx context.Context, id int) (Document, error)
		CreateDocument(ctx context.Context, doc Document) (Document, error)

		QueryTransferCertificates(ctx context.Context, studentID int) ([]TransferCertificate, error)
		QueryAllTransferCertificates(ctx context.Context, ordering []core.DBOrdering) ([]TransferCertificate, error)
		GetTransferCertificateByID(ctx context.Context, id int) (TransferCertificate, error)
		CreateTransferCertificate(ctx context.Context, tc TransferCertificate) (TransferCertificate, error)
		UpdateTransferCertificate(ctx context.Context, tc TransferCertificate) (TransferCertificate, error)
		DeleteTransferCertificatesByID(ctx context.Context, ids ...int) error

		QuerySchemeEnrollments(ctx context.Context, studentID int) ([]SchemeEnrollment, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	stu := Student{
		Name:            ns.Name,
		Username:        ns.Username,
		Email:           null.NewString(ns.Email, ns.Email != ""),
		Gender:          null.NewString(ns.Gender, ns.Gender != ""),
		ContactInfo:     null.NewString(ns.ContactInfo, ns.ContactInfo != ""),
		CurrentSchoolID: null.NewInt(ns.CurrentSchoolID, ns.CurrentSchoolID != 0),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ns.DOB != "" {
		dob, err := time.Parse(DateFormat, ns.DOB)
		if err != nil {
			return Student{}, errors.Wrap(err, "parsing dob")
		}
		stu.DOB = null.TimeFrom(dob)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(ns.Password), bcrypt.DefaultCost)
	if err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}
	stu.PasswordHash = hash
	return svc.repo.CreateStudent(ctx, stu)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.Name != "" {
		stu.Name = us.Name
	}
	if us.Email != "" {
		stu.Email = null.StringFrom(us.Email)
	}
	if us.DOB != "" {
		dob, err := time.Parse(DateFormat, us.DOB)
		if err != nil {
			return Student{}, errors.Wrap(err, "parsing dob")
		}
		stu.DOB = null.TimeFrom(dob)
	}
	if us.Gender != "" {
		stu.Gender = null.StringFrom(us.Gender)
	}
	if us.ContactInfo != "" {
		stu.ContactInfo = null.StringFrom(us.ContactInfo)
	}
	if us.CurrentSchoolID != 0 {
		stu.CurrentSchoolID = null.IntFrom(us.CurrentSchoolID)
	}
	stu.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, stu)
}

// Details assembles the comprehensive per-student view.
func (svc *Service) Details(ctx context.Context, id int) (Details, error) {
	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Details{}, err
	}
	records, err := svc.repo.QueryAcademicRecords(ctx, id)
	if err != nil {
		return Details{}, errors.Wrap(err, "querying academic records")
	}
	schemes, err := svc.repo.QuerySchemeEnrollments(ctx, id)
	if err != nil {
		return Details{}, errors.Wrap(err, "querying schemes")
	}
	return Details{Student: stu, AcademicRecords: records, Schemes: schemes}, nil
}

// Academic records

func (svc *Service) AcademicRecords(ctx context.Context, studentID int) ([]AcademicRecord, error) {
	return svc.repo.QueryAcademicRecords(ctx, studentID)
}

func (svc *Service) CreateAcademicRecord(ctx context.Context, nr NewAcademicRecord) (AcademicRecord, error) {
	if _, err := svc.repo.GetStudentByID(ctx, nr.StudentID); err != nil {
		return AcademicRecord{}, err
	}
	pct := nr.Marks / nr.MaxMarks * 100
	rec := AcademicRecord{
		StudentID:  nr.StudentID,
		Standard:   nr.Standard,
		Subject:    nr.Subject,
		Marks:      nr.Marks,
		Percentage: pct,
		Grade:      GradeFor(pct),
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateAcademicRecord(ctx, rec)
}

func (svc *Service) UpdateAcademicRecord(ctx context.Context, id int, ur UpdateAcademicRecord) (AcademicRecord, error) {
	rec, err := svc.repo.GetAcademicRecordByID(ctx, id)
	if err != nil {
		return AcademicRecord{}, err
	}
	if ur.Standard != 0 {
		rec.Standard = ur.Standard
	}
	if ur.Subject != "" {
		rec.Subject = ur.Subject
	}
	if ur.Marks != nil {
		rec.Marks = *ur.Marks
		rec.Percentage = *ur.Marks / ur.MaxMarks * 100
		rec.Grade = GradeFor(rec.Percentage)
	}
	return svc.repo.UpdateAcademicRecord(ctx, rec)
}

func (svc *Service) DeleteAcademicRecords(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteAcademicRecordsByID(ctx, ids...)
}

// Documents

func (svc *Service) Documents(ctx context.Context, studentID int) ([]Document, error) {
	return svc.repo.QueryDocuments(ctx, studentID)
}

func (svc *Service) GetDocument(ctx context.Context, id int) (Document, error) {
	return svc.repo.GetDocumentByID(ctx, id)
}

// AddDocument records an uploaded file for the owning student.
func (svc *Service) AddDocument(ctx context.Context, studentID int, nd NewDocument) (Document, error) {
	doc := Document{
		StudentID:  studentID,
		Type:       nd.Type,
		FileName:   nd.FileName,
		FilePath:   nd.FilePath,
		UploadDate: time.Now().UTC(),
	}
	return svc.repo.CreateDocument(ctx, doc)
}

// Transfer certificates

func (svc *Service) TransferCertificates(ctx context.Context, studentID int) ([]TransferCertificate, error) {
	return svc.repo.QueryTransferCertificates(ctx, studentID)
}

func (svc *Service) AllTransferCertificates(ctx context.Context, ordering []core.DBOrdering) ([]TransferCertificate, error) {
	return svc.repo.QueryAllTransferCertificates(ctx, ordering)
}

// ApplyForTransfer files a new application on behalf of the owning student;
// the application date is server-assigned and the status starts pending.
func (svc *Service) ApplyForTransfer(ctx context.Context, studentID int, nt NewTransferCertificate) (TransferCertificate, error) {
	stu, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return TransferCertificate{}, err
	}
	transferDate, err := time.Parse(DateFormat, nt.TransferDate)
	if err != nil {
		return TransferCertificate{}, errors.Wrap(err, "parsing transfer_date")
	}
	tc := TransferCertificate{
		StudentID:         stu.ID,
		StudentName:       stu.Name,
		ApplicationDate:   time.Now().UTC(),
		DestinationSchool: nt.DestinationSchool,
		Reason:            nt.Reason,
		TransferDate:      transferDate,
		Status:            TCStatusPending,
	}
	return svc.repo.CreateTransferCertificate(ctx, tc)
}

// ProcessTransfer applies an administrator's decision and notifies the student.
func (svc *Service) ProcessTransfer(ctx context.Context, id int, pt ProcessTransferCertificate, processedBy string) (TransferCertificate, error) {
	tc, err := svc.repo.GetTransferCertificateByID(ctx, id)
	if err != nil {
		return TransferCertificate{}, err
	}
	if tc.Status != TCStatusPending {
		return TransferCertificate{}, ErrTCAlreadyProcessed
	}
	tc.Status = pt.Status
	tc.Comments = null.NewString(pt.Comments, pt.Comments != "")
	tc.ProcessedBy = null.StringFrom(processedBy)
	tc.ProcessedDate = null.TimeFrom(time.Now().UTC())

	tc, err = svc.repo.UpdateTransferCertificate(ctx, tc)
	if err != nil {
		return TransferCertificate{}, err
	}
	svc.notifyTransferProcessed(ctx, tc)
	return tc, nil
}

func (svc *Service) DeleteTransferCertificates(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteTransferCertificatesByID(ctx, ids...)
}

func (svc *Service) notifyTransferProcessed(ctx context.Context, tc TransferCertificate) {
	stu, err := svc.repo.GetStudentByID(ctx, tc.StudentID)
	if err != nil || !stu.Email.Valid {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.Name, Address: stu.Email.String}},
		Subject:      fmt.Sprintf("Your transfer certificate application has been %s", tc.Status),
		TemplateName: "tc_processed",
		TemplateData: struct {
			Name              string
			DestinationSchool string
			Status            string
			Comments          string
		}{stu.Name, tc.DestinationSchool, tc.Status, tc.Comments.String},
	})
}

// Schemes

func (svc *Service) Schemes(ctx context.Context, studentID int) ([]SchemeEnrollment, error) {
	return svc.repo.QuerySchemeEnrollments(ctx, studentID)
}

func (svc *Service) checkUsernameUniqueness(username string, excluded ...Student) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), username, excluded...); err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}
