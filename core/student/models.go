package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/shule/core"
)

// DateFormat is the wire format for date-only fields.
const DateFormat = "2006-01-02"

// Transfer certificate statuses
const (
	TCStatusPending  = "pending"
	TCStatusApproved = "approved"
	TCStatusRejected = "rejected"
)

type (
	// Student is a student profile; the same row also backs the student's
	// credentials (see core/user).
	Student struct {
		ID              int         `json:"student_id" db:"student_id"`
		Name            string      `json:"name" db:"name"`
		Username        string      `json:"username" db:"username"`
		Email           null.String `json:"email" db:"email"`
		DOB             null.Time   `json:"dob" db:"dob"`
		Gender          null.String `json:"gender" db:"gender"`
		ContactInfo     null.String `json:"contact_info" db:"contact_info"`
		CurrentSchoolID null.Int    `json:"current_school_id" db:"current_school_id"`
		SchoolName      null.String `json:"school_name" db:"school_name"`
		IsActive        bool        `json:"is_active" db:"is_active"`
		PasswordHash    []byte      `json:"-" db:"password_hash"`
		CreatedAt       time.Time   `json:"created_at" db:"created_at"` // UTC
		UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"` // UTC
	}

	AcademicRecord struct {
		ID         int       `json:"record_id" db:"record_id"`
		StudentID  int       `json:"student_id" db:"student_id"`
		Standard   int       `json:"school_standard" db:"school_standard"`
		Subject    string    `json:"subject" db:"subject"`
		Marks      float64   `json:"marks" db:"marks"`
		Percentage float64   `json:"percentage" db:"percentage"`
		Grade      string    `json:"grade" db:"grade"`
		CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	}

	Document struct {
		ID         int       `json:"document_id" db:"document_id"`
		StudentID  int       `json:"student_id" db:"student_id"`
		Type       string    `json:"document_type" db:"document_type"`
		FileName   string    `json:"file_name" db:"file_name"`
		FilePath   string    `json:"file_path" db:"file_path"` // relative to the media root
		UploadDate time.Time `json:"upload_date" db:"upload_date"`
	}

	TransferCertificate struct {
		ID                int         `json:"tc_id" db:"tc_id"`
		StudentID         int         `json:"student_id" db:"student_id"`
		StudentName       string      `json:"student_name" db:"student_name"`
		ApplicationDate   time.Time   `json:"application_date" db:"application_date"`
		DestinationSchool string      `json:"destination_school" db:"destination_school"`
		Reason            string      `json:"reason" db:"reason"`
		TransferDate      time.Time   `json:"transfer_date" db:"transfer_date"`
		Status            string      `json:"status" db:"status"`
		Comments          null.String `json:"comments" db:"comments"`
		ProcessedBy       null.String `json:"processed_by" db:"processed_by"`
		ProcessedDate     null.Time   `json:"processed_date" db:"processed_date"`
	}

	SchemeEnrollment struct {
		ID         int       `json:"enrollment_id" db:"enrollment_id"`
		StudentID  int       `json:"student_id" db:"student_id"`
		SchemeID   int       `json:"scheme_id" db:"scheme_id"`
		SchemeName string    `json:"scheme_name" db:"scheme_name"`
		StartDate  time.Time `json:"start_date" db:"start_date"`
		EndDate    null.Time `json:"end_date" db:"end_date"`
		Status     string    `json:"status" db:"status"`
	}

	// Details is the comprehensive per-student view served to administrators.
	Details struct {
		Student         Student            `json:"student"`
		AcademicRecords []AcademicRecord   `json:"academic_records"`
		Schemes         []SchemeEnrollment `json:"schemes"`
	}

	QueryFilter struct {
		Search   string `query:"search"`
		SchoolID int    `query:"school_id"`
		IsActive *bool  `query:"is_active"`
	}
)

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// GradeFor maps a percentage to its letter grade.
func GradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 35:
		return "D"
	default:
		return "F"
	}
}

// NewStudent contains information needed to provision a student account.
type NewStudent struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=4,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,min=8"`
	DOB             string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female other"`
	ContactInfo     string `json:"contact_info" validate:"omitempty,max=255"`
	CurrentSchoolID int    `json:"current_school_id" validate:"omitempty,min=1"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUsernameUniqueness(ns.Username)
}

// UpdateStudent defines what profile fields may be modified.
type UpdateStudent struct {
	Name            string `json:"name" validate:"omitempty"`
	Email           string `json:"email" validate:"omitempty,email"`
	DOB             string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female other"`
	ContactInfo     string `json:"contact_info" validate:"omitempty,max=255"`
	CurrentSchoolID int    `json:"current_school_id" validate:"omitempty,min=1"`
}

func (us *UpdateStudent) Validate() error {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	return core.Validate.Struct(us)
}

type NewAcademicRecord struct {
	StudentID int     `json:"student_id" validate:"required,min=1"`
	Standard  int     `json:"school_standard" validate:"required,min=1,max=12"`
	Subject   string  `json:"subject" validate:"required,max=100"`
	Marks     float64 `json:"marks" validate:"min=0"`
	MaxMarks  float64 `json:"max_marks" validate:"omitempty,min=1"`
}

func (nr *NewAcademicRecord) Validate() error {
	nr.Subject = core.CleanString(nr.Subject)
	if err := core.Validate.Struct(nr); err != nil {
		return err
	}
	if nr.MaxMarks == 0 {
		nr.MaxMarks = 100
	}
	if nr.Marks > nr.MaxMarks {
		return core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "marks cannot exceed max_marks"})
	}
	return nil
}

// UpdateAcademicRecord fields are all optional; unset fields keep their
// stored values. Marks is a pointer so that a legitimate 0 can be told
// apart from "not provided".
type UpdateAcademicRecord struct {
	Standard int      `json:"school_standard" validate:"omitempty,min=1,max=12"`
	Subject  string   `json:"subject" validate:"omitempty,max=100"`
	Marks    *float64 `json:"marks" validate:"omitempty,min=0"`
	MaxMarks float64  `json:"max_marks" validate:"omitempty,min=1"`
}

func (ur *UpdateAcademicRecord) Validate() error {
	ur.Subject = core.CleanString(ur.Subject)
	if err := core.Validate.Struct(ur); err != nil {
		return err
	}
	if ur.MaxMarks == 0 {
		ur.MaxMarks = 100
	}
	if ur.Marks != nil && *ur.Marks > ur.MaxMarks {
		return core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "marks cannot exceed max_marks"})
	}
	return nil
}

// NewDocument describes an uploaded file; the file itself is stored by the
// API layer under the media root before this is recorded.
type NewDocument struct {
	Type     string `json:"document_type" validate:"required,max=50"`
	FileName string `json:"file_name" validate:"required,max=255"`
	FilePath string `json:"file_path" validate:"required,max=255"`
}

func (nd *NewDocument) Validate() error {
	nd.Type = core.CleanString(nd.Type)
	return core.Validate.Struct(nd)
}

type NewTransferCertificate struct {
	DestinationSchool string `json:"destination_school" validate:"required,max=255"`
	Reason            string `json:"reason" validate:"required,max=500"`
	TransferDate      string `json:"transfer_date" validate:"required,datetime=2006-01-02"`
}

func (nt *NewTransferCertificate) Validate() error {
	nt.DestinationSchool = core.CleanString(nt.DestinationSchool)
	nt.Reason = core.CleanString(nt.Reason)
	return core.Validate.Struct(nt)
}

// ProcessTransferCertificate is an administrator's decision on an application.
type ProcessTransferCertificate struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Comments string `json:"comments" validate:"omitempty,max=500"`
}

func (pt *ProcessTransferCertificate) Validate() error {
	pt.Comments = core.CleanString(pt.Comments)
	return core.Validate.Struct(pt)
}
