package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/student"
)

// allowedDocumentExts is the upload extension whitelist.
var allowedDocumentExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".doc":  true,
	".docx": true,
}

type studentApi struct {
	svc *student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service) {
	api := studentApi{svc: svc}

	// every route below is scoped to the student addressed by :id;
	// a student-role caller may only address themselves
	sg := g.Group("/students/:id", jwt, studentScopeMiddleware(svc))
	sg.GET("", api.retrieveProfile)
	sg.GET("/academic-records", api.queryAcademicRecords)
	sg.GET("/documents", api.queryDocuments)
	sg.POST("/documents", api.uploadDocument)
	sg.GET("/documents/:docID/download", api.downloadDocument)
	sg.GET("/transfer-certificates", api.queryTransferCertificates)
	sg.POST("/transfer-certificates", api.applyForTransfer)
	sg.GET("/schemes", api.querySchemes)
}

// Handlers

func (api *studentApi) retrieveProfile(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) queryAcademicRecords(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.AcademicRecords(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying academic records")
	}
	if records == nil {
		records = []student.AcademicRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *studentApi) queryDocuments(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	docs, err := api.svc.Documents(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []student.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *studentApi) uploadDocument(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	ext := strings.ToLower(filepath.Ext(fileHdr.Filename))
	if !allowedDocumentExts[ext] {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file type not allowed"})
	}

	data := student.NewDocument{
		Type:     ctx.FormValue("document_type"),
		FileName: filepath.Base(fileHdr.Filename),
		FilePath: uuid.New().String() + ext,
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := saveUpload(fileHdr, filepath.Join(core.Conf.MediaRoot, data.FilePath)); err != nil {
		return errors.Wrap(err, "saving upload")
	}

	doc, err := api.svc.AddDocument(ctx.Request().Context(), stu.ID, data)
	if err != nil {
		return errors.Wrap(err, "recording document")
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *studentApi) downloadDocument(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	docID, err := strconv.Atoi(ctx.Param("docID"))
	if err != nil {
		return errHttpNotFound
	}
	doc, err := api.svc.GetDocument(ctx.Request().Context(), docID)
	if err != nil {
		if errors.Cause(err) == student.ErrDocumentNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding document by ID")
	}
	// a document belonging to another student is indistinguishable
	// from a nonexistent one
	if doc.StudentID != stu.ID {
		return errHttpNotFound
	}
	return ctx.Attachment(filepath.Join(core.Conf.MediaRoot, doc.FilePath), doc.FileName)
}

func (api *studentApi) queryTransferCertificates(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	tcs, err := api.svc.TransferCertificates(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying transfer certificates")
	}
	if tcs == nil {
		tcs = []student.TransferCertificate{}
	}
	return ctx.JSON(http.StatusOK, tcs)
}

func (api *studentApi) applyForTransfer(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data student.NewTransferCertificate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransferCertificate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	tc, err := api.svc.ApplyForTransfer(ctx.Request().Context(), stu.ID, data)
	if err != nil {
		return errors.Wrap(err, "applying for transfer")
	}
	return ctx.JSON(http.StatusCreated, tc)
}

func (api *studentApi) querySchemes(ctx echo.Context) error {
	stu, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	schemes, err := api.svc.Schemes(ctx.Request().Context(), stu.ID)
	if err != nil {
		return errors.Wrap(err, "querying schemes")
	}
	if schemes == nil {
		schemes = []student.SchemeEnrollment{}
	}
	return ctx.JSON(http.StatusOK, schemes)
}

func saveUpload(fileHdr *multipart.FileHeader, dst string) error {
	src, err := fileHdr.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, src)
	return err
}
