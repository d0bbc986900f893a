package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/school"
	"github.com/shuleni/shule/core/student"
)

type adminApi struct {
	stuSvc *student.Service
	schSvc *school.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, stuSvc *student.Service, schSvc *school.Service) {
	api := adminApi{stuSvc: stuSvc, schSvc: schSvc}

	ag := g.Group("/admin", jwt, adminMiddleware())

	ag.GET("/students", api.queryStudents)
	ag.POST("/students", api.createStudent)
	ag.GET("/students/:id", api.retrieveStudent)
	ag.PUT("/students/:id", api.updateStudent)

	ag.GET("/academic-records", api.queryAcademicRecords)
	ag.POST("/academic-records", api.createAcademicRecord)
	ag.PUT("/academic-records/:id", api.updateAcademicRecord)
	ag.DELETE("/academic-records/:id", api.destroyAcademicRecord)

	ag.GET("/transfer-certificates", api.queryTransferCertificates)
	ag.PATCH("/transfer-certificates/:id", api.processTransferCertificate)
	ag.DELETE("/transfer-certificates/:id", api.destroyTransferCertificate)

	ag.GET("/schools", api.querySchools)
	ag.POST("/schools", api.createSchool)
	ag.PUT("/schools/:id", api.updateSchool)
	ag.DELETE("/schools/:id", api.destroySchool)
}

// Student handlers

func (api *adminApi) queryStudents(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.stuSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *adminApi) createStudent(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.stuSvc); err != nil {
		return err
	}

	stu, err := api.stuSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *adminApi) retrieveStudent(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	details, err := api.stuSvc.Details(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "assembling student details")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *adminApi) updateStudent(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	stu, err := api.stuSvc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

// Academic record handlers

func (api *adminApi) queryAcademicRecords(ctx echo.Context) error {
	studentID, err := strconv.Atoi(ctx.QueryParam("student_id"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "a valid student_id is required"})
	}
	records, err := api.stuSvc.AcademicRecords(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying academic records")
	}
	if records == nil {
		records = []student.AcademicRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *adminApi) createAcademicRecord(ctx echo.Context) error {
	var data student.NewAcademicRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAcademicRecord")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.stuSvc.CreateAcademicRecord(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: student.ErrNotFound.Error()})
		}
		return errors.Wrap(err, "creating academic record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *adminApi) updateAcademicRecord(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data student.UpdateAcademicRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAcademicRecord")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.stuSvc.UpdateAcademicRecord(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == student.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating academic record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *adminApi) destroyAcademicRecord(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	if err := api.stuSvc.DeleteAcademicRecords(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == student.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting academic record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Transfer certificate handlers

func (api *adminApi) queryTransferCertificates(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tcs, err := api.stuSvc.AllTransferCertificates(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying transfer certificates")
	}
	if tcs == nil {
		tcs = []student.TransferCertificate{}
	}
	return ctx.JSON(http.StatusOK, tcs)
}

func (api *adminApi) processTransferCertificate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data student.ProcessTransferCertificate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProcessTransferCertificate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// the processing admin is derived from the token, never from the payload
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tc, err := api.stuSvc.ProcessTransfer(ctx.Request().Context(), id, data, claims.Username)
	if err != nil {
		switch errors.Cause(err) {
		case student.ErrTCNotFound:
			return errHttpNotFound
		case student.ErrTCAlreadyProcessed:
			return core.NewValidationError(nil, core.FieldError{Field: "status", Error: student.ErrTCAlreadyProcessed.Error()})
		}
		return errors.Wrap(err, "processing transfer certificate")
	}
	return ctx.JSON(http.StatusOK, tc)
}

func (api *adminApi) destroyTransferCertificate(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	if err := api.stuSvc.DeleteTransferCertificates(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == student.ErrTCNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting transfer certificate")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// School handlers

func (api *adminApi) querySchools(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	schools, err := api.schSvc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *adminApi) createSchool(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.schSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *adminApi) updateSchool(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.schSvc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *adminApi) destroySchool(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	if err := api.schSvc.Delete(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}
