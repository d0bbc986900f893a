package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/shule/core/student"
)

// adminMiddleware only lets authenticated administrators through.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// studentScopeMiddleware guards `/students/:id` detail routes: an admin may
// address any student; a student-role caller only their own id. The resolved
// Student is attached to the context for the handlers. An ownership mismatch
// answers with the same not-found as a nonexistent student.
func studentScopeMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			if claims.IsAdmin() || (claims.IsStudent() && ctx.Param("id") == claims.Subject) {
				id, err := strconv.Atoi(ctx.Param("id"))
				if err != nil {
					return errHttpNotFound
				}
				if stu, err := svc.GetByID(ctx.Request().Context(), id); err == nil {
					ctx.Set(contextStudentKey, stu)
					return next(ctx)
				} else if errors.Cause(err) != student.ErrNotFound {
					return errors.Wrap(err, "finding student by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	if stu, ok := ctx.Get(contextStudentKey).(student.Student); ok {
		return stu, nil
	}
	return student.Student{}, errors.New("student object not found in echo.Context")
}
