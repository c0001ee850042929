package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
)

type courseApi struct {
	svc         *course.Service
	progressSvc *progress.Service
	validate    *validator.Validate
}

// CourseDetail is a course with the caller's completion summary attached.
type CourseDetail struct {
	course.Course
	LessonCount    int `json:"lesson_count"`
	CompletedCount int `json:"completed_count"`
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, progressSvc *progress.Service, validate *validator.Validate) {
	api := courseApi{
		svc:         svc,
		progressSvc: progressSvc,
		validate:    validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("/:id", api.retrieve)

	// admin-only structure edits
	cg.PUT("/:id/modules/:moduleID", api.renameModule, adminMiddleware())
	cg.PUT("/:id/lessons/:lessonID", api.updateLesson, adminMiddleware())
}

// retrieve returns the course with the caller's completion summary.
func (api *courseApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course")
	}

	prog, err := api.progressSvc.Get(ctx.Request().Context(), claims.Subject, crs.ID)
	if err != nil {
		return errors.Wrap(err, "finding progress record")
	}

	// count only completions that still point at a lesson in the course
	completed := 0
	for _, mod := range crs.Modules {
		for _, lsn := range mod.Lessons {
			if prog.Completed(lsn.ID) {
				completed++
			}
		}
	}
	return ctx.JSON(http.StatusOK, CourseDetail{
		Course:         crs,
		LessonCount:    crs.LessonCount(),
		CompletedCount: completed,
	})
}

func (api *courseApi) renameModule(ctx echo.Context) error {
	var data course.RenameModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RenameModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.RenameModule(ctx.Request().Context(), ctx.Param("id"), ctx.Param("moduleID"), data)
	if err != nil {
		switch errors.Cause(err) {
		case course.ErrNotFound, course.ErrModuleNotFound:
			return errHttpNotFound
		}
		return errors.Wrap(err, "renaming module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	var data course.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lsn, err := api.svc.UpdateLesson(ctx.Request().Context(), ctx.Param("id"), ctx.Param("lessonID"), data)
	if err != nil {
		switch errors.Cause(err) {
		case course.ErrNotFound, course.ErrLessonNotFound:
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}
