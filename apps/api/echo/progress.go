package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
)

type progressApi struct {
	svc       *progress.Service
	courseSvc *course.Service
	validate  *validator.Validate
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *progress.Service,
	courseSvc *course.Service,
	validate *validator.Validate,
) {
	api := progressApi{
		svc:       svc,
		courseSvc: courseSvc,
		validate:  validate,
	}

	pg := g.Group("/courses/:id/progress", jwt, studentMiddleware())
	pg.GET("", api.retrieve)
	pg.POST("", api.markComplete)
}

// retrieve returns the caller's progress for the course. No record yet reads
// as zero lessons completed.
func (api *progressApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prog, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding progress record")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *progressApi) markComplete(ctx echo.Context) error {
	var data MarkCompleteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkCompleteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	courseID := ctx.Param("id")
	if exists, err := api.courseSvc.Exists(ctx.Request().Context(), courseID); err != nil {
		return errors.Wrap(err, "checking course")
	} else if !exists {
		return errHttpNotFound
	}

	prog, err := api.svc.MarkLessonComplete(ctx.Request().Context(), claims.Subject, courseID, data.LessonID)
	if err != nil {
		return errors.Wrap(err, "marking lesson complete")
	}
	return ctx.JSON(http.StatusOK, prog)
}

type MarkCompleteRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
}

func (mr *MarkCompleteRequest) Validate(validate *validator.Validate) error {
	mr.LessonID = core.CleanString(mr.LessonID)
	return validate.Struct(mr)
}
