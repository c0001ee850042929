package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/forum"
	"github.com/trezcool/darasa/core/user"
)

type forumApi struct {
	svc      *forum.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerForumAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *forum.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := forumApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	fg := g.Group("/discussions", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.GET("/:id", api.retrieve)
	fg.GET("/:id/replies", api.queryReplies)
	fg.POST("/:id/replies", api.createReply)
}

// author copies the poster's identity off the User entity. Later profile
// edits do not rewrite past posts.
func (api *forumApi) author(ctx echo.Context) (forum.Author, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return forum.Author{}, errors.Wrap(err, "getting context user")
	}
	return forum.Author{
		ID:        usr.ID,
		Name:      usr.Name,
		AvatarURL: usr.AvatarURL,
	}, nil
}

func (api *forumApi) query(ctx echo.Context) error {
	discs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying discussions")
	}
	if discs == nil {
		discs = []forum.Discussion{}
	}
	return ctx.JSON(http.StatusOK, discs)
}

func (api *forumApi) create(ctx echo.Context) error {
	var data forum.NewDiscussion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDiscussion")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	author, err := api.author(ctx)
	if err != nil {
		return err
	}

	disc, err := api.svc.CreateDiscussion(ctx.Request().Context(), data, author)
	if err != nil {
		return errors.Wrap(err, "creating discussion")
	}
	return ctx.JSON(http.StatusCreated, disc)
}

func (api *forumApi) retrieve(ctx echo.Context) error {
	disc, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == forum.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding discussion")
	}
	return ctx.JSON(http.StatusOK, disc)
}

func (api *forumApi) queryReplies(ctx echo.Context) error {
	replies, err := api.svc.QueryReplies(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == forum.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying replies")
	}
	if replies == nil {
		replies = []forum.Reply{}
	}
	return ctx.JSON(http.StatusOK, replies)
}

func (api *forumApi) createReply(ctx echo.Context) error {
	var data forum.NewReply
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReply")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	author, err := api.author(ctx)
	if err != nil {
		return err
	}

	reply, err := api.svc.CreateReply(ctx.Request().Context(), ctx.Param("id"), data, author)
	if err != nil {
		if errors.Cause(err) == forum.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "creating reply")
	}
	return ctx.JSON(http.StatusCreated, reply)
}
