package forum

import (
	"context"
	"time"

	validatorlib "github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Author carries the denormalized poster identity stamped on each post.
type Author struct {
	ID        string
	Name      string
	AvatarURL string
}

type Discussion struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	ReplyCount   int       `json:"reply_count"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Reply struct {
	ID           string    `json:"id"`
	DiscussionID string    `json:"discussion_id"`
	Message      string    `json:"message"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type NewDiscussion struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (nd *NewDiscussion) Validate(ctx context.Context, validate *validatorlib.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Message = core.CleanString(nd.Message)
	return validate.StructCtx(ctx, nd)
}

type NewReply struct {
	Message string `json:"message" validate:"required"`
}

func (nr *NewReply) Validate(ctx context.Context, validate *validatorlib.Validate) error {
	nr.Message = core.CleanString(nr.Message)
	return validate.StructCtx(ctx, nr)
}
