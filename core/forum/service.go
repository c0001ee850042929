package forum

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("discussion not found")

type Repository interface {
	CreateDiscussion(ctx context.Context, disc Discussion) (Discussion, error)
	// QueryAllDiscussions returns discussions newest first.
	QueryAllDiscussions(ctx context.Context) ([]Discussion, error)
	GetDiscussionByID(ctx context.Context, id string) (Discussion, error)
	// QueryReplies returns the discussion's replies oldest first.
	QueryReplies(ctx context.Context, discussionID string) ([]Reply, error)
	// CreateReply persists the reply and bumps the parent discussion's
	// reply count atomically. Returns ErrNotFound for a missing parent.
	CreateReply(ctx context.Context, reply Reply) (Reply, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateDiscussion(ctx context.Context, nd NewDiscussion, author Author) (Discussion, error) {
	disc := Discussion{
		Title:        nd.Title,
		Message:      nd.Message,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorAvatar: author.AvatarURL,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateDiscussion(ctx, disc)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Discussion, error) {
	return svc.repo.QueryAllDiscussions(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Discussion, error) {
	return svc.repo.GetDiscussionByID(ctx, id)
}

func (svc *Service) QueryReplies(ctx context.Context, discussionID string) ([]Reply, error) {
	if _, err := svc.repo.GetDiscussionByID(ctx, discussionID); err != nil {
		return nil, err
	}
	return svc.repo.QueryReplies(ctx, discussionID)
}

func (svc *Service) CreateReply(ctx context.Context, discussionID string, nr NewReply, author Author) (Reply, error) {
	reply := Reply{
		DiscussionID: discussionID,
		Message:      nr.Message,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		AuthorAvatar: author.AvatarURL,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateReply(ctx, reply)
}
