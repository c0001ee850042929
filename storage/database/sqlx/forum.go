package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/forum"
)

type (
	discussionRow struct {
		ID           string    `db:"id"`
		Title        string    `db:"title"`
		Message      string    `db:"message"`
		AuthorID     string    `db:"author_id"`
		AuthorName   string    `db:"author_name"`
		AuthorAvatar string    `db:"author_avatar"`
		ReplyCount   int       `db:"reply_count"`
		CreatedAt    time.Time `db:"created_at"`
	}

	replyRow struct {
		ID           string    `db:"id"`
		DiscussionID string    `db:"discussion_id"`
		Message      string    `db:"message"`
		AuthorID     string    `db:"author_id"`
		AuthorName   string    `db:"author_name"`
		AuthorAvatar string    `db:"author_avatar"`
		CreatedAt    time.Time `db:"created_at"`
	}
)

func (r discussionRow) discussion() forum.Discussion {
	return forum.Discussion{
		ID:           r.ID,
		Title:        r.Title,
		Message:      r.Message,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		AuthorAvatar: r.AuthorAvatar,
		ReplyCount:   r.ReplyCount,
		CreatedAt:    r.CreatedAt,
	}
}

func (r replyRow) reply() forum.Reply {
	return forum.Reply{
		ID:           r.ID,
		DiscussionID: r.DiscussionID,
		Message:      r.Message,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		AuthorAvatar: r.AuthorAvatar,
		CreatedAt:    r.CreatedAt,
	}
}

type forumRepository struct {
	db *sqlx.DB
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *sqlx.DB) *forumRepository {
	return &forumRepository{db: db}
}

func (repo forumRepository) CreateDiscussion(ctx context.Context, disc forum.Discussion) (forum.Discussion, error) {
	disc.ID = uuid.New().String()
	const query = `
		INSERT INTO discussion (id, title, message, author_id, author_name, author_avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		disc.ID, disc.Title, disc.Message, disc.AuthorID, disc.AuthorName, disc.AuthorAvatar, disc.CreatedAt.UTC())
	if err != nil {
		return forum.Discussion{}, wrapErr(err, "inserting discussion")
	}
	return disc, nil
}

func (repo forumRepository) QueryAllDiscussions(ctx context.Context) ([]forum.Discussion, error) {
	var rows []discussionRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM discussion ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapErr(err, "querying discussions")
	}
	discs := make([]forum.Discussion, 0, len(rows))
	for _, r := range rows {
		discs = append(discs, r.discussion())
	}
	return discs, nil
}

func (repo forumRepository) GetDiscussionByID(ctx context.Context, id string) (forum.Discussion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return forum.Discussion{}, forum.ErrNotFound
	}
	var r discussionRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM discussion WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return forum.Discussion{}, forum.ErrNotFound
		}
		return forum.Discussion{}, wrapErr(err, "finding discussion")
	}
	return r.discussion(), nil
}

func (repo forumRepository) QueryReplies(ctx context.Context, discussionID string) ([]forum.Reply, error) {
	var rows []replyRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM reply WHERE discussion_id = $1 ORDER BY created_at`, discussionID)
	if err != nil {
		return nil, wrapErr(err, "querying replies")
	}
	replies := make([]forum.Reply, 0, len(rows))
	for _, r := range rows {
		replies = append(replies, r.reply())
	}
	return replies, nil
}

// CreateReply inserts the reply and bumps the parent's reply_count in one
// transaction so the counter can never drift from the reply rows.
func (repo forumRepository) CreateReply(ctx context.Context, reply forum.Reply) (forum.Reply, error) {
	if _, err := uuid.Parse(reply.DiscussionID); err != nil {
		return forum.Reply{}, forum.ErrNotFound
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return forum.Reply{}, wrapErr(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// bumping the count first also locks the parent row and proves it exists
	res, err := tx.ExecContext(ctx, `UPDATE discussion SET reply_count = reply_count + 1 WHERE id = $1`, reply.DiscussionID)
	if err != nil {
		return forum.Reply{}, wrapErr(err, "updating reply count")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forum.Reply{}, forum.ErrNotFound
	}

	reply.ID = uuid.New().String()
	const insert = `
		INSERT INTO reply (id, discussion_id, message, author_id, author_name, author_avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, insert,
		reply.ID, reply.DiscussionID, reply.Message, reply.AuthorID, reply.AuthorName, reply.AuthorAvatar, reply.CreatedAt.UTC())
	if err != nil {
		return forum.Reply{}, wrapErr(err, "inserting reply")
	}

	if err = tx.Commit(); err != nil {
		return forum.Reply{}, wrapErr(err, "committing reply")
	}
	return reply, nil
}
