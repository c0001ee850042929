package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/forum"
)

type forumRepository struct {
	db *discussionTable
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *DB) *forumRepository {
	return &forumRepository{db: db.discussion}
}

func (repo *forumRepository) CreateDiscussion(_ context.Context, disc forum.Discussion) (forum.Discussion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	disc.ID = uuid.New().String()
	repo.db.table[disc.ID] = &disc
	return disc, nil
}

func (repo *forumRepository) QueryAllDiscussions(_ context.Context) ([]forum.Discussion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	discs := make([]forum.Discussion, 0, len(repo.db.table))
	for _, disc := range repo.db.table {
		discs = append(discs, *disc)
	}
	// newest first
	sort.Slice(discs, func(i, j int) bool { return discs[i].CreatedAt.After(discs[j].CreatedAt) })
	return discs, nil
}

func (repo *forumRepository) GetDiscussionByID(_ context.Context, id string) (forum.Discussion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if disc, ok := repo.db.table[id]; ok {
		return *disc, nil
	}
	return forum.Discussion{}, forum.ErrNotFound
}

func (repo *forumRepository) QueryReplies(_ context.Context, discussionID string) ([]forum.Reply, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	replies := append([]forum.Reply{}, repo.db.replies[discussionID]...)
	sort.Slice(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	return replies, nil
}

func (repo *forumRepository) CreateReply(_ context.Context, reply forum.Reply) (forum.Reply, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	disc, ok := repo.db.table[reply.DiscussionID]
	if !ok {
		return forum.Reply{}, forum.ErrNotFound
	}

	reply.ID = uuid.New().String()
	repo.db.replies[reply.DiscussionID] = append(repo.db.replies[reply.DiscussionID], reply)
	disc.ReplyCount++
	return reply, nil
}
