package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db.progress}
}

func copyProgress(prog progress.StudentProgress) progress.StudentProgress {
	prog.CompletedLessons = append([]string{}, prog.CompletedLessons...)
	return prog
}

func (repo *progressRepository) GetProgress(_ context.Context, studentID, courseID string) (progress.StudentProgress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	prog, ok := repo.db.table[progressKey{studentID, courseID}]
	if !ok {
		return progress.StudentProgress{}, progress.ErrNotFound
	}
	return copyProgress(*prog), nil
}

func (repo *progressRepository) EnsureProgress(_ context.Context, studentID, courseID string) (progress.StudentProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return copyProgress(*repo.ensure(studentID, courseID)), nil
}

// ensure expects the write lock to be held.
func (repo *progressRepository) ensure(studentID, courseID string) *progress.StudentProgress {
	key := progressKey{studentID, courseID}
	if prog, ok := repo.db.table[key]; ok {
		return prog
	}
	now := time.Now().UTC()
	prog := &progress.StudentProgress{
		StudentID:        studentID,
		CourseID:         courseID,
		CompletedLessons: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	repo.db.table[key] = prog
	return prog
}

func (repo *progressRepository) AddCompletedLesson(_ context.Context, studentID, courseID, lessonID string) (progress.StudentProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prog := repo.ensure(studentID, courseID)
	if !prog.Completed(lessonID) {
		prog.CompletedLessons = append(prog.CompletedLessons, lessonID)
		prog.UpdatedAt = time.Now().UTC()
	}
	return copyProgress(*prog), nil
}
