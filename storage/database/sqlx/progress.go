package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/progress"
)

type progressRow struct {
	StudentID        string         `db:"student_id"`
	CourseID         string         `db:"course_id"`
	CompletedLessons pq.StringArray `db:"completed_lessons"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r progressRow) progress() progress.StudentProgress {
	return progress.StudentProgress{
		StudentID:        r.StudentID,
		CourseID:         r.CourseID,
		CompletedLessons: r.CompletedLessons,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) GetProgress(ctx context.Context, studentID, courseID string) (progress.StudentProgress, error) {
	var r progressRow
	err := repo.db.GetContext(ctx, &r,
		`SELECT * FROM student_progress WHERE student_id = $1 AND course_id = $2`, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.StudentProgress{}, progress.ErrNotFound
		}
		return progress.StudentProgress{}, wrapErr(err, "finding progress record")
	}
	return r.progress(), nil
}

func (repo progressRepository) EnsureProgress(ctx context.Context, studentID, courseID string) (progress.StudentProgress, error) {
	var r progressRow
	err := repo.db.GetContext(ctx, &r,
		`INSERT INTO student_progress (student_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (student_id, course_id) DO UPDATE SET student_id = EXCLUDED.student_id
		 RETURNING *`, studentID, courseID)
	if err != nil {
		return progress.StudentProgress{}, wrapErr(err, "ensuring progress record")
	}
	return r.progress(), nil
}

// AddCompletedLesson appends lessonID unless already present. The guarded
// array_append keeps concurrent marks of the same lesson from duplicating it.
func (repo progressRepository) AddCompletedLesson(ctx context.Context, studentID, courseID, lessonID string) (progress.StudentProgress, error) {
	if _, err := repo.EnsureProgress(ctx, studentID, courseID); err != nil {
		return progress.StudentProgress{}, err
	}

	var r progressRow
	err := repo.db.GetContext(ctx, &r,
		`UPDATE student_progress
		 SET completed_lessons = CASE
		         WHEN $3 = ANY (completed_lessons) THEN completed_lessons
		         ELSE array_append(completed_lessons, $3)
		     END,
		     updated_at = NOW()
		 WHERE student_id = $1 AND course_id = $2
		 RETURNING *`, studentID, courseID, lessonID)
	if err != nil {
		return progress.StudentProgress{}, wrapErr(err, "adding completed lesson")
	}
	return r.progress(), nil
}
