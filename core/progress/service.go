package progress

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("progress record not found")

type Repository interface {
	// GetProgress returns ErrNotFound when no record exists.
	GetProgress(ctx context.Context, studentID, courseID string) (StudentProgress, error)
	// EnsureProgress creates an empty record if none exists and returns it.
	EnsureProgress(ctx context.Context, studentID, courseID string) (StudentProgress, error)
	// AddCompletedLesson adds lessonID to the completed set, creating the
	// record first if needed. Re-adding an already completed lesson is a no-op.
	AddCompletedLesson(ctx context.Context, studentID, courseID, lessonID string) (StudentProgress, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the student's progress for a course. A missing record is not an
// error; it reads as zero lessons completed.
func (svc *Service) Get(ctx context.Context, studentID, courseID string) (StudentProgress, error) {
	prog, err := svc.repo.GetProgress(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StudentProgress{
				StudentID:        studentID,
				CourseID:         courseID,
				CompletedLessons: []string{},
			}, nil
		}
		return StudentProgress{}, err
	}
	return prog, nil
}

func (svc *Service) MarkLessonComplete(ctx context.Context, studentID, courseID, lessonID string) (StudentProgress, error) {
	return svc.repo.AddCompletedLesson(ctx, studentID, courseID, lessonID)
}

// EnsureRecord creates an empty progress record for a new enrollment.
func (svc *Service) EnsureRecord(ctx context.Context, studentID, courseID string) error {
	_, err := svc.repo.EnsureProgress(ctx, studentID, courseID)
	return err
}
