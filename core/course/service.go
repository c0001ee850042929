package course

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

type (
	// LessonChanges is the fully-resolved mutation the repository applies to a
	// lesson in one transaction: new resources arrive with their ids already
	// minted.
	LessonChanges struct {
		Title             string
		VideoURL          string
		DeleteResourceIDs []string
		AddResources      []Resource
	}

	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		CourseExists(ctx context.Context, id string) (bool, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		RenameModule(ctx context.Context, courseID, moduleID, title string) (Module, error)
		UpdateLesson(ctx context.Context, courseID, lessonID string, changes LessonChanges) (Lesson, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create persists a whole course tree. Only the seeding path uses it.
func (svc *Service) Create(ctx context.Context, crs Course) (Course, error) {
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) Exists(ctx context.Context, id string) (bool, error) {
	return svc.repo.CourseExists(ctx, id)
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	for i := range crs.Modules {
		for j := range crs.Modules[i].Lessons {
			lsn := &crs.Modules[i].Lessons[j]
			lsn.Video = ResolveVideoSource(lsn.VideoURL)
		}
	}
	return crs, nil
}

func (svc *Service) GetCourseTitle(ctx context.Context, id string) (string, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return "", err
	}
	return crs.Title, nil
}

func (svc *Service) RenameModule(ctx context.Context, courseID, moduleID string, rm RenameModule) (Module, error) {
	return svc.repo.RenameModule(ctx, courseID, moduleID, rm.Title)
}

func (svc *Service) UpdateLesson(ctx context.Context, courseID, lessonID string, ul UpdateLesson) (Lesson, error) {
	changes := LessonChanges{
		Title:             ul.Title,
		VideoURL:          ul.VideoURL,
		DeleteResourceIDs: ul.ResourcesToDelete,
	}
	for _, nr := range ul.NewResources {
		id := uuid.New().String()
		changes.AddResources = append(changes.AddResources, Resource{
			ID:   id,
			Name: nr.Name,
			URL:  "/uploads/" + id, // the upload pipeline fills this in later
		})
	}

	lsn, err := svc.repo.UpdateLesson(ctx, courseID, lessonID, changes)
	if err != nil {
		return Lesson{}, err
	}
	lsn.Video = ResolveVideoSource(lsn.VideoURL)
	return lsn, nil
}
