package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

// clone deep-copies so callers can never mutate stored state through
// returned slices.
func clone(crs course.Course) course.Course {
	cp := crs
	cp.Modules = make([]course.Module, len(crs.Modules))
	for i, mod := range crs.Modules {
		modCp := mod
		modCp.Lessons = make([]course.Lesson, len(mod.Lessons))
		for j, lsn := range mod.Lessons {
			lsnCp := lsn
			lsnCp.Resources = append([]course.Resource(nil), lsn.Resources...)
			modCp.Lessons[j] = lsnCp
		}
		cp.Modules[i] = modCp
	}
	return cp
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cp := clone(crs)
	repo.db.table[crs.ID] = &cp
	return crs, nil
}

func (repo *courseRepository) CourseExists(_ context.Context, id string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.table[id]
	return ok, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	crs, ok := repo.db.table[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return clone(*crs), nil
}

func (repo *courseRepository) RenameModule(_ context.Context, courseID, moduleID, title string) (course.Module, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs, ok := repo.db.table[courseID]
	if !ok {
		return course.Module{}, course.ErrModuleNotFound
	}
	for i := range crs.Modules {
		if crs.Modules[i].ID == moduleID {
			crs.Modules[i].Title = title
			return clone(*crs).Modules[i], nil
		}
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) UpdateLesson(_ context.Context, courseID, lessonID string, changes course.LessonChanges) (course.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs, ok := repo.db.table[courseID]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	for i := range crs.Modules {
		for j := range crs.Modules[i].Lessons {
			lsn := &crs.Modules[i].Lessons[j]
			if lsn.ID != lessonID {
				continue
			}

			lsn.Title = changes.Title
			lsn.VideoURL = changes.VideoURL

			deleted := make(map[string]struct{}, len(changes.DeleteResourceIDs))
			for _, id := range changes.DeleteResourceIDs {
				deleted[id] = struct{}{}
			}
			kept := make([]course.Resource, 0, len(lsn.Resources)+len(changes.AddResources))
			for _, res := range lsn.Resources {
				if _, del := deleted[res.ID]; !del {
					kept = append(kept, res)
				}
			}
			lsn.Resources = append(kept, changes.AddResources...)

			return clone(*crs).Modules[i].Lessons[j], nil
		}
	}
	return course.Lesson{}, course.ErrLessonNotFound
}
