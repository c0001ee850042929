package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
)

type (
	courseRow struct {
		ID          string    `db:"id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	moduleRow struct {
		ID       string `db:"id"`
		CourseID string `db:"course_id"`
		Title    string `db:"title"`
		Position int    `db:"position"`
	}

	lessonRow struct {
		ID       string `db:"id"`
		ModuleID string `db:"module_id"`
		Title    string `db:"title"`
		VideoURL string `db:"video_url"`
		Position int    `db:"position"`
	}

	resourceRow struct {
		ID       string `db:"id"`
		LessonID string `db:"lesson_id"`
		Name     string `db:"name"`
		URL      string `db:"url"`
	}
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// CreateCourse inserts the whole course tree in one transaction.
func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return course.Course{}, wrapErr(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO course (id, title, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		crs.ID, crs.Title, crs.Description, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC())
	if err != nil {
		return course.Course{}, wrapErr(err, "inserting course")
	}

	for _, mod := range crs.Modules {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO module (id, course_id, title, position) VALUES ($1, $2, $3, $4)`,
			mod.ID, crs.ID, mod.Title, mod.Position)
		if err != nil {
			return course.Course{}, wrapErr(err, "inserting module")
		}
		for _, lsn := range mod.Lessons {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO lesson (id, module_id, title, video_url, position) VALUES ($1, $2, $3, $4, $5)`,
				lsn.ID, mod.ID, lsn.Title, lsn.VideoURL, lsn.Position)
			if err != nil {
				return course.Course{}, wrapErr(err, "inserting lesson")
			}
			for _, res := range lsn.Resources {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO resource (id, lesson_id, name, url) VALUES ($1, $2, $3, $4)`,
					res.ID, lsn.ID, res.Name, res.URL)
				if err != nil {
					return course.Course{}, wrapErr(err, "inserting resource")
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return course.Course{}, wrapErr(err, "committing course")
	}
	return crs, nil
}

func (repo courseRepository) CourseExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM course WHERE id = $1)`, id)
	if err != nil {
		return false, wrapErr(err, "checking course")
	}
	return exists, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var cRow courseRow
	if err := repo.db.GetContext(ctx, &cRow, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, wrapErr(err, "finding course")
	}

	var modRows []moduleRow
	err := repo.db.SelectContext(ctx, &modRows,
		`SELECT * FROM module WHERE course_id = $1 ORDER BY position`, id)
	if err != nil {
		return course.Course{}, wrapErr(err, "querying modules")
	}

	var lsnRows []lessonRow
	err = repo.db.SelectContext(ctx, &lsnRows,
		`SELECT l.* FROM lesson l JOIN module m ON m.id = l.module_id WHERE m.course_id = $1 ORDER BY l.position`, id)
	if err != nil {
		return course.Course{}, wrapErr(err, "querying lessons")
	}

	var resRows []resourceRow
	err = repo.db.SelectContext(ctx, &resRows,
		`SELECT r.* FROM resource r
		 JOIN lesson l ON l.id = r.lesson_id
		 JOIN module m ON m.id = l.module_id
		 WHERE m.course_id = $1 ORDER BY r.name`, id)
	if err != nil {
		return course.Course{}, wrapErr(err, "querying resources")
	}

	return assembleCourse(cRow, modRows, lsnRows, resRows), nil
}

func assembleCourse(cRow courseRow, modRows []moduleRow, lsnRows []lessonRow, resRows []resourceRow) course.Course {
	resByLesson := make(map[string][]course.Resource)
	for _, r := range resRows {
		resByLesson[r.LessonID] = append(resByLesson[r.LessonID], course.Resource{ID: r.ID, Name: r.Name, URL: r.URL})
	}
	lsnsByModule := make(map[string][]course.Lesson)
	for _, l := range lsnRows {
		lsnsByModule[l.ModuleID] = append(lsnsByModule[l.ModuleID], course.Lesson{
			ID:        l.ID,
			Title:     l.Title,
			VideoURL:  l.VideoURL,
			Position:  l.Position,
			Resources: resByLesson[l.ID],
		})
	}

	crs := course.Course{
		ID:          cRow.ID,
		Title:       cRow.Title,
		Description: cRow.Description,
		CreatedAt:   cRow.CreatedAt,
		UpdatedAt:   cRow.UpdatedAt,
		Modules:     make([]course.Module, 0, len(modRows)),
	}
	for _, m := range modRows {
		crs.Modules = append(crs.Modules, course.Module{
			ID:       m.ID,
			Title:    m.Title,
			Position: m.Position,
			Lessons:  lsnsByModule[m.ID],
		})
	}
	return crs
}

func (repo courseRepository) RenameModule(ctx context.Context, courseID, moduleID, title string) (course.Module, error) {
	var mRow moduleRow
	err := repo.db.GetContext(ctx, &mRow,
		`UPDATE module SET title = $3 WHERE id = $2 AND course_id = $1 RETURNING *`, courseID, moduleID, title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, wrapErr(err, "renaming module")
	}

	mod := course.Module{ID: mRow.ID, Title: mRow.Title, Position: mRow.Position}
	var lsnRows []lessonRow
	err = repo.db.SelectContext(ctx, &lsnRows,
		`SELECT * FROM lesson WHERE module_id = $1 ORDER BY position`, mod.ID)
	if err != nil {
		return course.Module{}, wrapErr(err, "querying lessons")
	}
	for _, l := range lsnRows {
		mod.Lessons = append(mod.Lessons, course.Lesson{
			ID:       l.ID,
			Title:    l.Title,
			VideoURL: l.VideoURL,
			Position: l.Position,
		})
	}
	return mod, nil
}

// UpdateLesson applies the title, video and resource changes atomically.
// Nothing is written when the lesson does not belong to courseID.
func (repo courseRepository) UpdateLesson(ctx context.Context, courseID, lessonID string, changes course.LessonChanges) (course.Lesson, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return course.Lesson{}, wrapErr(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var lRow lessonRow
	err = tx.GetContext(ctx, &lRow,
		`UPDATE lesson SET title = $3, video_url = $4
		 WHERE id = $2 AND module_id IN (SELECT id FROM module WHERE course_id = $1)
		 RETURNING *`, courseID, lessonID, changes.Title, changes.VideoURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Lesson{}, course.ErrLessonNotFound
		}
		return course.Lesson{}, wrapErr(err, "updating lesson")
	}

	if len(changes.DeleteResourceIDs) > 0 {
		query, args, inErr := sqlx.In(`DELETE FROM resource WHERE lesson_id = ? AND id IN (?)`, lessonID, changes.DeleteResourceIDs)
		if inErr != nil {
			return course.Lesson{}, errors.Wrap(inErr, "deleting resources")
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return course.Lesson{}, wrapErr(err, "deleting resources")
		}
	}
	for _, res := range changes.AddResources {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO resource (id, lesson_id, name, url) VALUES ($1, $2, $3, $4)`,
			res.ID, lessonID, res.Name, res.URL)
		if err != nil {
			return course.Lesson{}, wrapErr(err, "inserting resource")
		}
	}

	var resRows []resourceRow
	err = tx.SelectContext(ctx, &resRows, `SELECT * FROM resource WHERE lesson_id = $1 ORDER BY name`, lessonID)
	if err != nil {
		return course.Lesson{}, wrapErr(err, "querying resources")
	}

	if err = tx.Commit(); err != nil {
		return course.Lesson{}, wrapErr(err, "committing lesson update")
	}

	lsn := course.Lesson{
		ID:       lRow.ID,
		Title:    lRow.Title,
		VideoURL: lRow.VideoURL,
		Position: lRow.Position,
	}
	for _, r := range resRows {
		lsn.Resources = append(lsn.Resources, course.Resource{ID: r.ID, Name: r.Name, URL: r.URL})
	}
	return lsn, nil
}
