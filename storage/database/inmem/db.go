package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/forum"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		progress   *progressTable
		discussion *discussionTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	courseTable struct {
		table map[string]*course.Course
		mutex sync.RWMutex
	}

	progressKey struct {
		studentID string
		courseID  string
	}

	progressTable struct {
		table map[progressKey]*progress.StudentProgress
		mutex sync.RWMutex
	}

	discussionTable struct {
		table   map[string]*forum.Discussion
		replies map[string][]forum.Reply
		mutex   sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		progress:   &progressTable{table: make(map[progressKey]*progress.StudentProgress)},
		discussion: &discussionTable{table: make(map[string]*forum.Discussion), replies: make(map[string][]forum.Reply)},
	}
	return db, nil
}
