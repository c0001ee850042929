package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"` // a path to the file
}

type Lesson struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	VideoURL  string      `json:"video_url"`
	Video     VideoSource `json:"video"` // derived from VideoURL, never stored
	Position  int         `json:"position"`
	Resources []Resource  `json:"resources"`
}

type Module struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Position int      `json:"position"`
	Lessons  []Lesson `json:"lessons"`
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Modules     []Module  `json:"modules"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// LessonCount counts the lessons of all modules.
func (c Course) LessonCount() int {
	var n int
	for _, mod := range c.Modules {
		n += len(mod.Lessons)
	}
	return n
}

// RenameModule contains the single mutation modules support.
type RenameModule struct {
	Title string `json:"title" validate:"required"`
}

func (rm *RenameModule) Validate(validate *validator.Validate) error {
	rm.Title = core.CleanString(rm.Title)
	return validate.Struct(rm)
}

// NewResource describes a resource to attach to a lesson. The actual file
// upload happens elsewhere; the repository only records a fresh id and a
// placeholder path.
type NewResource struct {
	Name string `json:"name" validate:"required"`
}

// UpdateLesson defines what information may be provided to modify a Lesson.
type UpdateLesson struct {
	Title             string        `json:"title" validate:"required"`
	VideoURL          string        `json:"video_url" validate:"required"`
	ResourcesToDelete []string      `json:"resources_to_delete"`
	NewResources      []NewResource `json:"new_resources" validate:"omitempty,dive"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	ul.Title = core.CleanString(ul.Title)
	ul.VideoURL = core.CleanString(ul.VideoURL)
	for i := range ul.NewResources {
		ul.NewResources[i].Name = core.CleanString(ul.NewResources[i].Name)
	}
	return validate.Struct(ul)
}
