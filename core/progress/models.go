package progress

import "time"

// StudentProgress is the per-(student, course) set of completed lessons.
// CompletedLessons is represented as a list but must stay duplicate-free;
// repositories enforce set semantics on insert.
type StudentProgress struct {
	StudentID        string    `json:"student_id"`
	CourseID         string    `json:"course_id"`
	CompletedLessons []string  `json:"completed_lessons"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// Completed reports whether lessonID is in the completed set.
func (p StudentProgress) Completed(lessonID string) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}
