package core

import "context"

// WelcomeInput is the information the welcome-message generator needs
// about a newly registered student. All fields are required.
type WelcomeInput struct {
	StudentName       string
	CourseName        string
	RegistrationDate  string // YYYY-MM-DD
	LearningInterests string
}

// WelcomeService generates a personalized welcome message for a new student.
// Implementations call out to a hosted model; callers must treat failures as
// non-fatal (account creation never depends on this call succeeding).
type WelcomeService interface {
	Generate(ctx context.Context, in WelcomeInput) (string, error)
}
