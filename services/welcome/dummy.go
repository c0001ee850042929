package welcomesvc

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core"
)

// dummyService produces a deterministic message without calling any API.
// Used in dev and tests.
type dummyService struct{}

var _ core.WelcomeService = (*dummyService)(nil)

func NewDummyService() core.WelcomeService {
	return &dummyService{}
}

func (svc dummyService) Generate(_ context.Context, in core.WelcomeInput) (string, error) {
	msg := fmt.Sprintf("Welcome aboard, %s! We are thrilled to have you join %s.", in.StudentName, in.CourseName)
	if in.LearningInterests != "" {
		msg += fmt.Sprintf(" Since you are interested in %s, you will feel right at home here.", in.LearningInterests)
	}
	msg += " Dive into your first lesson whenever you are ready. Happy learning!"
	return msg, nil
}

// failingService always errors. Used in tests to exercise the best-effort
// welcome path.
type failingService struct{}

var _ core.WelcomeService = (*failingService)(nil)

func NewFailingService() core.WelcomeService {
	return &failingService{}
}

func (svc failingService) Generate(context.Context, core.WelcomeInput) (string, error) {
	return "", fmt.Errorf("welcome generation unavailable")
}
