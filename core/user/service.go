package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	// Enroller creates the per-course progress record for a new student.
	Enroller interface {
		EnsureRecord(ctx context.Context, studentID, courseID string) error
	}

	// CourseDirectory resolves course titles for the welcome flow.
	CourseDirectory interface {
		GetCourseTitle(ctx context.Context, courseID string) (string, error)
	}

	Service struct {
		repo       Repository
		enroller   Enroller
		courseDir  CourseDirectory
		mailSvc    core.EmailService
		welcomeSvc core.WelcomeService
		conf       *core.Config
		logger     core.Logger
	}
)

func NewService(
	repo Repository,
	enroller Enroller,
	courseDir CourseDirectory,
	mailSvc core.EmailService,
	welcomeSvc core.WelcomeService,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		enroller:   enroller,
		courseDir:  courseDir,
		mailSvc:    mailSvc,
		welcomeSvc: welcomeSvc,
		conf:       conf,
		logger:     logger,
	}
}

func (svc *Service) checkEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create persists a new user. Used directly for admin accounts;
// students go through CreateStudent.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:              nu.Name,
		Email:             nu.Email,
		Role:              nu.Role,
		AvatarURL:         nu.AvatarURL,
		LearningInterests: nu.LearningInterests,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// CreateStudent persists a new student account, enrolls it in the default
// course with an empty progress record, then generates and emails a
// personalized welcome message. The welcome step is best-effort: the account
// exists by the time it runs, so its failure is logged and never surfaced as
// a creation failure. The generated message (empty on failure) is returned
// for the caller to display.
func (svc *Service) CreateStudent(ctx context.Context, nu NewUser) (User, string, error) {
	nu.Role = RoleStudent
	usr, err := svc.Create(ctx, nu)
	if err != nil {
		return User{}, "", err
	}

	if err = svc.enroller.EnsureRecord(ctx, usr.ID, svc.conf.DefaultCourseID); err != nil {
		return User{}, "", errors.Wrap(err, "creating progress record")
	}

	return usr, svc.sendWelcome(ctx, usr), nil
}

func (svc *Service) sendWelcome(ctx context.Context, usr User) string {
	courseTitle, err := svc.courseDir.GetCourseTitle(ctx, svc.conf.DefaultCourseID)
	if err != nil {
		svc.logger.Error("resolving course title for welcome message", err, usr)
		return ""
	}

	msg, err := svc.welcomeSvc.Generate(ctx, core.WelcomeInput{
		StudentName:       usr.Name,
		CourseName:        courseTitle,
		RegistrationDate:  usr.CreatedAt.Format("2006-01-02"),
		LearningInterests: usr.LearningInterests,
	})
	if err != nil {
		svc.logger.Error("generating welcome message", err, usr)
		return ""
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Welcome to %s!", courseTitle),
		TemplateName: "welcome",
		TemplateData: struct{ StudentName, Message string }{usr.Name, msg},
	})
	return msg
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:                id,
		Name:              uu.Name,
		Email:             uu.Email,
		AvatarURL:         uu.AvatarURL,
		LearningInterests: uu.LearningInterests,
		UpdatedAt:         time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	return svc.repo.SetLastLogin(ctx, usr)
}
