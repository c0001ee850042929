package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/forum"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	welcomesvc "github.com/trezcool/darasa/services/welcome"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var (
	conf *core.Config
	auth *echoapi.JWTAuth

	usrRepo    user.Repository
	courseRepo course.Repository
	progRepo   progress.Repository
	forumRepo  forum.Repository

	usrSvc    *user.Service
	courseSvc *course.Service
	progSvc   *progress.Service
	forumSvc  *forum.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Darasa",
		SecretKey:        []byte("o7i(3z#$2ulrcc5=7k#^#5$@e"),
		DefaultFromEmail: "noreply@test.darasa.cd",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultCourseID:  "og-101",
		Server: core.ServerConfig{
			JWTExpirationDelta: 1 * time.Hour,
		},
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// setup builds the whole app on a fresh in-memory DB.
func setup(t *testing.T) echoapi.Server {
	conf = newTestConfig()
	logger := nopLogger{}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	progRepo = inmemdb.NewProgressRepository(db)
	forumRepo = inmemdb.NewForumRepository(db)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	welcomeSvc := welcomesvc.NewDummyService()

	courseSvc = course.NewService(courseRepo)
	progSvc = progress.NewService(progRepo)
	forumSvc = forum.NewService(forumRepo)
	usrSvc = user.NewService(usrRepo, progSvc, courseSvc, mailSvc, welcomeSvc, conf, logger)

	auth = echoapi.NewJWTAuth(conf)

	return echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			SignalShutdown: func() {},
			UserSvc:        usrSvc,
			CourseSvc:      courseSvc,
			ProgressSvc:    progSvc,
			ForumSvc:       forumSvc,
		},
	)
}

// createCourse loads a compact course tree into the current repo.
func createCourse(t *testing.T, id string) course.Course {
	now := time.Now().UTC()
	crs, err := courseRepo.CreateCourse(context.Background(), course.Course{
		ID:          id,
		Title:       "Master Oil & Gas Exploration: From Core to Crust",
		Description: "An in-depth journey into the world of oil and gas exploration.",
		CreatedAt:   now,
		UpdatedAt:   now,
		Modules: []course.Module{
			{
				ID:       "m1",
				Title:    "Module 1: Geological Fundamentals",
				Position: 1,
				Lessons: []course.Lesson{
					{
						ID:       "l1-1",
						Title:    "Introduction to Sedimentary Basins",
						VideoURL: "https://www.youtube.com/watch?v=f47_eD-0_wA",
						Position: 1,
						Resources: []course.Resource{
							{ID: "r1", Name: "Lesson 1 Script.pdf", URL: "#"},
						},
					},
					{
						ID:       "l1-2",
						Title:    "Source Rock and Hydrocarbon Generation",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 2,
						Resources: []course.Resource{
							{ID: "r2", Name: "Source Rock Data.zip", URL: "#"},
						},
					},
				},
			},
			{
				ID:       "m2",
				Title:    "Module 2: Seismic Interpretation",
				Position: 2,
				Lessons: []course.Lesson{
					{
						ID:       "l2-1",
						Title:    "Basics of Seismic Reflection",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 3,
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	cookies  []*http.Cookie
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := auth.GenerateToken(auth.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
