package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	welcomesvc "github.com/trezcool/darasa/services/welcome"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "password123", user.RoleStudent, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog@test.cd", "password123", user.RoleStudent, false) // 😂

	fieldsRequired := map[string]string{"email": "this field is required", "password": "this field is required"}

	tests := []httpTest{
		{name: "Empty body", body: []byte("{}"), wantCode: http.StatusBadRequest, wantData: marchallObj(t, fieldsRequired)},
		{
			name: "Invalid email", body: []byte(`{"email":"lol","password":"password123"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "Unknown email", body: []byte(`{"email":"lol@test.cd","password":"password123"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "Wrong password", body: []byte(`{"email":"student@magellan.com","password":"lol"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "Deactivated account", body: []byte(`{"email":"ndog@test.cd","password":"password123"}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "Login successful", body: []byte(`{"email":"student@magellan.com","password":"password123"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp echoapi.LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token")
			}
			if resp.User.ID != student.ID {
				t.Errorf("user.ID = %v; want %v", resp.User.ID, student.ID)
			}
			if resp.User.LastLogin.IsZero() {
				t.Error("expected last_login to be set")
			}

			var sessionCookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == "darasa_session" {
					sessionCookie = c
				}
			}
			if sessionCookie == nil || sessionCookie.Value != resp.Token {
				t.Error("expected the session cookie to carry the token")
			}
		})
	}
}

func Test_userApi_userMe(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Me", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_sessionCookieAuth(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)

	// no Authorization header; the JWT rides in the session cookie
	req, rec := newRequest(http.MethodGet, "/v1/users/me")
	req.AddCookie(&http.Cookie{Name: "darasa_session", Value: getToken(t, student)})
	app.ServeHTTP(rec, req)

	tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, student)}
	checkCodeAndData(t, tt, rec)
}

func Test_userApi_userCreate(t *testing.T) {
	app := setup(t)
	createCourse(t, conf.DefaultCourseID)

	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	adminToken := getToken(t, admin)

	newUserBody := []byte(`{
		"name": "Jane Doe",
		"email": "jane.doe@example.com",
		"password": "password123",
		"password_confirm": "password123",
		"learning_interests": "seismic interpretation"
	}`)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Empty body", token: adminToken, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":             "this field is required",
				"email":            "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			}),
		},
		{name: "Student created", token: adminToken, body: newUserBody, wantCode: http.StatusCreated},
		{
			name: "Duplicate email", token: adminToken, body: newUserBody, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp echoapi.CreateStudentResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			if !resp.User.IsStudent() {
				t.Errorf("user.Role = %v; want %v", resp.User.Role, user.RoleStudent)
			}
			if !resp.User.IsActive {
				t.Error("expected an active account")
			}
			if !strings.Contains(resp.WelcomeMessage, "Jane Doe") {
				t.Errorf("unexpected welcome message: %q", resp.WelcomeMessage)
			}

			// an empty progress record is created right away
			prog, err := progSvc.Get(context.Background(), resp.User.ID, conf.DefaultCourseID)
			if err != nil {
				t.Fatalf("progSvc.Get(): %v", err)
			}
			if len(prog.CompletedLessons) != 0 {
				t.Errorf("completed lessons = %v; want none", prog.CompletedLessons)
			}

			// the welcome email went out
			if n := len(emailsvc.SentMessages); n != 1 {
				t.Fatalf("sent messages = %d; want 1", n)
			}
			msg := emailsvc.SentMessages[0]
			if msg.To[0].Address != "jane.doe@example.com" {
				t.Errorf("email recipient = %v", msg.To[0].Address)
			}
			if !strings.Contains(msg.Subject, "Welcome to") {
				t.Errorf("email subject = %q", msg.Subject)
			}
		})
	}
}

// a welcome generation failure must never fail account creation
func Test_userApi_userCreate_welcomeFailure(t *testing.T) {
	setup(t)
	createCourse(t, conf.DefaultCourseID)

	svc := user.NewService(
		usrRepo, progSvc, courseSvc,
		emailsvc.NewConsoleServiceMock(conf), welcomesvc.NewFailingService(),
		conf, nopLogger{},
	)

	usr, msg, err := svc.CreateStudent(context.Background(), user.NewUser{
		Name:            "Jane Doe",
		Email:           "jane.doe@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
		Role:            user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	if msg != "" {
		t.Errorf("welcome message = %q; want empty", msg)
	}
	if _, err = usrRepo.GetUserByID(context.Background(), usr.ID); err != nil {
		t.Errorf("GetUserByID(): %v", err)
	}
	if _, err = progRepo.GetProgress(context.Background(), usr.ID, conf.DefaultCourseID); err != nil {
		t.Errorf("GetProgress(): %v", err)
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	// the admin signs up last so creation order cannot masquerade as the
	// expected listing order: admins first, then students by name
	now := time.Now()
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true, now)
	jane := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane.doe@example.com", "", user.RoleStudent, true, now.Add(1*time.Hour))
	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true, now.Add(2*time.Hour))

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Admins first then students by name", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, admin, jane, student)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRetrieve(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	jane := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane.doe@example.com", "", user.RoleStudent, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Own account", path: "/v1/users/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "Someone else's account hidden", path: "/v1/users/" + jane.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Admin can get any account", path: "/v1/users/" + jane.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, jane),
		},
		{
			name: "Unknown account", path: "/v1/users/lol", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userUpdate(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)

	type extra struct {
		wantName     string
		wantIsActive bool
	}

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/users/" + student.ID, body: []byte(`{"name":"Lol"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Own name updated", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body: []byte(`{"name":"Better Student"}`), wantCode: http.StatusOK,
			extra: extra{wantName: "Better Student", wantIsActive: true},
		},
		{
			name: "is_active is admin-only", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body: []byte(`{"is_active":false}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "email is admin-only", path: "/v1/users/" + student.ID, token: getToken(t, student),
			body: []byte(`{"email":"better@magellan.com"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Admin deactivates account", path: "/v1/users/" + student.ID, token: getToken(t, admin),
			body: []byte(`{"is_active":false}`), wantCode: http.StatusOK,
			extra: extra{wantName: "Better Student", wantIsActive: false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var usr user.User
			if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			want := tt.extra.(extra)
			if usr.Name != want.wantName {
				t.Errorf("user.Name = %q; want %q", usr.Name, want.wantName)
			}
			if usr.IsActive != want.wantIsActive {
				t.Errorf("user.IsActive = %v; want %v", usr.IsActive, want.wantIsActive)
			}
		})
	}
}

func Test_userApi_viewMode(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student), body: []byte(`{"mode":"student"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Unknown mode", token: getToken(t, admin), body: []byte(`{"mode":"lol"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"mode": "invalid role"}),
		},
		{
			name: "Student view mode set", token: getToken(t, admin), body: []byte(`{"mode":"student"}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "view mode set to student"}),
		},
		{
			name: "Back to admin mode", token: getToken(t, admin), body: []byte(`{"mode":"admin"}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "view mode set to admin"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/view-mode", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "Student view mode set" {
				var found bool
				for _, c := range rec.Result().Cookies() {
					if c.Name == "darasa_view_mode" && c.Value == user.RoleStudent {
						found = true
					}
				}
				if !found {
					t.Error("expected the view mode cookie to be set")
				}
			}
		})
	}
}

func Test_userApi_logout(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/logout", getToken(t, student))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "darasa_session" && c.MaxAge != -1 {
			t.Error("expected the session cookie to be cleared")
		}
	}
}
