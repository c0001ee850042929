package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_progressApi_retrieve(t *testing.T) {
	app := setup(t)
	createCourse(t, conf.DefaultCourseID)

	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	viewModeCookie := &http.Cookie{Name: "darasa_view_mode", Value: user.RoleStudent}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student required", token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Admin previewing as student can read", token: getToken(t, admin), cookies: []*http.Cookie{viewModeCookie},
			wantCode: http.StatusOK,
			wantData: marchallObj(t, progress.StudentProgress{StudentID: admin.ID, CourseID: "og-101", CompletedLessons: []string{}}),
		},
		{
			// no record yet reads as zero lessons completed
			name: "No record yet", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, progress.StudentProgress{StudentID: student.ID, CourseID: "og-101", CompletedLessons: []string{}}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/courses/og-101/progress", tt.token)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_markComplete(t *testing.T) {
	app := setup(t)
	createCourse(t, conf.DefaultCourseID)

	admin := testutil.CreateUser(t, usrRepo, "Admin User", "admin@magellan.com", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	studentToken := getToken(t, student)
	viewModeCookie := &http.Cookie{Name: "darasa_view_mode", Value: user.RoleStudent}

	type extra struct {
		wantLessons []string
	}

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/courses/og-101/progress", body: []byte(`{"lesson_id":"l1-1"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Student required", path: "/v1/courses/og-101/progress", body: []byte(`{"lesson_id":"l1-1"}`),
			token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			// view mode only widens reads
			name: "Admin previewing as student cannot write", path: "/v1/courses/og-101/progress", body: []byte(`{"lesson_id":"l1-1"}`),
			token: getToken(t, admin), cookies: []*http.Cookie{viewModeCookie},
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Empty body", path: "/v1/courses/og-101/progress", body: []byte("{}"), token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"lesson_id": "this field is required"}),
		},
		{
			name: "Unknown course", path: "/v1/courses/lol/progress", body: []byte(`{"lesson_id":"l1-1"}`), token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "First completion creates the record", path: "/v1/courses/og-101/progress", body: []byte(`{"lesson_id":"l1-1"}`),
			token: studentToken, wantCode: http.StatusOK, extra: extra{wantLessons: []string{"l1-1"}},
		},
		{
			name: "Marking twice is idempotent", path: "/v1/courses/og-101/progress", body: []byte(`{"lesson_id":"l1-1"}`),
			token: studentToken, wantCode: http.StatusOK, extra: extra{wantLessons: []string{"l1-1"}},
		},
		{
			name: "Next lesson appends", path: "/v1/courses/og-101/progress", body: []byte(`{"lesson_id":"l1-2"}`),
			token: studentToken, wantCode: http.StatusOK, extra: extra{wantLessons: []string{"l1-1", "l1-2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var prog progress.StudentProgress
			if err := json.Unmarshal(rec.Body.Bytes(), &prog); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			if prog.StudentID != student.ID {
				t.Errorf("progress.StudentID = %v; want %v", prog.StudentID, student.ID)
			}
			if prog.CreatedAt.IsZero() {
				t.Error("expected a persisted record")
			}
			want := tt.extra.(extra).wantLessons
			if len(prog.CompletedLessons) != len(want) {
				t.Fatalf("completed lessons = %v; want %v", prog.CompletedLessons, want)
			}
			for i, id := range want {
				if prog.CompletedLessons[i] != id {
					t.Errorf("completed lessons = %v; want %v", prog.CompletedLessons, want)
				}
			}
		})
	}
}
