package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/forum"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

// createDiscussion loads a discussion straight into the repo with a fixed
// timestamp, so list ordering is deterministic.
func createDiscussion(t *testing.T, title string, author user.User, createdAt time.Time) forum.Discussion {
	disc, err := forumRepo.CreateDiscussion(context.Background(), forum.Discussion{
		Title:      title,
		Message:    "What does everyone think?",
		AuthorID:   author.ID,
		AuthorName: author.Name,
		CreatedAt:  createdAt.UTC(),
	})
	if err != nil {
		t.Fatalf("createDiscussion() failed: %v", err)
	}
	return disc
}

func Test_forumApi_query(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	studentToken := getToken(t, student)

	req, rec := newAuthRequest(http.MethodGet, "/v1/discussions", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)

	now := time.Now()
	older := createDiscussion(t, "Porosity vs permeability", student, now.Add(-1*time.Hour))
	newer := createDiscussion(t, "Seismic homework help", student, now)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		// newest first
		{name: "Get all", token: studentToken, wantCode: http.StatusOK, wantData: marchallList(t, newer, older)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/discussions", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_forumApi_create(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	studentToken := getToken(t, student)

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{"title":"Lol","message":"Lol"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Empty body", body: []byte("{}"), token: studentToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "message": "this field is required"}),
		},
		{
			name: "Discussion created", body: []byte(`{"title":"Porosity vs permeability","message":"What does everyone think?"}`),
			token: studentToken, wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var disc forum.Discussion
			if err := json.Unmarshal(rec.Body.Bytes(), &disc); err != nil {
				t.Fatalf("json.Unmarshal(): %v", err)
			}
			if disc.ID == "" {
				t.Error("expected an id")
			}
			if disc.AuthorID != student.ID || disc.AuthorName != student.Name {
				t.Errorf("author = %v (%v); want %v (%v)", disc.AuthorName, disc.AuthorID, student.Name, student.ID)
			}
			if disc.ReplyCount != 0 {
				t.Errorf("reply_count = %d; want 0", disc.ReplyCount)
			}
			if disc.CreatedAt.IsZero() {
				t.Error("expected created_at to be set")
			}
		})
	}
}

func Test_forumApi_retrieve(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	disc := createDiscussion(t, "Porosity vs permeability", student, time.Now())

	tests := []httpTest{
		{name: "Auth required", path: "/v1/discussions/" + disc.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Unknown discussion", path: "/v1/discussions/lol", token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Get discussion", path: "/v1/discussions/" + disc.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, disc),
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

func Test_forumApi_replies(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	jane := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane.doe@example.com", "", user.RoleStudent, true)
	disc := createDiscussion(t, "Porosity vs permeability", student, time.Now())

	body := []byte(`{"message":"Porosity holds it, permeability moves it."}`)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/discussions/"+disc.ID+"/replies", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Unknown discussion", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions/lol/replies", getToken(t, jane), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})

	t.Run("Empty body", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions/"+disc.ID+"/replies", getToken(t, jane), []byte("{}"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"message": "this field is required"}),
		}, rec)
	})

	t.Run("Reply bumps the count", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions/"+disc.ID+"/replies", getToken(t, jane), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var reply forum.Reply
		if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if reply.DiscussionID != disc.ID {
			t.Errorf("reply.DiscussionID = %v; want %v", reply.DiscussionID, disc.ID)
		}
		if reply.AuthorName != jane.Name {
			t.Errorf("reply.AuthorName = %v; want %v", reply.AuthorName, jane.Name)
		}

		refreshed, err := forumSvc.GetByID(context.Background(), disc.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		if refreshed.ReplyCount != 1 {
			t.Errorf("reply_count = %d; want 1", refreshed.ReplyCount)
		}
	})

	t.Run("Replies are listed oldest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/discussions/"+disc.ID+"/replies", getToken(t, student))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var replies []forum.Reply
		if err := json.Unmarshal(rec.Body.Bytes(), &replies); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if len(replies) != 1 {
			t.Fatalf("replies = %d; want 1", len(replies))
		}
		for i := 1; i < len(replies); i++ {
			if replies[i].CreatedAt.Before(replies[i-1].CreatedAt) {
				t.Error("expected replies in chronological order")
			}
		}
	})
}

// concurrent replies must all land and the count must match exactly
func Test_forumApi_replies_concurrent(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Student User", "student@magellan.com", "", user.RoleStudent, true)
	disc := createDiscussion(t, "Porosity vs permeability", student, time.Now())
	token := getToken(t, student)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := []byte(fmt.Sprintf(`{"message":"reply %d"}`, i))
			req, rec := newAuthRequest(http.MethodPost, "/v1/discussions/"+disc.ID+"/replies", token, body)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusCreated {
				t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
			}
		}(i)
	}
	wg.Wait()

	refreshed, err := forumSvc.GetByID(context.Background(), disc.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if refreshed.ReplyCount != n {
		t.Errorf("reply_count = %d; want %d", refreshed.ReplyCount, n)
	}
	replies, err := forumSvc.QueryReplies(context.Background(), disc.ID)
	if err != nil {
		t.Fatalf("QueryReplies(): %v", err)
	}
	if len(replies) != n {
		t.Errorf("replies = %d; want %d", len(replies), n)
	}
}
