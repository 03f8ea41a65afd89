package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/assignment"
	"github.com/upskillhq/upskill/core/auth"
	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
	emailsvc "github.com/upskillhq/upskill/services/email"
	inmemdb "github.com/upskillhq/upskill/storage/database/inmem"
	testutil "github.com/upskillhq/upskill/tests"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type apiFixture struct {
	srv     Server
	usrRepo user.Repository
	crsRepo course.Repository

	admin    user.User
	manager  user.User
	employee user.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	conf := &core.Config{
		TestMode:         true,
		AppName:          "Upskill",
		FrontendBaseURL:  "http://frontend.test",
		DefaultFromEmail: "noreply@test.cd",
		Auth: core.AuthConfig{
			AccessSecret:         []byte("access-secret-for-tests"),
			RefreshSecret:        []byte("refresh-secret-for-tests"),
			AccessTokenTTL:       15 * time.Minute,
			RefreshTokenTTL:      7 * 24 * time.Hour,
			PasswordResetTimeout: 3 * 24 * time.Hour,
		},
	}

	validate := validator.New()
	enLocale := en.New()
	uniTranslator := ut.New(enLocale, enLocale)
	translator, _ := uniTranslator.GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)

	fix := &apiFixture{
		usrRepo:  usrRepo,
		crsRepo:  crsRepo,
		admin:    testutil.CreateUser(t, usrRepo, "Ada", "Admin", "admin@test.cd", "s3cret", user.RoleAdmin, true),
		manager:  testutil.CreateUser(t, usrRepo, "Mary", "Manager", "manager@test.cd", "s3cret", user.RoleManager, true),
		employee: testutil.CreateUser(t, usrRepo, "Eve", "Employee", "employee@test.cd", "s3cret", user.RoleEmployee, true),
	}
	fix.srv = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         nopLogger{},
		Validate:       validate,
		Translator:     translator,
		AuthSvc:        auth.NewService(conf, auth.NewCodec(conf), auth.NewLedger(inmemdb.NewTokenRepository(db)), usrRepo, emailsvc.NewConsoleServiceMock(conf)),
		UserSvc:        user.NewService(usrRepo),
		CourseSvc:      course.NewService(db, crsRepo),
		AssignmentSvc:  assignment.NewService(db, inmemdb.NewAssignmentRepository(db), crsRepo),
		TeamSvc:        team.NewService(inmemdb.NewTeamRepository(db)),
		DB:             okPinger{},
	})
	return fix
}

func (fix *apiFixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	fix.srv.ServeHTTP(rec, req)
	return rec
}

func (fix *apiFixture) login(t *testing.T, email string) auth.Session {
	t.Helper()

	rec := fix.request(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": email, "password": "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var sess auth.Session
	decodeBody(t, rec, &sess)
	return sess
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestAPI_home(t *testing.T) {
	fix := newAPIFixture(t)

	rec := fix.request(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET / returned %d", rec.Code)
	}
	if rec.Body.String() != "Welcome to Upskill API!" {
		t.Errorf("GET / body = %q", rec.Body.String())
	}

	rec = fix.request(t, http.MethodGet, "/health/db", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health/db returned %d", rec.Code)
	}
}

func TestAPI_auth(t *testing.T) {
	fix := newAPIFixture(t)

	t.Run("login", func(t *testing.T) {
		sess := fix.login(t, "employee@test.cd")
		if sess.Access == "" || sess.Refresh == "" {
			t.Error("login returned empty tokens")
		}
		if sess.User.Email != "employee@test.cd" {
			t.Errorf("User.Email = %s", sess.User.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "employee@test.cd", "password": "nope"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login returned %d, want 401", rec.Code)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "not-an-email"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("login returned %d, want 400", rec.Code)
		}
	})

	t.Run("me", func(t *testing.T) {
		sess := fix.login(t, "employee@test.cd")

		rec := fix.request(t, http.MethodGet, "/v1/auth/me", sess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /auth/me returned %d: %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		decodeBody(t, rec, &usr)
		if usr.ID != fix.employee.ID {
			t.Errorf("ID = %s, want %s", usr.ID, fix.employee.ID)
		}

		rec = fix.request(t, http.MethodGet, "/v1/auth/me", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("unauthenticated GET /auth/me returned %d, want 401", rec.Code)
		}
	})

	t.Run("refresh and logout", func(t *testing.T) {
		sess := fix.login(t, "employee@test.cd")

		rec := fix.request(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh": sess.Refresh})
		if rec.Code != http.StatusOK {
			t.Fatalf("refresh returned %d: %s", rec.Code, rec.Body.String())
		}
		var access AccessResponse
		decodeBody(t, rec, &access)
		if access.Access == "" {
			t.Error("refresh returned empty access token")
		}

		rec = fix.request(t, http.MethodPost, "/v1/auth/logout", "", echo.Map{"refresh": sess.Refresh})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("logout returned %d", rec.Code)
		}
		rec = fix.request(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh": sess.Refresh})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("refresh after logout returned %d, want 401", rec.Code)
		}
	})

	t.Run("password reset does not reveal accounts", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/auth/password-reset", "", echo.Map{"email": "nobody@test.cd"})
		if rec.Code != http.StatusOK {
			t.Errorf("password-reset returned %d, want 200", rec.Code)
		}
	})
}

func TestAPI_users(t *testing.T) {
	fix := newAPIFixture(t)
	adminSess := fix.login(t, "admin@test.cd")
	managerSess := fix.login(t, "manager@test.cd")
	employeeSess := fix.login(t, "employee@test.cd")

	t.Run("listing needs a manager role", func(t *testing.T) {
		rec := fix.request(t, http.MethodGet, "/v1/users", employeeSess.Access, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET /users returned %d, want 403", rec.Code)
		}

		rec = fix.request(t, http.MethodGet, "/v1/users", managerSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /users returned %d: %s", rec.Code, rec.Body.String())
		}
		var users []user.User
		decodeBody(t, rec, &users)
		if len(users) != 3 {
			t.Errorf("got %d users, want 3", len(users))
		}
	})

	t.Run("only admins mint admins", func(t *testing.T) {
		payload := echo.Map{
			"email": "new-admin@test.cd", "first_name": "New", "last_name": "Admin",
			"role": user.RoleAdmin, "password": "G0ph3r$Rule", "password_confirm": "G0ph3r$Rule",
		}
		rec := fix.request(t, http.MethodPost, "/v1/users", managerSess.Access, payload)
		if rec.Code != http.StatusForbidden {
			t.Errorf("POST /users returned %d, want 403", rec.Code)
		}
		rec = fix.request(t, http.MethodPost, "/v1/users", adminSess.Access, payload)
		if rec.Code != http.StatusCreated {
			t.Errorf("POST /users returned %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("duplicate email is a validation error", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/users", managerSess.Access, echo.Map{
			"email": "employee@test.cd", "first_name": "Copy", "last_name": "Cat",
			"password": "G0ph3r$Rule", "password_confirm": "G0ph3r$Rule",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST /users returned %d, want 400", rec.Code)
		}
	})

	t.Run("self retrieval", func(t *testing.T) {
		rec := fix.request(t, http.MethodGet, "/v1/users/"+fix.employee.ID, employeeSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET /users/:id returned %d", rec.Code)
		}

		// another user's profile reads as absent, not forbidden
		rec = fix.request(t, http.MethodGet, "/v1/users/"+fix.manager.ID, employeeSess.Access, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET /users/:id returned %d, want 404", rec.Code)
		}
	})

	t.Run("non-admins cannot self-promote", func(t *testing.T) {
		rec := fix.request(t, http.MethodPut, "/v1/users/"+fix.employee.ID, employeeSess.Access, echo.Map{"role": user.RoleAdmin})
		if rec.Code != http.StatusForbidden {
			t.Errorf("PUT /users/:id returned %d, want 403", rec.Code)
		}

		rec = fix.request(t, http.MethodPut, "/v1/users/"+fix.employee.ID, employeeSess.Access, echo.Map{"first_name": "Evelyn"})
		if rec.Code != http.StatusOK {
			t.Errorf("PUT /users/:id returned %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admins cannot delete themselves", func(t *testing.T) {
		rec := fix.request(t, http.MethodDelete, "/v1/users/"+fix.admin.ID, adminSess.Access, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("DELETE /users/:id returned %d, want 403", rec.Code)
		}
	})
}

func TestAPI_courses(t *testing.T) {
	fix := newAPIFixture(t)
	adminSess := fix.login(t, "admin@test.cd")
	managerSess := fix.login(t, "manager@test.cd")
	employeeSess := fix.login(t, "employee@test.cd")

	t.Run("employee cannot create", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/courses", employeeSess.Access, echo.Map{"title": "Go 101", "description": "intro"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("POST /courses returned %d, want 403", rec.Code)
		}
	})

	var crs course.Course
	t.Run("manager submission awaits approval", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/courses", managerSess.Access, echo.Map{"title": "Go 101", "description": "intro"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST /courses returned %d: %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &crs)
		if crs.Status != course.StatusAwaitingApproval {
			t.Errorf("Status = %s, want %s", crs.Status, course.StatusAwaitingApproval)
		}
	})

	t.Run("approvals queue", func(t *testing.T) {
		rec := fix.request(t, http.MethodGet, "/v1/approvals?status=pending", employeeSess.Access, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET /approvals returned %d, want 403", rec.Code)
		}

		rec = fix.request(t, http.MethodGet, "/v1/approvals?status=pending", adminSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /approvals returned %d: %s", rec.Code, rec.Body.String())
		}
		var approvals []course.Approval
		decodeBody(t, rec, &approvals)
		if len(approvals) != 1 {
			t.Errorf("got %d approvals, want 1", len(approvals))
		}
	})

	t.Run("publish is admin only", func(t *testing.T) {
		path := fmt.Sprintf("/v1/courses/%s/publish", crs.ID)
		rec := fix.request(t, http.MethodPost, path, managerSess.Access, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("POST %s returned %d, want 403", path, rec.Code)
		}

		rec = fix.request(t, http.MethodPost, path, adminSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("POST %s returned %d: %s", path, rec.Code, rec.Body.String())
		}
		var got course.Course
		decodeBody(t, rec, &got)
		if got.Status != course.StatusPublished {
			t.Errorf("Status = %s, want %s", got.Status, course.StatusPublished)
		}
	})

	t.Run("visibility", func(t *testing.T) {
		testutil.CreateCourse(t, fix.crsRepo, "Hidden", course.StatusDraft, fix.admin.ID)

		rec := fix.request(t, http.MethodGet, "/v1/courses", employeeSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /courses returned %d", rec.Code)
		}
		var courses []course.Course
		decodeBody(t, rec, &courses)
		if len(courses) != 1 || courses[0].ID != crs.ID {
			t.Errorf("employee sees %d courses, want only the published one", len(courses))
		}
	})
}

func TestAPI_assignments(t *testing.T) {
	fix := newAPIFixture(t)
	employeeSess := fix.login(t, "employee@test.cd")

	crs := testutil.CreateCourse(t, fix.crsRepo, "Go 101", course.StatusPublished, fix.admin.ID)

	var a assignment.Assignment
	t.Run("self-assign", func(t *testing.T) {
		rec := fix.request(t, http.MethodPost, "/v1/assignments", employeeSess.Access, echo.Map{"course_id": crs.ID})
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST /assignments returned %d: %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &a)
		if a.UserID != fix.employee.ID {
			t.Errorf("UserID = %s, want %s", a.UserID, fix.employee.ID)
		}
	})

	t.Run("progress update", func(t *testing.T) {
		path := fmt.Sprintf("/v1/assignments/%s/progress", a.ID)

		rec := fix.request(t, http.MethodPatch, path, employeeSess.Access, echo.Map{"progress_pct": 150})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("PATCH %s returned %d, want 400", path, rec.Code)
		}

		rec = fix.request(t, http.MethodPatch, path, employeeSess.Access, echo.Map{"progress_pct": 50})
		if rec.Code != http.StatusOK {
			t.Fatalf("PATCH %s returned %d: %s", path, rec.Code, rec.Body.String())
		}
		var got assignment.Assignment
		decodeBody(t, rec, &got)
		if got.Status != assignment.StatusInProgress {
			t.Errorf("Status = %s, want %s", got.Status, assignment.StatusInProgress)
		}
	})

	t.Run("history", func(t *testing.T) {
		rec := fix.request(t, http.MethodGet, fmt.Sprintf("/v1/assignments/%s/history", a.ID), employeeSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET history returned %d: %s", rec.Code, rec.Body.String())
		}
		var events []assignment.ProgressEvent
		decodeBody(t, rec, &events)
		if len(events) != 1 || events[0].ProgressPct != 50 {
			t.Errorf("events = %v, want one at 50", events)
		}
	})

	t.Run("mine", func(t *testing.T) {
		rec := fix.request(t, http.MethodGet, "/v1/assignments", employeeSess.Access, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /assignments returned %d", rec.Code)
		}
		var assignments []assignment.Assignment
		decodeBody(t, rec, &assignments)
		if len(assignments) != 1 {
			t.Errorf("got %d assignments, want 1", len(assignments))
		}
	})
}
