package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duet-app/duet/internal/database"
	"github.com/duet-app/duet/internal/middleware"
	"github.com/duet-app/duet/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ss := store.NewSessionStore(db)
	return NewAuthHandler(store.NewProfileStore(db), ss, slog.Default()), ss
}

func doRegister(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body)))
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	h, ss := setupAuthHandler(t)

	rec := doRegister(t, h, `{"email":"ada@example.com","username":"ada","display_name":"Ada","password":"correcthorse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}

	sess, err := ss.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		t.Errorf("cookie token not backed by a session: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing email", `{"username":"ada","password":"correcthorse"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.com","username":"ada","password":"short"}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		if rec := doRegister(t, h, c.body); rec.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.want)
		}
	}
}

func TestRegisterConflicts(t *testing.T) {
	h, _ := setupAuthHandler(t)
	doRegister(t, h, `{"email":"ada@example.com","username":"ada","password":"correcthorse"}`)

	if rec := doRegister(t, h, `{"email":"ada@example.com","username":"other","password":"correcthorse"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", rec.Code)
	}
	if rec := doRegister(t, h, `{"email":"other@example.com","username":"ada","password":"correcthorse"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate username: status = %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	h, _ := setupAuthHandler(t)
	doRegister(t, h, `{"email":"ada@example.com","username":"ada","password":"correcthorse"}`)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"correcthorse"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(rec) == nil {
		t.Error("no session cookie on login")
	}

	// Email matching is case-insensitive.
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"ADA@Example.com","password":"correcthorse"}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("mixed-case email: status = %d, want 200", rec.Code)
	}
}

// Wrong password and unknown email must be indistinguishable to the caller.
func TestLoginFailuresLookAlike(t *testing.T) {
	h, _ := setupAuthHandler(t)
	doRegister(t, h, `{"email":"ada@example.com","username":"ada","password":"correcthorse"}`)

	bodies := []string{
		`{"email":"ada@example.com","password":"wrongpassword"}`,
		`{"email":"nobody@example.com","password":"whatever"}`,
	}
	var responses []string
	for _, body := range bodies {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		responses = append(responses, rec.Body.String())
	}
	if responses[0] != responses[1] {
		t.Errorf("failure bodies differ: %q vs %q", responses[0], responses[1])
	}
}
