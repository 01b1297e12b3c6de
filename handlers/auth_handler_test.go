package handlers

import (
	"net/http"
	"testing"
)

func TestRegisterLoginFlow(t *testing.T) {
	s := newTestServer(t)

	registered := s.register(t, "Alice", "alice@example.com")
	if registered.Token == "" {
		t.Fatal("Expected a token on registration")
	}

	var login authResponse
	code := s.do(t, "POST", "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	}, &login)
	if code != http.StatusOK {
		t.Fatalf("Login returned %d", code)
	}
	if login.User.ID != registered.User.ID {
		t.Errorf("Login resolved a different user: %s vs %s", login.User.ID, registered.User.ID)
	}

	// The issued token works against a protected route.
	var profile struct {
		Name string `json:"name"`
	}
	code = s.do(t, "GET", "/users/profile", login.Token, nil, &profile)
	if code != http.StatusOK {
		t.Fatalf("Profile returned %d", code)
	}
	if profile.Name != "Alice" {
		t.Errorf("Expected Alice, got %q", profile.Name)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	var errResp errorResponse
	code := s.do(t, "POST", "/auth/register", "", map[string]string{
		"name": "Alice", "email": "", "password": "password123",
	}, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", code)
	}
	if errResp.Message != "All fields are required." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@example.com")

	var errResp errorResponse
	code := s.do(t, "POST", "/auth/register", "", map[string]string{
		"name": "Clone", "email": "alice@example.com", "password": "password123",
	}, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", code)
	}
	if errResp.Message != "Email already registered." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Alice", "alice@example.com")

	var errResp errorResponse
	code := s.do(t, "POST", "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "not-the-password",
	}, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", code)
	}
	if errResp.Message != "Invalid credentials." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/users/profile"},
		{"GET", "/activities"},
		{"GET", "/notifications"},
	} {
		code := s.do(t, tc.method, tc.path, "", nil, nil)
		if code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", tc.method, tc.path, code)
		}
		code = s.do(t, tc.method, tc.path, "garbage-token", nil, nil)
		if code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: expected 401, got %d", tc.method, tc.path, code)
		}
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	s := newTestServer(t)

	var errResp errorResponse
	code := s.do(t, "POST", "/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "password123",
		"role": "admin",
	}, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown fields, got %d", code)
	}
}
