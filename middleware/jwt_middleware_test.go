package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) Verify(string) (string, error) {
	return s.userID, s.err
}

func protected(t *testing.T, verifier TokenVerifier) http.Handler {
	t.Helper()
	return JWTMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r.Context())
		if !ok {
			t.Error("Expected a user id in the request context")
		}
		fmt.Fprint(w, userID)
	}))
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	handler := protected(t, stubVerifier{userID: "user-1"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("Expected user-1 in body, got %q", rec.Body.String())
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	handler := protected(t, stubVerifier{userID: "user-1"})

	for _, header := range []string{"", "good-token", "Basic abc"} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestJWTMiddlewareBadToken(t *testing.T) {
	handler := protected(t, stubVerifier{err: fmt.Errorf("bad token")})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
}
