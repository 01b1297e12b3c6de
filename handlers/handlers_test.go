package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"travelbuddy-server/middleware"
	"travelbuddy-server/realtime"
	"travelbuddy-server/services"
	"travelbuddy-server/store"
)

// testServer wires the full REST surface against in-memory stores.
type testServer struct {
	router *mux.Router
	hub    *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities()
	chats := store.NewMemoryChats()
	notifications := store.NewMemoryNotifications()

	hub := realtime.NewHub()
	tokenService := services.NewTokenService("test-secret")
	notificationService := services.NewNotificationService(notifications, hub)
	userService := services.NewUserService(users, notificationService, tokenService, redisClient)
	geoService := services.NewGeoService(users, redisClient)
	activityService := services.NewActivityService(activities, users, notificationService)
	chatService := services.NewChatService(chats, activities, users)

	authHandler := NewAuthHandler(userService)
	userHandler := NewUserHandler(userService, geoService)
	activityHandler := NewActivityHandler(activityService)
	chatHandler := NewChatHandler(chatService, hub)
	notificationHandler := NewNotificationHandler(notificationService)

	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware())

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST")

	userRouter := r.PathPrefix("/users").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(tokenService))
	userRouter.HandleFunc("/profile", userHandler.GetProfile).Methods("GET")
	userRouter.HandleFunc("/profile", userHandler.UpdateProfile).Methods("PUT")
	userRouter.HandleFunc("/search", userHandler.Search).Methods("GET")
	userRouter.HandleFunc("/nearby", userHandler.Nearby).Methods("GET")
	userRouter.HandleFunc("/ping", userHandler.PingLocation).Methods("POST")
	userRouter.HandleFunc("/{id}", userHandler.GetUser).Methods("GET")
	userRouter.HandleFunc("/{id}/follow", userHandler.Follow).Methods("POST")
	userRouter.HandleFunc("/{id}/follow", userHandler.Unfollow).Methods("DELETE")

	activityRouter := r.PathPrefix("/activities").Subrouter()
	activityRouter.Use(middleware.JWTMiddleware(tokenService))
	activityRouter.HandleFunc("", activityHandler.Create).Methods("POST")
	activityRouter.HandleFunc("", activityHandler.List).Methods("GET")
	activityRouter.HandleFunc("/categories", activityHandler.Categories).Methods("GET")
	activityRouter.HandleFunc("/{id}", activityHandler.Get).Methods("GET")
	activityRouter.HandleFunc("/{id}", activityHandler.Update).Methods("PUT")
	activityRouter.HandleFunc("/{id}", activityHandler.Delete).Methods("DELETE")
	activityRouter.HandleFunc("/{id}/join", activityHandler.Join).Methods("POST")
	activityRouter.HandleFunc("/{id}/leave", activityHandler.Leave).Methods("POST")
	activityRouter.HandleFunc("/{id}/chat", chatHandler.History).Methods("GET")
	activityRouter.HandleFunc("/{id}/chat", chatHandler.Post).Methods("POST")

	notificationRouter := r.PathPrefix("/notifications").Subrouter()
	notificationRouter.Use(middleware.JWTMiddleware(tokenService))
	notificationRouter.HandleFunc("", notificationHandler.List).Methods("GET")
	notificationRouter.HandleFunc("/unread-count", notificationHandler.UnreadCount).Methods("GET")
	notificationRouter.HandleFunc("/read-all", notificationHandler.MarkAllRead).Methods("PUT")
	notificationRouter.HandleFunc("/{id}/read", notificationHandler.MarkRead).Methods("PUT")

	return &testServer{router: r, hub: hub}
}

// do sends a JSON request, optionally authenticated, and decodes the response
// body into out when it is non-nil.
func (s *testServer) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *testServer) register(t *testing.T, name, email string) authResponse {
	t.Helper()
	var resp authResponse
	code := s.do(t, "POST", "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("Register %s returned %d", email, code)
	}
	return resp
}
