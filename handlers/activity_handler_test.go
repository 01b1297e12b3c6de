package handlers

import (
	"net/http"
	"testing"
	"time"
)

type activityResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Participants     []string `json:"participants"`
	ParticipantLimit int      `json:"participantLimit"`
	CreatorName      string   `json:"creatorName"`
}

func (s *testServer) createActivity(t *testing.T, token string, limit int) activityResponse {
	t.Helper()
	var resp activityResponse
	code := s.do(t, "POST", "/activities", token, map[string]any{
		"title":            "Sunset hike",
		"description":      "Easy trail up the hill",
		"location":         "Lisbon",
		"time":             time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"category":         "hiking",
		"participantLimit": limit,
	}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("Create activity returned %d", code)
	}
	return resp
}

func TestActivityLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	activity := s.createActivity(t, alice.Token, 5)
	if activity.CreatorName != "Alice" {
		t.Errorf("Expected creator name Alice, got %q", activity.CreatorName)
	}

	// Bob joins, then the roster reflects both.
	if code := s.do(t, "POST", "/activities/"+activity.ID+"/join", bob.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Join returned %d", code)
	}
	var fetched activityResponse
	if code := s.do(t, "GET", "/activities/"+activity.ID, alice.Token, nil, &fetched); code != http.StatusOK {
		t.Fatalf("Get returned %d", code)
	}
	if len(fetched.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %v", fetched.Participants)
	}

	// Joining raised a notification for the creator.
	var unread struct {
		Count int64 `json:"count"`
	}
	if code := s.do(t, "GET", "/notifications/unread-count", alice.Token, nil, &unread); code != http.StatusOK {
		t.Fatalf("Unread count returned %d", code)
	}
	if unread.Count != 1 {
		t.Errorf("Expected 1 unread notification, got %d", unread.Count)
	}

	// Only the creator may update; a participant gets a 403.
	var errResp errorResponse
	code := s.do(t, "PUT", "/activities/"+activity.ID, bob.Token, map[string]string{"title": "Hostile takeover"}, &errResp)
	if code != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-creator update, got %d", code)
	}

	if code := s.do(t, "POST", "/activities/"+activity.ID+"/leave", bob.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Leave returned %d", code)
	}

	if code := s.do(t, "DELETE", "/activities/"+activity.ID, alice.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Delete returned %d", code)
	}
	if code := s.do(t, "GET", "/activities/"+activity.ID, alice.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", code)
	}
}

func TestJoinFullActivity(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	activity := s.createActivity(t, alice.Token, 1)

	var errResp errorResponse
	code := s.do(t, "POST", "/activities/"+activity.ID+"/join", bob.Token, nil, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", code)
	}
	if errResp.Message != "Activity is full." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")

	var errResp errorResponse
	code := s.do(t, "POST", "/activities", alice.Token, map[string]any{
		"title": "No details",
	}, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", code)
	}
	if errResp.Message != "All fields are required." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")

	var categories []struct {
		Value string `json:"value"`
		Label string `json:"label"`
		Icon  string `json:"icon"`
	}
	code := s.do(t, "GET", "/activities/categories", alice.Token, nil, &categories)
	if code != http.StatusOK {
		t.Fatalf("Categories returned %d", code)
	}
	if len(categories) != 10 {
		t.Errorf("Expected 10 categories, got %d", len(categories))
	}
	for _, c := range categories {
		if c.Value == "" || c.Label == "" || c.Icon == "" {
			t.Errorf("Incomplete category entry: %+v", c)
		}
	}
}

func TestChatOverREST(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	activity := s.createActivity(t, alice.Token, 5)

	var posted struct {
		Message  string `json:"message"`
		UserName string `json:"userName"`
	}
	code := s.do(t, "POST", "/activities/"+activity.ID+"/chat", alice.Token,
		map[string]string{"message": "anyone up for an early start?"}, &posted)
	if code != http.StatusCreated {
		t.Fatalf("Post message returned %d", code)
	}
	if posted.UserName != "Alice" {
		t.Errorf("Expected denormalized sender name, got %q", posted.UserName)
	}

	var history []struct {
		Message string `json:"message"`
	}
	code = s.do(t, "GET", "/activities/"+activity.ID+"/chat", alice.Token, nil, &history)
	if code != http.StatusOK {
		t.Fatalf("History returned %d", code)
	}
	if len(history) != 1 || history[0].Message != "anyone up for an early start?" {
		t.Errorf("Unexpected history: %+v", history)
	}

	var errResp errorResponse
	code = s.do(t, "POST", "/activities/"+activity.ID+"/chat", alice.Token,
		map[string]string{"message": "   "}, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for blank message, got %d", code)
	}
	if errResp.Message != "Message is required." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}
}

func TestFollowOverREST(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	if code := s.do(t, "POST", "/users/"+bob.User.ID+"/follow", alice.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Follow returned %d", code)
	}

	var view struct {
		IsFollowing bool `json:"isFollowing"`
	}
	if code := s.do(t, "GET", "/users/"+bob.User.ID, alice.Token, nil, &view); code != http.StatusOK {
		t.Fatalf("Get user returned %d", code)
	}
	if !view.IsFollowing {
		t.Error("Expected isFollowing true after follow")
	}

	var errResp errorResponse
	code := s.do(t, "POST", "/users/"+alice.User.ID+"/follow", alice.Token, nil, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for self-follow, got %d", code)
	}
	if errResp.Message != "Cannot follow yourself." {
		t.Errorf("Unexpected message: %q", errResp.Message)
	}

	if code := s.do(t, "DELETE", "/users/"+bob.User.ID+"/follow", alice.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Unfollow returned %d", code)
	}
}

func TestNotificationReadFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	// Two follows produce two notifications for Bob.
	if code := s.do(t, "POST", "/users/"+bob.User.ID+"/follow", alice.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Follow returned %d", code)
	}
	carol := s.register(t, "Carol", "carol@example.com")
	if code := s.do(t, "POST", "/users/"+bob.User.ID+"/follow", carol.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("Follow returned %d", code)
	}

	var notifications []struct {
		ID     string `json:"id"`
		IsRead bool   `json:"isRead"`
	}
	if code := s.do(t, "GET", "/notifications", bob.Token, nil, &notifications); code != http.StatusOK {
		t.Fatalf("List returned %d", code)
	}
	if len(notifications) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(notifications))
	}

	if code := s.do(t, "PUT", "/notifications/"+notifications[0].ID+"/read", bob.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("MarkRead returned %d", code)
	}
	var unread struct {
		Count int64 `json:"count"`
	}
	if code := s.do(t, "GET", "/notifications/unread-count", bob.Token, nil, &unread); code != http.StatusOK {
		t.Fatalf("Unread count returned %d", code)
	}
	if unread.Count != 1 {
		t.Errorf("Expected 1 unread after marking one read, got %d", unread.Count)
	}

	// Another user's notification id reads as not found.
	if code := s.do(t, "PUT", "/notifications/"+notifications[1].ID+"/read", alice.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("Expected 404 for foreign notification, got %d", code)
	}

	if code := s.do(t, "PUT", "/notifications/read-all", bob.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("MarkAllRead returned %d", code)
	}
	if code := s.do(t, "GET", "/notifications/unread-count", bob.Token, nil, &unread); code != http.StatusOK {
		t.Fatalf("Unread count returned %d", code)
	}
	if unread.Count != 0 {
		t.Errorf("Expected 0 unread after read-all, got %d", unread.Count)
	}
}
