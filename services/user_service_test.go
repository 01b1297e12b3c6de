package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"travelbuddy-server/models"
	"travelbuddy-server/realtime"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newUserFixture(t *testing.T) (*UserService, *store.MemoryUsers, *store.MemoryNotifications) {
	t.Helper()
	users := store.NewMemoryUsers()
	notifications := store.NewMemoryNotifications()
	notificationService := NewNotificationService(notifications, realtime.NewHub())
	tokens := NewTokenService("test-secret")
	return NewUserService(users, notificationService, tokens, newTestRedis(t)), users, notifications
}

func mustRegister(t *testing.T, svc *UserService, name, email string) *models.User {
	t.Helper()
	result, err := svc.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("Register %s failed: %v", email, err)
	}
	return result.User
}

func apiMessage(t *testing.T, err error) string {
	t.Helper()
	apiErr, ok := err.(*errors.APIError)
	if !ok {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	return apiErr.Message
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Token == "" {
		t.Error("Expected a token on registration")
	}
	if result.User.ID == "" {
		t.Error("Expected an id on the registered user")
	}
	if !result.User.IsPublic {
		t.Error("Expected new users to default to public")
	}
	if !result.User.Coordinates.AtOrigin() {
		t.Error("Expected new users to start at the origin")
	}

	login, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != result.User.ID {
		t.Errorf("Login resolved a different user: %s vs %s", login.User.ID, result.User.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	mustRegister(t, svc, "Alice", "alice@example.com")

	_, err := svc.Register(context.Background(), "Clone", "alice@example.com", "other-password")
	if err == nil {
		t.Fatal("Expected duplicate registration to fail")
	}
	if msg := apiMessage(t, err); msg != "Email already registered." {
		t.Errorf("Unexpected message: %q", msg)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	mustRegister(t, svc, "Alice", "alice@example.com")
	ctx := context.Background()

	// Unknown email and wrong password must be indistinguishable.
	for _, tc := range []struct{ email, password string }{
		{"nobody@example.com", "password123"},
		{"alice@example.com", "wrong-password"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		if err == nil {
			t.Fatalf("Expected login to fail for %s", tc.email)
		}
		if msg := apiMessage(t, err); msg != "Invalid credentials." {
			t.Errorf("Unexpected message for %s: %q", tc.email, msg)
		}
	}
}

func TestFollowUnfollow(t *testing.T) {
	svc, users, notifications := newUserFixture(t)
	ctx := context.Background()
	alice := mustRegister(t, svc, "Alice", "alice@example.com")
	bob := mustRegister(t, svc, "Bob", "bob@example.com")

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	aliceNow, _ := users.GetByID(ctx, alice.ID)
	bobNow, _ := users.GetByID(ctx, bob.ID)
	if !aliceNow.IsFollowing(bob.ID) {
		t.Error("Expected Alice to follow Bob")
	}
	if len(bobNow.Followers) != 1 || bobNow.Followers[0] != alice.ID {
		t.Errorf("Expected Bob's followers to be [%s], got %v", alice.ID, bobNow.Followers)
	}

	// Following notifies the target.
	count, err := notifications.CountUnread(ctx, bob.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 unread notification for Bob, got %d", count)
	}

	if err := svc.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	aliceNow, _ = users.GetByID(ctx, alice.ID)
	bobNow, _ = users.GetByID(ctx, bob.ID)
	if aliceNow.IsFollowing(bob.ID) {
		t.Error("Expected Alice to no longer follow Bob")
	}
	if len(bobNow.Followers) != 0 {
		t.Errorf("Expected Bob to have no followers, got %v", bobNow.Followers)
	}
}

func TestFollowRejections(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	alice := mustRegister(t, svc, "Alice", "alice@example.com")
	bob := mustRegister(t, svc, "Bob", "bob@example.com")

	if msg := apiMessage(t, svc.Follow(ctx, alice.ID, alice.ID)); msg != "Cannot follow yourself." {
		t.Errorf("Unexpected self-follow message: %q", msg)
	}

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if msg := apiMessage(t, svc.Follow(ctx, alice.ID, bob.ID)); msg != "Already following this user." {
		t.Errorf("Unexpected double-follow message: %q", msg)
	}

	if msg := apiMessage(t, svc.Unfollow(ctx, bob.ID, alice.ID)); msg != "Not following this user." {
		t.Errorf("Unexpected unfollow message: %q", msg)
	}

	if msg := apiMessage(t, svc.Follow(ctx, alice.ID, "missing-id")); msg != "User not found." {
		t.Errorf("Unexpected missing-target message: %q", msg)
	}
}

func TestGetUserViewIsFollowing(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	alice := mustRegister(t, svc, "Alice", "alice@example.com")
	bob := mustRegister(t, svc, "Bob", "bob@example.com")

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	view, err := svc.GetUserView(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetUserView failed: %v", err)
	}
	if !view.IsFollowing {
		t.Error("Expected isFollowing true from Alice's perspective")
	}
	if len(view.FollowerProfiles) != 1 || view.FollowerProfiles[0].Name != "Alice" {
		t.Errorf("Unexpected follower profiles: %+v", view.FollowerProfiles)
	}

	reverse, err := svc.GetUserView(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetUserView failed: %v", err)
	}
	if reverse.IsFollowing {
		t.Error("Expected isFollowing false from Bob's perspective")
	}
}

func TestUpdateProfilePartialPatch(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	alice := mustRegister(t, svc, "Alice", "alice@example.com")

	bio := "Travelling the world"
	updated, err := svc.UpdateProfile(ctx, alice.ID, store.ProfilePatch{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Bio != bio {
		t.Errorf("Expected bio %q, got %q", bio, updated.Bio)
	}
	if updated.Name != "Alice" {
		t.Errorf("Patch touched an unrelated field: name is %q", updated.Name)
	}

	// The cache must reflect the update.
	profile, err := svc.GetProfile(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Bio != bio {
		t.Errorf("Stale profile after update: %q", profile.Bio)
	}
}

func TestRecommendations(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	alice := mustRegister(t, svc, "Alice", "alice@example.com")
	bob := mustRegister(t, svc, "Bob", "bob@example.com")
	carol := mustRegister(t, svc, "Carol", "carol@example.com")
	dave := mustRegister(t, svc, "Dave", "dave@example.com")

	interests := []string{"hiking"}
	for _, id := range []string{alice.ID, bob.ID, carol.ID} {
		if _, err := svc.UpdateProfile(ctx, id, store.ProfilePatch{Interests: &interests}); err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
	}
	private := false
	if _, err := svc.UpdateProfile(ctx, carol.ID, store.ProfilePatch{IsPublic: &private}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	cooking := []string{"cooking"}
	if _, err := svc.UpdateProfile(ctx, dave.ID, store.ProfilePatch{Interests: &cooking}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	recs, err := svc.Recommendations(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Recommendations failed: %v", err)
	}
	// Carol is private and Dave shares no interest, so only Bob qualifies.
	if len(recs) != 1 || recs[0].ID != bob.ID {
		t.Errorf("Expected only Bob recommended, got %+v", recs)
	}

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	recs, err = svc.Recommendations(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Recommendations failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations once Bob is followed, got %+v", recs)
	}
}

func TestSearchExcludesCaller(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()
	alice := mustRegister(t, svc, "Alice Explorer", "alice@example.com")
	mustRegister(t, svc, "Bob Explorer", "bob@example.com")

	results, err := svc.Search(ctx, alice.ID, store.SearchQuery{Q: "explorer"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Bob Explorer" {
		t.Errorf("Expected only Bob in results, got %+v", results)
	}
}

func TestResolveGoogleUserIdempotent(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	first, err := svc.ResolveGoogleUser(ctx, "google-sub-1", "alice@gmail.com", "Alice")
	if err != nil {
		t.Fatalf("ResolveGoogleUser failed: %v", err)
	}
	second, err := svc.ResolveGoogleUser(ctx, "google-sub-1", "alice@gmail.com", "Alice")
	if err != nil {
		t.Fatalf("ResolveGoogleUser failed: %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Errorf("Expected the same user on repeat login, got %s and %s", first.User.ID, second.User.ID)
	}
}
