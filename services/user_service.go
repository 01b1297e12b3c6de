package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"travelbuddy-server/models"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

const (
	userCacheTTL        = 24 * time.Hour
	searchLimit         = 20
	recommendationLimit = 10
)

type UserService struct {
	users         store.UserStore
	notifications *NotificationService
	tokens        *TokenService
	redisClient   *redis.Client
}

func NewUserService(users store.UserStore, notifications *NotificationService, tokens *TokenService, redisClient *redis.Client) *UserService {
	return &UserService{
		users:         users,
		notifications: notifications,
		tokens:        tokens,
		redisClient:   redisClient,
	}
}

// AuthResult is returned by register, login and federated login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new user with default geo-origin coordinates and issues
// a token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errors.BadRequest("Email already registered.")
	} else if err != store.ErrNotFound {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to look up user", http.StatusInternalServerError)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Coordinates:  models.Origin(),
		Interests:    []string{},
		Followers:    []string{},
		Following:    []string{},
		IsPublic:     true,
		CreatedAt:    now,
		LastActive:   now,
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to create user", http.StatusInternalServerError)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, user)
	return &AuthResult{Token: token, User: user}, nil
}

// Login authenticates a credential pair and issues a token. Unknown email and
// hash mismatch are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == store.ErrNotFound {
		return nil, errors.BadRequest("Invalid credentials.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to look up user", http.StatusInternalServerError)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.BadRequest("Invalid credentials.")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, user)
	return &AuthResult{Token: token, User: user}, nil
}

// ResolveGoogleUser finds the user for an external Google subject id, creating
// one on first login, and issues a local token.
func (s *UserService) ResolveGoogleUser(ctx context.Context, googleID, email, name string) (*AuthResult, error) {
	user, err := s.users.GetByGoogleID(ctx, googleID)
	if err == store.ErrNotFound {
		// Google users get an unusable random credential.
		randomHash, hashErr := bcrypt.GenerateFromPassword([]byte(time.Now().String()+googleID), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, errors.Wrap(hashErr, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
		}
		now := time.Now().UTC()
		user = &models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(randomHash),
			GoogleID:     googleID,
			GoogleEmail:  email,
			Coordinates:  models.Origin(),
			Interests:    []string{},
			Followers:    []string{},
			Following:    []string{},
			IsPublic:     true,
			CreatedAt:    now,
			LastActive:   now,
		}
		if _, err := s.users.Insert(ctx, user); err != nil {
			return nil, errors.Wrap(err, "DB_ERROR", "Failed to create user", http.StatusInternalServerError)
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to look up user", http.StatusInternalServerError)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// GetProfile retrieves a user, trying the Redis cache first.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if userJSON, err := s.redisClient.Get(ctx, "user:"+userID).Result(); err == nil {
		var user models.User
		if err := json.Unmarshal([]byte(userJSON), &user); err == nil {
			return &user, nil
		}
		log.Printf("Failed to unmarshal cached user %s", userID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	s.cacheUser(ctx, user)
	return user, nil
}

// UpdateProfile applies a partial patch. Credential fields are not part of
// the patch type, so they can never change through this path.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch store.ProfilePatch) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, patch)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update user", http.StatusInternalServerError)
	}
	s.cacheUser(ctx, user)

	// Coordinate changes feed the same geospatial index as location pings, so
	// nearby queries see profile-located users too.
	if patch.Coordinates != nil && !patch.Coordinates.AtOrigin() {
		err := s.redisClient.GeoAdd(ctx, geoKey, &redis.GeoLocation{
			Name:      userID,
			Longitude: patch.Coordinates.Coordinates[0],
			Latitude:  patch.Coordinates.Coordinates[1],
		}).Err()
		if err != nil {
			log.Printf("Failed to update Redis geospatial index: %v", err)
		} else {
			s.redisClient.Expire(ctx, geoKey, geoTTL)
		}
	}
	return user, nil
}

// UserView is a user profile enriched with relationship details relative to
// the caller.
type UserView struct {
	models.User
	FollowerProfiles  []models.PublicProfile `json:"followerProfiles"`
	FollowingProfiles []models.PublicProfile `json:"followingProfiles"`
	IsFollowing       bool                   `json:"isFollowing"`
}

// GetUserView loads another user's profile with follower/following names and
// whether the caller follows them.
func (s *UserService) GetUserView(ctx context.Context, callerID, userID string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	view := &UserView{
		User:              *user,
		FollowerProfiles:  s.resolveProfiles(ctx, user.Followers),
		FollowingProfiles: s.resolveProfiles(ctx, user.Following),
	}
	for _, id := range user.Followers {
		if id == callerID {
			view.IsFollowing = true
		}
	}
	return view, nil
}

func (s *UserService) resolveProfiles(ctx context.Context, ids []string) []models.PublicProfile {
	profiles := make([]models.PublicProfile, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			log.Printf("Dangling user reference %s: %v", id, err)
			continue
		}
		profiles = append(profiles, user.Public())
	}
	return profiles
}

// Search matches name/bio substring, location substring and interest overlap,
// all ANDed, excluding the caller.
func (s *UserService) Search(ctx context.Context, callerID string, q store.SearchQuery) ([]models.PublicProfile, error) {
	q.ExcludeID = callerID
	q.Limit = searchLimit
	users, err := s.users.Search(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Search failed", http.StatusInternalServerError)
	}
	profiles := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}

// Recommendations suggests public users sharing at least one interest who are
// not already followed.
func (s *UserService) Recommendations(ctx context.Context, userID string) ([]models.PublicProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	matches, err := s.users.Recommendations(ctx, user, recommendationLimit)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load recommendations", http.StatusInternalServerError)
	}
	profiles := make([]models.PublicProfile, 0, len(matches))
	for i := range matches {
		profiles = append(profiles, matches[i].Public())
	}
	return profiles, nil
}

// Follow adds the caller to the target's followers and the target to the
// caller's following. The two writes are non-transactional; a failed second
// write rolls back the first.
func (s *UserService) Follow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return errors.BadRequest("Cannot follow yourself.")
	}

	if _, err := s.users.GetByID(ctx, targetID); err == store.ErrNotFound {
		return errors.NotFound("User not found.")
	} else if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	if current.IsFollowing(targetID) {
		return errors.BadRequest("Already following this user.")
	}

	if err := s.users.AddFollowing(ctx, userID, targetID); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to follow user", http.StatusInternalServerError)
	}
	if err := s.users.AddFollower(ctx, targetID, userID); err != nil {
		if rbErr := s.users.RemoveFollowing(ctx, userID, targetID); rbErr != nil {
			log.Printf("Failed to roll back following edge %s->%s: %v", userID, targetID, rbErr)
		}
		return errors.Wrap(err, "DB_ERROR", "Failed to follow user", http.StatusInternalServerError)
	}
	s.invalidateCache(ctx, userID, targetID)

	s.notifications.Notify(ctx, &models.Notification{
		Recipient: targetID,
		Sender:    userID,
		Type:      models.NotificationNewFollower,
		Title:     "New Follower",
		Message:   current.Name + " started following you",
	})
	return nil
}

// Unfollow reverses Follow with the same rollback discipline.
func (s *UserService) Unfollow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return errors.BadRequest("Cannot unfollow yourself.")
	}

	if _, err := s.users.GetByID(ctx, targetID); err == store.ErrNotFound {
		return errors.NotFound("User not found.")
	} else if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	if !current.IsFollowing(targetID) {
		return errors.BadRequest("Not following this user.")
	}

	if err := s.users.RemoveFollowing(ctx, userID, targetID); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to unfollow user", http.StatusInternalServerError)
	}
	if err := s.users.RemoveFollower(ctx, targetID, userID); err != nil {
		if rbErr := s.users.AddFollowing(ctx, userID, targetID); rbErr != nil {
			log.Printf("Failed to roll back unfollow %s->%s: %v", userID, targetID, rbErr)
		}
		return errors.Wrap(err, "DB_ERROR", "Failed to unfollow user", http.StatusInternalServerError)
	}
	s.invalidateCache(ctx, userID, targetID)
	return nil
}

// Followers returns the resolved follower profiles of a user.
func (s *UserService) Followers(ctx context.Context, userID string) ([]models.PublicProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	return s.resolveProfiles(ctx, user.Followers), nil
}

// Following returns the resolved following profiles of a user.
func (s *UserService) Following(ctx context.Context, userID string) ([]models.PublicProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == store.ErrNotFound {
		return nil, errors.NotFound("User not found.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	return s.resolveProfiles(ctx, user.Following), nil
}

// TouchLastActive updates the caller's last-active timestamp.
func (s *UserService) TouchLastActive(ctx context.Context, userID string) error {
	if err := s.users.SetLastActive(ctx, userID, time.Now().UTC()); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("User not found.")
		}
		return errors.Wrap(err, "DB_ERROR", "Failed to update last active", http.StatusInternalServerError)
	}
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *UserService) cacheUser(ctx context.Context, user *models.User) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, "user:"+user.ID, userJSON, userCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache user %s: %v", user.ID, err)
	}
}

func (s *UserService) invalidateCache(ctx context.Context, userIDs ...string) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = "user:" + id
	}
	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Failed to invalidate user cache: %v", err)
	}
}
