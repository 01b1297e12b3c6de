package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"travelbuddy-server/middleware"
	"travelbuddy-server/services"
	"travelbuddy-server/utils/errors"
)

const oauthStateCookie = "oauth_state"

// OAuthHandler implements the federated Google login redirect flow. On
// success the user is created or reused keyed by the Google subject id and a
// locally issued token is handed to the frontend.
type OAuthHandler struct {
	userService *services.UserService
	config      *oauth2.Config
	frontendURL string
}

func NewOAuthHandler(userService *services.UserService, clientID, clientSecret, callbackURL, frontendURL string) *OAuthHandler {
	var config *oauth2.Config
	if clientID != "" && clientSecret != "" {
		config = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		}
	} else {
		log.Println("Google OAuth credentials not configured, Google login disabled")
	}
	return &OAuthHandler{
		userService: userService,
		config:      config,
		frontendURL: frontendURL,
	}
}

func (h *OAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		middleware.WriteError(w, errors.NewAPIError("OAUTH_DISABLED", "Google login is not configured", http.StatusNotImplemented))
		return
	}

	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	http.Redirect(w, r, h.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		middleware.WriteError(w, errors.NewAPIError("OAUTH_DISABLED", "Google login is not configured", http.StatusNotImplemented))
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		middleware.WriteError(w, errors.BadRequest("Invalid OAuth state."))
		return
	}

	token, err := h.config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "OAUTH_ERROR", "Failed to exchange authorization code", http.StatusBadGateway))
		return
	}

	info, err := h.fetchUserInfo(r, token)
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "OAUTH_ERROR", "Failed to load Google profile", http.StatusBadGateway))
		return
	}

	result, err := h.userService.ResolveGoogleUser(r.Context(), info.ID, info.Email, info.Name)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/auth-success?token=%s", h.frontendURL, result.Token), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *OAuthHandler) fetchUserInfo(r *http.Request, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.config.Client(r.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
