package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"travelbuddy-server/middleware"
	"travelbuddy-server/models"
	"travelbuddy-server/services"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

type UserHandler struct {
	userService *services.UserService
	geoService  *services.GeoService
}

func NewUserHandler(userService *services.UserService, geoService *services.GeoService) *UserHandler {
	return &UserHandler{userService: userService, geoService: geoService}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	// Credential fields are deliberately absent: password changes are not
	// allowed through the profile endpoint.
	var input struct {
		Name           *string          `json:"name"`
		Bio            *string          `json:"bio"`
		Location       *string          `json:"location"`
		Interests      *[]string        `json:"interests"`
		ProfilePicture *string          `json:"profilePicture"`
		IsPublic       *bool            `json:"isPublic"`
		Coordinates    *models.GeoPoint `json:"coordinates"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Name != nil && *input.Name == "" {
		middleware.WriteError(w, errors.BadRequest("Name cannot be empty."))
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, store.ProfilePatch{
		Name:           input.Name,
		Bio:            input.Bio,
		Location:       input.Location,
		Interests:      input.Interests,
		ProfilePicture: input.ProfilePicture,
		IsPublic:       input.IsPublic,
		Coordinates:    input.Coordinates,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	view, err := h.userService.GetUserView(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	query := store.SearchQuery{
		Q:        r.URL.Query().Get("q"),
		Location: r.URL.Query().Get("location"),
	}
	if interests := r.URL.Query().Get("interests"); interests != "" {
		for _, interest := range strings.Split(interests, ",") {
			if interest = strings.TrimSpace(interest); interest != "" {
				query.Interests = append(query.Interests, interest)
			}
		}
	}

	users, err := h.userService.Search(r.Context(), userID, query)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		middleware.WriteError(w, errors.BadRequest("Longitude and latitude are required."))
		return
	}
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.BadRequest("Longitude and latitude are required."))
		return
	}
	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)

	users, err := h.geoService.Nearby(r.Context(), userID, lng, lat, radius)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) PingLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		Lng float64 `json:"lng"`
		Lat float64 `json:"lat"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.geoService.LocationPing(r.Context(), userID, input.Lng, input.Lat); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Location updated."})
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.userService.Follow(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully followed user."})
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.userService.Unfollow(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully unfollowed user."})
}

func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	followers, err := h.userService.Followers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followers)
}

func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	following, err := h.userService.Following(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, following)
}

func (h *UserHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	recommendations, err := h.userService.Recommendations(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendations)
}

func (h *UserHandler) LastActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.userService.TouchLastActive(r.Context(), userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Last active updated."})
}
