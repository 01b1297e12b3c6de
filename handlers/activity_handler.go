package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"travelbuddy-server/middleware"
	"travelbuddy-server/models"
	"travelbuddy-server/services"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		Title            string    `json:"title"`
		Description      string    `json:"description"`
		Location         string    `json:"location"`
		Time             time.Time `json:"time"`
		Category         string    `json:"category"`
		Tags             []string  `json:"tags"`
		ParticipantLimit int       `json:"participantLimit"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Title == "" || input.Description == "" || input.Location == "" || input.Time.IsZero() || input.Category == "" {
		middleware.WriteError(w, errors.BadRequest("All fields are required."))
		return
	}

	activity, err := h.activityService.Create(r.Context(), userID, services.CreateActivityInput{
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		Time:             input.Time,
		Category:         input.Category,
		Tags:             input.Tags,
		ParticipantLimit: input.ParticipantLimit,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	activities, err := h.activityService.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	activities, err := h.activityService.Search(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("category"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories())
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	activity, err := h.activityService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		Title            *string    `json:"title"`
		Description      *string    `json:"description"`
		Location         *string    `json:"location"`
		Time             *time.Time `json:"time"`
		ParticipantLimit *int       `json:"participantLimit"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.ParticipantLimit != nil && *input.ParticipantLimit < 1 {
		middleware.WriteError(w, errors.BadRequest("Participant limit must be at least 1."))
		return
	}

	activity, err := h.activityService.Update(r.Context(), mux.Vars(r)["id"], userID, store.ActivityPatch{
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		Time:             input.Time,
		ParticipantLimit: input.ParticipantLimit,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.activityService.Delete(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Activity deleted."})
}

func (h *ActivityHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.activityService.Join(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully joined activity."})
}

func (h *ActivityHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.activityService.Leave(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully left activity."})
}

func (h *ActivityHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := h.activityService.RemoveParticipant(r.Context(), vars["id"], userID, vars["userId"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Participant removed."})
}

// MyActivities partitions the caller's activities into created and joined.
func (h *ActivityHandler) MyActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	partition, err := h.activityService.ForUser(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partition)
}

func (h *ActivityHandler) UserActivities(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	partition, err := h.activityService.ForUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partition)
}
