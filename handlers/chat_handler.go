package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"travelbuddy-server/middleware"
	"travelbuddy-server/realtime"
	"travelbuddy-server/services"
)

type ChatHandler struct {
	chatService *services.ChatService
	broker      realtime.Broker
}

func NewChatHandler(chatService *services.ChatService, broker realtime.Broker) *ChatHandler {
	return &ChatHandler{chatService: chatService, broker: broker}
}

// History returns an activity's messages in ascending timestamp order.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	messages, err := h.chatService.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// Post persists a message and fans it out to everyone watching the activity
// room, so clients that posted over HTTP still see it arrive live.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	activityID := mux.Vars(r)["id"]
	msg, err := h.chatService.Post(r.Context(), activityID, userID, input.Message)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	h.broker.Publish(realtime.ActivityRoom(activityID), realtime.NewEvent(realtime.EventNewMessage, realtime.MessagePayload{
		ID:         msg.ID,
		ActivityID: msg.ActivityID,
		UserID:     msg.UserID,
		UserName:   msg.UserName,
		Message:    msg.Message,
		Timestamp:  msg.Timestamp.Format(time.RFC3339),
		Type:       msg.Type,
	}))

	writeJSON(w, http.StatusCreated, msg)
}
