package handlers

import (
	"net/http"

	"travelbuddy-server/middleware"
	"travelbuddy-server/services"
	"travelbuddy-server/utils/errors"
)

type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		middleware.WriteError(w, errors.BadRequest("All fields are required."))
		return
	}

	result, err := h.userService.Register(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		middleware.WriteError(w, errors.BadRequest("All fields are required."))
		return
	}

	result, err := h.userService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
