package handler

import (
	"net/http"

	"github.com/clipfeed/clipfeed/internal/ctxkeys"
	"github.com/clipfeed/clipfeed/internal/model"
	"github.com/clipfeed/clipfeed/internal/service"
	"github.com/clipfeed/clipfeed/internal/validation"
)

type AuthHandler struct {
	identity service.IdentityProvider
}

func NewAuthHandler(identity service.IdentityProvider) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type registerRequest struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	OK    bool              `json:"ok"`
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

type banStatusResponse struct {
	OK     bool `json:"ok"`
	Banned bool `json:"banned"`
}

type userResponse struct {
	OK   bool               `json:"ok"`
	User *model.UserSummary `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.identity.Register(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{OK: true, Token: res.Token, User: res.User})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{OK: true, Token: res.Token, User: res.User})
}

func (h *AuthHandler) BanStatus(w http.ResponseWriter, r *http.Request) {
	banned, err := h.identity.BanStatus(r.Context(), r.PathValue("code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, banStatusResponse{OK: true, Banned: banned})
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.User(r.Context(), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

// Me returns the caller resolved from the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}

	WriteJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := decodeJSON(w, r, v)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "invalid JSON body")
		return false
	}

	err = validation.Struct(v)
	if err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}
