package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/service"
	"github.com/zlnvch/noteverse/store"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type userResponse struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Created int64  `json:"created"`
	Updated int64  `json:"updated"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		Id:      user.Id,
		Name:    user.Name,
		Email:   user.Email,
		Created: user.Created,
		Updated: user.Updated,
	}
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, expiresAt, err := h.Service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.sendError(w, err)
		return
	}

	resp := sessionResponse{
		User:      toUserResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}
	h.sendResponseStatus(w, resp, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, expiresAt, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.sendError(w, err)
		return
	}

	resp := sessionResponse{
		User:      toUserResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}
	h.sendResponse(w, resp)
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := h.getTokenFromAuthHeader(r)
	user, err := h.Service.AuthenticateToken(r.Context(), token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if err := h.Service.Logout(r.Context(), user, token); err != nil {
		h.sendError(w, err)
		return
	}

	h.sendResponse(w, successResponse{Success: true})
}

func (h *Handler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := h.getTokenFromAuthHeader(r)
	user, err := h.Service.AuthenticateToken(r.Context(), token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if err := h.Service.LogoutAll(r.Context(), user); err != nil {
		h.sendError(w, err)
		return
	}

	h.sendResponse(w, successResponse{Success: true})
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	token := h.getTokenFromAuthHeader(r)
	user, err := h.Service.AuthenticateToken(r.Context(), token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.sendResponse(w, toUserResponse(user))

	case http.MethodPatch:
		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		updated, err := h.Service.UpdateUser(r.Context(), user, req.Name, req.Email)
		if err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, toUserResponse(updated))

	case http.MethodPut:
		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := h.Service.ChangePassword(r.Context(), user, req.OldPassword, req.NewPassword); err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, successResponse{Success: true})

	case http.MethodDelete:
		if err := h.Service.DeleteUser(r.Context(), user); err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, successResponse{Success: true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

const maxAvatarUpload = 1 << 20

func (h *Handler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	token := h.getTokenFromAuthHeader(r)
	user, err := h.Service.AuthenticateToken(r.Context(), token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAvatarUpload))
		if err != nil {
			http.Error(w, "avatar too large", http.StatusBadRequest)
			return
		}

		if err := h.Service.SetAvatar(r.Context(), user, body); err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, successResponse{Success: true})

	case http.MethodGet:
		avatar, err := h.Service.GetAvatar(r.Context(), user)
		if err != nil {
			h.sendError(w, err)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(avatar))
		w.Write(avatar)

	case http.MethodDelete:
		if err := h.Service.DeleteAvatar(r.Context(), user); err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, successResponse{Success: true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	token := h.getTokenFromAuthHeader(r)
	user, err := h.Service.AuthenticateToken(r.Context(), token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req noteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		note, err := h.Service.CreateNote(r.Context(), user, req.Title, req.Content)
		if err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponseStatus(w, note, http.StatusCreated)

	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		descending := r.URL.Query().Get("sort") == "desc"

		notes, err := h.Service.ListNotes(r.Context(), user, limit, skip, descending)
		if err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, notes)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleNote(w http.ResponseWriter, r *http.Request) {
	noteId := strings.TrimPrefix(r.URL.Path, "/notes/")
	if noteId == "" || strings.Contains(noteId, "/") {
		http.Error(w, "Data Not Found!", http.StatusNotFound)
		return
	}

	token := h.getTokenFromAuthHeader(r)
	user, err := h.Service.AuthenticateToken(r.Context(), token)
	if err != nil {
		h.sendError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := h.Service.GetNote(r.Context(), user, noteId)
		if err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, note)

	case http.MethodPatch:
		var req noteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		note, err := h.Service.UpdateNote(r.Context(), user, noteId, req.Title, req.Content)
		if err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, note)

	case http.MethodDelete:
		if err := h.Service.DeleteNote(r.Context(), user, noteId); err != nil {
			h.sendError(w, err)
			return
		}
		h.sendResponse(w, successResponse{Success: true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) sendResponseStatus(w http.ResponseWriter, resp any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// sendError maps service failures to client-facing messages. The auth
// failures collapse into one message so callers cannot probe which
// check failed.
func (h *Handler) sendError(w http.ResponseWriter, err error) {
	var validationErr service.ValidationError

	switch {
	case service.IsAuthError(err):
		http.Error(w, "Authentication Failed!", http.StatusUnauthorized)
	case errors.Is(err, service.ErrLoginFailed):
		http.Error(w, "Login Failed!", http.StatusUnauthorized)
	case errors.Is(err, service.ErrInvalidUpdate):
		http.Error(w, "Invalid Updates!", http.StatusBadRequest)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrEmailTaken):
		http.Error(w, "Email Already Exists!", http.StatusConflict)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, store.ErrItemNotFound):
		http.Error(w, "Data Not Found!", http.StatusNotFound)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "Server Error!", http.StatusInternalServerError)
	}
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
