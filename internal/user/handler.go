package user

import (
	"net/http"
	"strconv"

	"clipshare/internal/common"
	"clipshare/internal/domain"

	"github.com/gorilla/mux"
)

// Handler connects the account routes to UserService.
type Handler struct {
	userService UserService
}

func NewHandler(userService UserService) *Handler {
	return &Handler{userService: userService}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/session", h.session).Methods(http.MethodGet)
	r.HandleFunc("/me", h.updateProfile).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", h.getProfile).Methods(http.MethodGet)
}

// RegisterAdmin mounts the routes that need an admin session.
func (h *Handler) RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/role", h.setRole).Methods(http.MethodPut)
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string   `json:"token"`
	User    *Profile `json:"user"`
	Message string   `json:"message"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, token, err := h.userService.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: p, Message: "Conta criada com sucesso"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, token, err := h.userService.LoginUser(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: p, Message: "Login realizado"})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, common.SessionFrom(r.Context()))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.userService.GetProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if common.SessionFrom(r.Context()).UserID != p.ID {
		p.Email = ""
	}
	common.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	s := common.SessionFrom(r.Context())
	if !s.Authenticated() {
		common.WriteError(w, domain.E(domain.KindUnauthenticated, "update profile", nil))
		return
	}
	var req ProfileUpdate
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.userService.UpdateProfile(r.Context(), s.UserID, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	users, err := h.userService.ListUsers(r.Context(), common.SessionFrom(r.Context()), limit, offset)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	err := h.userService.SetRole(r.Context(), common.SessionFrom(r.Context()), mux.Vars(r)["id"], req.Role)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
