package notif

import (
	"context"
	"net/http"
	"strconv"

	"clipshare/internal/common"
	"clipshare/internal/domain"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Service is what the HTTP handlers need from NotificationService.
type Service interface {
	GetUserNotifications(ctx context.Context, userID string, limit, offset int) ([]*Response, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, notificationID, userID string) error
	ClearAll(ctx context.Context, userID string) (int64, error)
}

type NotificationHandler struct {
	service Service
	log     *zap.Logger
}

func NewNotificationHandler(service Service, log *zap.Logger) *NotificationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationHandler{service: service, log: log}
}

// Register mounts the routes on r. Every route needs a signed-in session.
func (h *NotificationHandler) Register(r *mux.Router) {
	r.HandleFunc("/notifications", h.list).Methods(http.MethodGet)
	r.HandleFunc("/notifications", h.clear).Methods(http.MethodDelete)
	r.HandleFunc("/notifications/unread", h.unread).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read", h.markAll).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}/read", h.markRead).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *NotificationHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := common.SessionFrom(r.Context())
	if !s.Authenticated() {
		common.WriteError(w, domain.E(domain.KindUnauthenticated, "notifications", nil))
		return "", false
	}
	return s.UserID, true
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.service.GetUserNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		h.log.Warn("failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (h *NotificationHandler) unread(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkAsRead(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) markAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkAllAsRead(r.Context(), userID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	n, err := h.service.ClearAll(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
