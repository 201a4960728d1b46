// Package api is the public HTTP surface: items, toggles, comments, accounts
// and notifications under /api/v1.
package api

import (
	"errors"
	"net/http"

	"clipshare/internal/common"
	"clipshare/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	errInvalidHeader = errors.New("invalid auth header")
	errInvalidToken  = errors.New("invalid or expired token")
)

// Routes is anything that mounts handlers on the /api/v1 subrouter.
type Routes interface {
	Register(r *mux.Router)
}

// AdminRoutes mount extra handlers under /api/v1/admin, behind RequireAdmin.
type AdminRoutes interface {
	RegisterAdmin(r *mux.Router)
}

// NewRouter builds the API handler with health and metrics endpoints at the root.
func NewRouter(tokens *common.TokenManager, log *zap.Logger, handlers ...Routes) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	router := mux.NewRouter()
	router.Use(Logging(log))
	router.Use(Metrics(metrics.Get()))

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(Auth(tokens))

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(RequireAdmin)

	for _, h := range handlers {
		h.Register(api)
		if a, ok := h.(AdminRoutes); ok {
			a.RegisterAdmin(admin)
		}
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		common.WriteJSON(w, http.StatusNotFound, common.ErrorResponse{Error: "route not found", Kind: "not_found"})
	})
	return CORS(router)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "clipshare-api"})
}
