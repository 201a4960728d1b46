package api

import (
	"net/http"
	"strconv"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/domain"
	"clipshare/internal/metrics"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CORS wraps the whole router so preflight requests are answered before route matching.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Auth puts the bearer token's session on the request context. Requests
// without a token continue as anonymous; a bad token is rejected.
func Auth(tokens *common.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			tokenString, ok := common.BearerToken(header)
			if !ok {
				common.WriteError(w, domain.E(domain.KindUnauthenticated, "auth", errInvalidHeader))
				return
			}
			claims, err := tokens.ValidToken(tokenString)
			if err != nil {
				common.WriteError(w, domain.E(domain.KindUnauthenticated, "auth", errInvalidToken))
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithSession(r.Context(), claims.Session())))
		})
	}
}

// RequireAdmin guards the admin subrouter.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := common.SessionFrom(r.Context())
		switch {
		case !s.Authenticated():
			common.WriteError(w, domain.E(domain.KindUnauthenticated, "admin", nil))
		case !s.IsAdmin():
			common.WriteError(w, domain.E(domain.KindForbidden, "admin", nil))
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func routeOf(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func Logging(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			}
			if rec.status >= http.StatusInternalServerError {
				log.Warn("request failed", fields...)
				return
			}
			log.Debug("request", fields...)
		})
	}
}

// Metrics labels by route template so item ids do not explode cardinality.
func Metrics(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routeOf(r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
