// Package media serves stored upload bytes over HTTP.
package media

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"clipshare/internal/common"
	"clipshare/internal/dbmongo"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Files is the read side of dbmongo.MediaStorage.
type Files interface {
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, *dbmongo.MediaFile, error)
}

type HTTPServer struct {
	storage Files
	router  *mux.Router
	log     *zap.Logger
}

func NewHTTPServer(storage Files, log *zap.Logger) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &HTTPServer{storage: storage, router: mux.NewRouter(), log: log}
	s.router.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	stream, file, err := s.storage.DownloadFile(r.Context(), fileID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	defer stream.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = contentTypeFor(file.Filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, stream); err != nil {
		s.log.Warn("error streaming file", zap.String("file_id", fileID), zap.Error(err))
	}
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
