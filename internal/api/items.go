package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/domain"
	"clipshare/internal/gallery"
	"clipshare/internal/platform"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Content is the part of platform.Platform the item routes use beyond gallery.Backend.
type Content interface {
	Item(ctx context.Context, id string) (domain.ContentItem, error)
	Upload(ctx context.Context, s domain.Session, req platform.UploadRequest) (*platform.UploadResult, error)
	DeleteItem(ctx context.Context, s domain.Session, itemID string) error
	RecordView(ctx context.Context, itemID string) (int64, error)
	AdminItems(ctx context.Context, s domain.Session, q domain.ItemQuery) ([]domain.ContentItem, error)
	Comments(ctx context.Context, itemID string) ([]*platform.Comment, error)
	AddComment(ctx context.Context, s domain.Session, itemID string, parentID *string, content string) (*platform.Comment, error)
}

var _ Content = (*platform.Platform)(nil)

// multipart overhead allowed on top of the file itself
const formSlack = 1 << 20

type ItemHandler struct {
	content    Content
	loader     *gallery.Loader
	reconciler *gallery.Reconciler
	maxUpload  int64
	log        *zap.Logger
	now        func() time.Time
}

func NewItemHandler(content Content, loader *gallery.Loader, reconciler *gallery.Reconciler, maxUpload int64, log *zap.Logger) *ItemHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	return &ItemHandler{
		content:    content,
		loader:     loader,
		reconciler: reconciler,
		maxUpload:  maxUpload,
		log:        log,
		now:        time.Now,
	}
}

func (h *ItemHandler) Register(r *mux.Router) {
	r.HandleFunc("/items", h.list).Methods(http.MethodGet)
	r.HandleFunc("/items", h.upload).Methods(http.MethodPost)
	r.HandleFunc("/items/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/items/{id}/toggle", h.toggle).Methods(http.MethodPost)
	r.HandleFunc("/items/{id}/views", h.view).Methods(http.MethodPost)
	r.HandleFunc("/items/{id}/comments", h.comments).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}/comments", h.addComment).Methods(http.MethodPost)
}

func (h *ItemHandler) RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/items", h.adminList).Methods(http.MethodGet)
	r.HandleFunc("/items/{id}", h.delete).Methods(http.MethodDelete)
}

func parseQuery(r *http.Request) (gallery.Query, gallery.Layout, int) {
	v := r.URL.Query()
	q := gallery.Query{
		Scope:    gallery.Scope(v.Get("scope")),
		OwnerID:  v.Get("owner"),
		Category: v.Get("category"),
		Relation: domain.Relation(v.Get("relation")),
		Cursor:   v.Get("cursor"),
	}
	if ids := v.Get("ids"); ids != "" {
		q.IDs = strings.Split(ids, ",")
	}
	q.Limit, _ = strconv.Atoi(v.Get("limit"))
	columns, _ := strconv.Atoi(v.Get("columns"))
	return q, gallery.ParseLayout(v.Get("layout")), columns
}

func (h *ItemHandler) list(w http.ResponseWriter, r *http.Request) {
	q, layout, columns := parseQuery(r)
	c, err := h.loader.Load(r.Context(), common.SessionFrom(r.Context()), q)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, gallery.Project(c, layout, columns, h.now()))
}

func (h *ItemHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.loader.LoadItem(r.Context(), common.SessionFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, gallery.Project(c, gallery.LayoutGrid, 0, h.now()).Cards[0])
}

type toggleRequest struct {
	Relation string `json:"relation"`
	// Target pins the desired membership; without it the relation flips.
	Target *bool `json:"target,omitempty"`
}

type toggleResponse struct {
	Result  gallery.Result   `json:"result"`
	Card    *gallery.Card    `json:"card,omitempty"`
	Notices []gallery.Notice `json:"notices"`
}

type toggleError struct {
	Error   string           `json:"error"`
	Kind    string           `json:"kind,omitempty"`
	Notices []gallery.Notice `json:"notices"`
}

// toggle settles one like/save/bookmark/favorite against a fresh single-item
// view. The reconciler's queue is shared, so toggles on the same key from
// concurrent requests apply in arrival order.
func (h *ItemHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	rel, err := domain.ParseRelation(req.Relation)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	ctx := r.Context()
	s := common.SessionFrom(ctx)
	itemID := mux.Vars(r)["id"]

	c, err := h.loader.LoadItem(ctx, s, itemID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	notices := &gallery.NoticeBuffer{}
	v := gallery.NewView(ctx, s, c, notices)
	defer v.Close()

	var res gallery.Result
	if req.Target != nil {
		res, err = h.reconciler.Apply(ctx, v, domain.ToggleIntent{ItemID: itemID, Relation: rel, Target: *req.Target})
	} else {
		res, err = h.reconciler.Toggle(ctx, v, itemID, rel)
	}
	if err != nil {
		kind := domain.KindOf(err)
		msg := err.Error()
		if kind == "" {
			msg = "internal error"
		}
		common.WriteJSON(w, common.StatusFor(kind), toggleError{Error: msg, Kind: string(kind), Notices: notices.Notices()})
		return
	}

	resp := toggleResponse{Result: res, Notices: notices.Notices()}
	if page := gallery.ProjectView(v, gallery.LayoutGrid, 0, h.now()); len(page.Cards) > 0 {
		resp.Card = &page.Cards[0]
	}
	common.WriteJSON(w, http.StatusOK, resp)
}

func (h *ItemHandler) upload(w http.ResponseWriter, r *http.Request) {
	s := common.SessionFrom(r.Context())
	if !s.Authenticated() {
		common.WriteError(w, domain.E(domain.KindUnauthenticated, "upload", nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formSlack)
	if err := r.ParseMultipartForm(formSlack); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			common.WriteError(w, domain.E(domain.KindInvalid, "upload", errors.New("arquivo muito grande")))
			return
		}
		common.WriteError(w, domain.E(domain.KindInvalid, "upload", fmt.Errorf("bad multipart form: %w", err)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		common.WriteError(w, domain.E(domain.KindInvalid, "upload", errors.New("imagem não selecionada")))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}
	duration, _ := strconv.Atoi(r.FormValue("duration"))

	res, err := h.content.Upload(r.Context(), s, platform.UploadRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        splitTags(r.MultipartForm.Value["tags"]),
		Game:        r.FormValue("game"),
		Duration:    duration,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, res)
}

// splitTags accepts repeated tags fields, comma separated lists, or both.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func (h *ItemHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteItem(r.Context(), common.SessionFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) view(w http.ResponseWriter, r *http.Request) {
	n, err := h.content.RecordView(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"view_count": n})
}

func (h *ItemHandler) comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.content.Comments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

func (h *ItemHandler) addComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.content.AddComment(r.Context(), common.SessionFrom(r.Context()), mux.Vars(r)["id"], req.ParentID, req.Content)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, c)
}

func (h *ItemHandler) adminList(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := domain.ItemQuery{OwnerID: v.Get("owner"), Category: v.Get("category")}
	q.Limit, _ = strconv.Atoi(v.Get("limit"))
	if before := v.Get("before"); before != "" {
		t, err := time.Parse(time.RFC3339Nano, before)
		if err != nil {
			common.WriteError(w, domain.E(domain.KindInvalid, "admin items", fmt.Errorf("bad before %q", before)))
			return
		}
		q.Before = t
		q.BeforeID = v.Get("before_id")
	}
	items, err := h.content.AdminItems(r.Context(), common.SessionFrom(r.Context()), q)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
