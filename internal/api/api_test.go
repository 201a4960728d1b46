package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/config"
	"clipshare/internal/dbmongo"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"
	"clipshare/internal/gallery"
	"clipshare/internal/platform"
	"clipshare/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	alice = domain.Session{UserID: "u_alice", Username: "alice", Role: domain.RoleUser}
	bob   = domain.Session{UserID: "u_bob", Username: "bob", Role: domain.RoleUser}
	root  = domain.Session{UserID: "u_root", Username: "root", Role: domain.RoleAdmin}
)

type memBlobs struct {
	mu    sync.Mutex
	next  int
	files map[string][]byte
}

func (m *memBlobs) UploadFile(ctx context.Context, up dbmongo.Upload) (*dbmongo.MediaFile, error) {
	data, err := io.ReadAll(up.Content)
	if err != nil {
		return nil, err
	}
	if up.Progress != nil {
		up.Progress(int64(len(data)), up.Size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("%024x", m.next)
	m.files[id] = data
	return &dbmongo.MediaFile{ID: id, Filename: up.Filename, ContentType: up.ContentType, Size: int64(len(data))}, nil
}

func (m *memBlobs) DeleteFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, fileID)
	return nil
}

type testAPI struct {
	handler http.Handler
	db      *gorm.DB
	tokens  *common.TokenManager
	blobs   *memBlobs
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, dbmysql.Migrate(db))

	cfg := &config.Config{
		Server: config.ServerConfig{MediaBaseURL: "http://media.test/media"},
		Upload: config.UploadConfig{MaxBytes: 1024},
	}
	tokens := common.NewTokenManager(config.AuthConfig{JWTSecret: "api-test"})
	blobs := &memBlobs{files: make(map[string][]byte)}
	p := platform.New(db, blobs, nil, cfg, nil)

	users := user.NewHandler(user.NewUserService(dbmysql.NewProfileRepository(db), dbmysql.NewItemRepository(db), tokens, nil))
	items := NewItemHandler(p, gallery.NewLoader(p, nil), gallery.NewReconciler(p, nil, gallery.Policy{}, nil), cfg.Upload.MaxBytes, nil)

	return &testAPI{
		handler: NewRouter(tokens, nil, users, items),
		db:      db,
		tokens:  tokens,
		blobs:   blobs,
	}
}

func (a *testAPI) seed(t *testing.T, id, ownerID string, likes int64, created time.Time) {
	t.Helper()
	require.NoError(t, dbmysql.NewItemRepository(a.db).Create(context.Background(), &dbmysql.Item{
		ID:        id,
		Title:     "Jogada " + id,
		MediaURL:  "http://media.test/media/" + id,
		Kind:      string(domain.KindImage),
		OwnerID:   ownerID,
		Tags:      dbmysql.JoinTags([]string{"fps"}),
		LikeCount: likes,
		CreatedAt: created,
	}))
}

func (a *testAPI) token(t *testing.T, s domain.Session) string {
	t.Helper()
	tok, err := a.tokens.GenerateToken(s)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type toggleBody struct {
	Result struct {
		Member    bool  `json:"member"`
		LikeCount int64 `json:"like_count"`
		Changed   bool  `json:"changed"`
	} `json:"result"`
	Card    *gallery.Card    `json:"card"`
	Notices []gallery.Notice `json:"notices"`
	Error   string           `json:"error"`
	Kind    string           `json:"kind"`
}

func TestRouter_HealthMetricsAndCORS(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = a.do(t, http.MethodOptions, "/api/v1/items", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	a.do(t, http.MethodGet, "/api/v1/items", "", nil)
	rec = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/v1/items",status="200"}`)

	rec = a.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/session", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"unauthenticated"`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/session", a.token(t, alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var s domain.Session
	decode(t, rec, &s)
	assert.Equal(t, alice, s)

	rec = a.do(t, http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestRegisterThenUseToken(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var auth user.AuthResponse
	decode(t, rec, &auth)
	require.NotEmpty(t, auth.Token)

	rec = a.do(t, http.MethodGet, "/api/v1/session", auth.Token, nil)
	var s domain.Session
	decode(t, rec, &s)
	assert.Equal(t, "carol", s.Username)
	assert.Equal(t, domain.RoleUser, s.Role)
}

func TestItems_ListAndGet(t *testing.T) {
	a := newTestAPI(t)
	now := time.Now().UTC()
	a.seed(t, "img_1", bob.UserID, 1500, now.Add(-2*time.Hour))
	a.seed(t, "img_2", bob.UserID, 3, now.Add(-time.Hour))

	rec := a.do(t, http.MethodGet, "/api/v1/items?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page gallery.Page
	decode(t, rec, &page)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "img_2", page.Cards[0].ID)
	require.NotEmpty(t, page.NextCursor)

	rec = a.do(t, http.MethodGet, "/api/v1/items?limit=1&cursor="+url.QueryEscape(page.NextCursor), "", nil)
	decode(t, rec, &page)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "img_1", page.Cards[0].ID)
	assert.Equal(t, "1.5K", page.Cards[0].LikesLabel)

	rec = a.do(t, http.MethodGet, "/api/v1/items?layout=masonry&columns=2", "", nil)
	decode(t, rec, &page)
	assert.Equal(t, gallery.LayoutMasonry, page.Layout)
	assert.Len(t, page.Columns, 2)

	rec = a.do(t, http.MethodGet, "/api/v1/items?scope=owner", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/items/img_1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var card gallery.Card
	decode(t, rec, &card)
	assert.Equal(t, "Jogada img_1", card.Title)
	assert.False(t, card.IsLiked)

	rec = a.do(t, http.MethodGet, "/api/v1/items/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItems_Toggle(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t, "img_1", bob.UserID, 10, time.Now().UTC())
	tok := a.token(t, alice)

	rec := a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", tok, map[string]string{"relation": "liked"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body toggleBody
	decode(t, rec, &body)
	assert.True(t, body.Result.Member)
	assert.True(t, body.Result.Changed)
	assert.Equal(t, int64(11), body.Result.LikeCount)
	require.NotNil(t, body.Card)
	assert.True(t, body.Card.IsLiked)

	// pinning the current state is a no-op
	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", tok, map[string]interface{}{"relation": "liked", "target": true})
	body = toggleBody{}
	decode(t, rec, &body)
	assert.True(t, body.Result.Member)
	assert.False(t, body.Result.Changed)
	assert.Equal(t, int64(11), body.Result.LikeCount)

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", tok, map[string]string{"relation": "saved"})
	body = toggleBody{}
	decode(t, rec, &body)
	assert.True(t, body.Result.Member)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "Imagem salva", body.Notices[0].Title)

	rec = a.do(t, http.MethodGet, "/api/v1/items?scope=relation&relation=saved", tok, nil)
	var page gallery.Page
	decode(t, rec, &page)
	require.Len(t, page.Cards, 1)
	assert.True(t, page.Cards[0].IsSaved)
	assert.True(t, page.Cards[0].IsLiked)

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", tok, map[string]string{"relation": "liked"})
	body = toggleBody{}
	decode(t, rec, &body)
	assert.False(t, body.Result.Member)
	assert.Equal(t, int64(10), body.Result.LikeCount)
}

func TestItems_ToggleRejects(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t, "img_1", bob.UserID, 0, time.Now().UTC())

	rec := a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", "", map[string]string{"relation": "favorited"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body toggleBody
	decode(t, rec, &body)
	assert.Equal(t, "unauthenticated", body.Kind)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "Você precisa estar logado para favoritar clipes.", body.Notices[0].Message)

	tok := a.token(t, alice)
	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", tok, map[string]string{"relation": "pinned"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_9/toggle", tok, map[string]string{"relation": "liked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/toggle", tok, map[string]string{"relation": "liked", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, fields map[string]string, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="shot.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (a *testAPI) upload(t *testing.T, token string, fields map[string]string, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartUpload(t, fields, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", body)
	req.Header.Set("Content-Type", ct)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestItems_UploadAndDelete(t *testing.T) {
	a := newTestAPI(t)
	tok := a.token(t, alice)
	fields := map[string]string{"title": "Clutch 1v4", "tags": "FPS, ranked", "game": "Valorant"}

	rec := a.upload(t, "", fields, "image/png", []byte("png-bytes"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.upload(t, tok, fields, "image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res platform.UploadResult
	decode(t, rec, &res)
	assert.Equal(t, domain.KindImage, res.Item.Kind)
	assert.Equal(t, alice.UserID, res.Item.OwnerID)
	assert.Equal(t, []string{"fps", "ranked"}, res.Item.Tags)
	assert.Equal(t, int64(9), res.Bytes)
	assert.Len(t, a.blobs.files, 1)

	rec = a.do(t, http.MethodGet, "/api/v1/items?scope=category&category=ranked", "", nil)
	var page gallery.Page
	decode(t, rec, &page)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, res.Item.ID, page.Cards[0].ID)

	rec = a.do(t, http.MethodDelete, "/api/v1/items/"+res.Item.ID, a.token(t, bob), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/v1/items/"+res.Item.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, a.blobs.files)

	rec = a.do(t, http.MethodGet, "/api/v1/items/"+res.Item.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItems_UploadRejects(t *testing.T) {
	a := newTestAPI(t)
	tok := a.token(t, alice)
	fields := map[string]string{"title": "Clutch", "tags": "fps"}

	tests := []struct {
		name        string
		fields      map[string]string
		contentType string
		content     []byte
		want        string
	}{
		{"no file", fields, "", nil, "imagem não selecionada"},
		{"wrong format", fields, "application/pdf", []byte("%PDF"), "formato inválido"},
		{"too large", fields, "image/png", bytes.Repeat([]byte("x"), 2048), "arquivo muito grande"},
		{"no tags", map[string]string{"title": "Clutch"}, "image/png", []byte("x"), "selecione pelo menos uma tag"},
		{"short title", map[string]string{"title": "ab", "tags": "fps"}, "image/png", []byte("x"), "pelo menos 3 caracteres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.upload(t, tok, tt.fields, tt.contentType, tt.content)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
	assert.Empty(t, a.blobs.files)
}

func TestItems_ViewsAndComments(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t, "img_1", bob.UserID, 0, time.Now().UTC())

	rec := a.do(t, http.MethodPost, "/api/v1/items/img_1/views", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"view_count":1}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/comments", "", map[string]string{"content": "boa"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := a.token(t, alice)
	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/comments", tok, map[string]string{"content": "que jogada"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var parent platform.Comment
	decode(t, rec, &parent)

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/comments", a.token(t, bob), map[string]interface{}{"content": "valeu", "parent_id": parent.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/items/img_1/comments", "", nil)
	var out struct {
		Comments []*platform.Comment `json:"comments"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Comments, 1)
	require.Len(t, out.Comments[0].Replies, 1)
	assert.Equal(t, "valeu", out.Comments[0].Replies[0].Content)

	rec = a.do(t, http.MethodPost, "/api/v1/items/img_1/comments", tok, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	a := newTestAPI(t)
	a.seed(t, "img_1", bob.UserID, 0, time.Now().UTC())

	rec := a.do(t, http.MethodGet, "/api/v1/admin/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/admin/items", a.token(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminTok := a.token(t, root)
	rec = a.do(t, http.MethodGet, "/api/v1/admin/items?owner=u_bob", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Items []domain.ContentItem `json:"items"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Items, 1)

	rec = a.do(t, http.MethodGet, "/api/v1/admin/items?before=yesterday", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/admin/users", adminTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/v1/admin/items/img_1", adminTok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/items/img_1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"fps", "ranked", "clutch"}, splitTags([]string{"fps, ranked", " clutch ", ""}))
	assert.Nil(t, splitTags(nil))
	assert.True(t, strings.HasPrefix(routeOf(httptest.NewRequest(http.MethodGet, "/x", nil)), "unmatched"))
}
