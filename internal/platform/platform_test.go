package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"clipshare/internal/config"
	"clipshare/internal/dbmongo"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"
	"clipshare/internal/gallery"
	"clipshare/internal/notif"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	owner = domain.Session{UserID: "u_owner", Username: "owner", Role: domain.RoleUser}
	alice = domain.Session{UserID: "u_alice", Username: "alice", Role: domain.RoleUser}
	admin = domain.Session{UserID: "u_admin", Username: "root", Role: domain.RoleAdmin}
	fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type MockNotifications struct {
	mock.Mock
}

func (m *MockNotifications) SendNotificationAsync(event notif.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

type fakeBlobs struct {
	mu        sync.Mutex
	next      int
	files     map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{files: make(map[string][]byte)}
}

func (f *fakeBlobs) UploadFile(ctx context.Context, up dbmongo.Upload) (*dbmongo.MediaFile, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	var buf bytes.Buffer
	chunk := make([]byte, 4)
	for {
		n, err := up.Content.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if up.Progress != nil {
				up.Progress(int64(buf.Len()), up.Size)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("%024x", f.next)
	f.files[id] = buf.Bytes()
	return &dbmongo.MediaFile{
		ID:          id,
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        int64(buf.Len()),
		Kind:        domain.KindFromMIME(up.ContentType),
		UploadedBy:  up.UploaderID,
		UploadedAt:  fixed,
	}, nil
}

func (f *fakeBlobs) DeleteFile(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	delete(f.files, fileID)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, dbmysql.Migrate(db))
	return db
}

func newTestPlatform(t *testing.T) (*Platform, *gorm.DB, *fakeBlobs, *MockNotifications) {
	t.Helper()
	db := newTestDB(t)
	blobs := newFakeBlobs()
	notes := new(MockNotifications)
	cfg := &config.Config{
		Server: config.ServerConfig{MediaBaseURL: "http://media.test/media"},
		Upload: config.UploadConfig{MaxBytes: 64},
	}
	p := New(db, blobs, notes, cfg, nil)
	p.now = func() time.Time { return fixed }
	return p, db, blobs, notes
}

func seedItem(t *testing.T, db *gorm.DB, id, ownerID string, likes int64) {
	t.Helper()
	require.NoError(t, dbmysql.NewItemRepository(db).Create(context.Background(), &dbmysql.Item{
		ID:        id,
		Title:     "Imagem " + id,
		MediaURL:  "http://media.test/media/" + id,
		Kind:      string(domain.KindImage),
		OwnerID:   ownerID,
		LikeCount: likes,
		CreatedAt: fixed,
	}))
}

func TestPlatform_BackendOperations(t *testing.T) {
	p, db, _, _ := newTestPlatform(t)
	ctx := context.Background()
	seedItem(t, db, "img_1", owner.UserID, 3)
	seedItem(t, db, "img_2", owner.UserID, 0)

	items, err := p.ListItems(ctx, domain.ItemQuery{OwnerID: owner.UserID})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, p.InsertMembership(ctx, alice.UserID, "img_1", domain.RelationSaved))
	err = p.InsertMembership(ctx, alice.UserID, "img_1", domain.RelationSaved)
	assert.True(t, errors.Is(err, domain.ErrDuplicateMembership))
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	err = p.InsertMembership(ctx, alice.UserID, "ghost", domain.RelationSaved)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	ids, err := p.ListMembership(ctx, alice.UserID, domain.RelationSaved)
	require.NoError(t, err)
	assert.Equal(t, []string{"img_1"}, ids)

	member, err := p.IsMember(ctx, alice.UserID, "img_1", domain.RelationSaved)
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, p.AdjustCounter(ctx, "img_1", 1))
	item, err := p.Item(ctx, "img_1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), item.LikeCount)

	require.NoError(t, p.DeleteMembership(ctx, alice.UserID, "img_1", domain.RelationSaved))
	err = p.DeleteMembership(ctx, alice.UserID, "img_1", domain.RelationSaved)
	assert.True(t, errors.Is(err, domain.ErrMissingMembership))
}

func TestPlatform_CurrentSession(t *testing.T) {
	p, _, _, _ := newTestPlatform(t)

	s, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
}

func TestPlatform_CreateNotification(t *testing.T) {
	p, _, _, notes := newTestPlatform(t)
	notes.On("SendNotificationAsync", notif.Event{Type: notif.TypeLike, UserID: "u_owner", Message: "oi"}).Return(nil).Once()

	require.NoError(t, p.CreateNotification(context.Background(), "u_owner", "oi", "like"))
	notes.AssertExpectations(t)

	p.notifications = nil
	assert.NoError(t, p.CreateNotification(context.Background(), "u_owner", "oi", "like"))
}

func TestPlatform_GalleryToggleEndToEnd(t *testing.T) {
	p, db, _, notes := newTestPlatform(t)
	ctx := context.Background()
	seedItem(t, db, "img_1", owner.UserID, 10)

	notes.On("SendNotificationAsync", mock.MatchedBy(func(e notif.Event) bool {
		return e.Type == notif.TypeLike && e.UserID == owner.UserID && strings.Contains(e.Message, "alice curtiu")
	})).Return(nil).Once()

	loader := gallery.NewLoader(p, nil)
	rec := gallery.NewReconciler(p, nil, gallery.Policy{CompensationAttempts: 1}, nil)

	v, err := loader.Open(ctx, alice, gallery.Query{Scope: gallery.ScopeAll}, nil)
	require.NoError(t, err)
	defer v.Close()

	res, err := rec.Toggle(ctx, v, "img_1", domain.RelationLiked)
	require.NoError(t, err)
	assert.True(t, res.Member)
	assert.Equal(t, int64(11), res.LikeCount)
	rec.Wait()

	stored, err := p.Item(ctx, "img_1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), stored.LikeCount)

	res, err = rec.Toggle(ctx, v, "img_1", domain.RelationLiked)
	require.NoError(t, err)
	assert.False(t, res.Member)
	stored, err = p.Item(ctx, "img_1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.LikeCount)

	notes.AssertExpectations(t)
}

func uploadRequest(body string) UploadRequest {
	return UploadRequest{
		Title:       "Clutch 1v4",
		Description: "round final",
		Tags:        []string{"FPS", " clutch "},
		Game:        "Valorant",
		FileName:    "clutch.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	}
}

func TestPlatform_Upload(t *testing.T) {
	p, db, blobs, _ := newTestPlatform(t)
	ctx := context.Background()

	var seen int64
	req := uploadRequest("0123456789abcdef")
	req.OnProgress = func(written, _ int64) { seen = written }

	res, err := p.Upload(ctx, alice, req)
	require.NoError(t, err)
	assert.Equal(t, int64(16), res.Bytes)
	assert.Equal(t, int64(16), seen)
	assert.Equal(t, []int{25, 50, 75, 100}, res.Milestones)
	assert.Equal(t, domain.KindImage, res.Item.Kind)
	assert.Equal(t, alice.UserID, res.Item.OwnerID)
	assert.Equal(t, []string{"fps", "clutch"}, res.Item.Tags)
	assert.True(t, strings.HasPrefix(res.Item.MediaURL, "http://media.test/media/"))
	assert.Equal(t, res.Item.MediaURL, res.Item.ThumbnailURL)

	ref, err := dbmysql.NewMediaRefRepository(db).ByItem(ctx, res.Item.ID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "0123456789abcdef", string(blobs.files[ref.FileID]))

	gif := uploadRequest("GIF89a")
	gif.ContentType = "image/gif"
	res, err = p.Upload(ctx, alice, gif)
	require.NoError(t, err)
	assert.Equal(t, domain.KindGIF, res.Item.Kind)

	clip := uploadRequest("mp4data")
	clip.ContentType = "video/mp4"
	clip.Duration = 42
	res, err = p.Upload(ctx, alice, clip)
	require.NoError(t, err)
	assert.Equal(t, domain.KindClip, res.Item.Kind)
	assert.Equal(t, 42, res.Item.Duration)
	assert.Empty(t, res.Item.ThumbnailURL)
}

// bareBlobs stores bytes without classifying them, like a plain object store.
type bareBlobs struct{ *fakeBlobs }

func (b bareBlobs) UploadFile(ctx context.Context, up dbmongo.Upload) (*dbmongo.MediaFile, error) {
	f, err := b.fakeBlobs.UploadFile(ctx, up)
	if err != nil {
		return nil, err
	}
	f.Kind = ""
	return f, nil
}

func TestPlatform_UploadKindFromContentType(t *testing.T) {
	p, _, blobs, _ := newTestPlatform(t)
	p.blobs = bareBlobs{blobs}
	ctx := context.Background()

	tests := []struct {
		contentType string
		want        domain.ItemKind
	}{
		{"image/png", domain.KindImage},
		{"image/gif", domain.KindGIF},
		{"video/webm", domain.KindClip},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			req := uploadRequest("payload")
			req.ContentType = tt.contentType
			res, err := p.Upload(ctx, alice, req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Item.Kind)

			stored, err := p.Item(ctx, res.Item.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Kind)
		})
	}
}

func TestPlatform_UploadRejects(t *testing.T) {
	p, db, blobs, _ := newTestPlatform(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		session domain.Session
		mutate  func(*UploadRequest)
		kind    domain.ErrorKind
		msg     string
	}{
		{"anonymous", domain.Anonymous(), func(*UploadRequest) {}, domain.KindUnauthenticated, ""},
		{"pdf", alice, func(r *UploadRequest) { r.ContentType = "application/pdf" }, domain.KindInvalid, "formato inválido"},
		{"declared too large", alice, func(r *UploadRequest) { r.Size = 65 }, domain.KindInvalid, "arquivo muito grande"},
		{"short title", alice, func(r *UploadRequest) { r.Title = " ab " }, domain.KindInvalid, "3 caracteres"},
		{"no tags", alice, func(r *UploadRequest) { r.Tags = []string{" "} }, domain.KindInvalid, "tag"},
		{"no file", alice, func(r *UploadRequest) { r.Content = nil }, domain.KindInvalid, "não selecionada"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := uploadRequest("data")
			tc.mutate(&req)
			_, err := p.Upload(ctx, tc.session, req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.KindOf(err))
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}

	t.Run("stream larger than declared", func(t *testing.T) {
		req := uploadRequest(strings.Repeat("x", 100))
		req.Size = 0
		_, err := p.Upload(ctx, alice, req)
		assert.Equal(t, domain.KindInvalid, domain.KindOf(err))
		assert.Len(t, blobs.deleted, 1)
		assert.Empty(t, blobs.files)
	})

	t.Run("storage failure", func(t *testing.T) {
		blobs.uploadErr = errors.New("gridfs down")
		defer func() { blobs.uploadErr = nil }()
		_, err := p.Upload(ctx, alice, uploadRequest("data"))
		assert.Equal(t, domain.KindRemoteMutation, domain.KindOf(err))
	})

	var count int64
	require.NoError(t, db.Model(&dbmysql.Item{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlatform_DeleteItem(t *testing.T) {
	p, db, blobs, notes := newTestPlatform(t)
	ctx := context.Background()
	notes.On("SendNotificationAsync", mock.Anything).Return(nil)

	res, err := p.Upload(ctx, owner, uploadRequest("bytes"))
	require.NoError(t, err)
	id := res.Item.ID

	require.NoError(t, p.InsertMembership(ctx, alice.UserID, id, domain.RelationLiked))
	_, err = p.AddComment(ctx, alice, id, nil, "boa")
	require.NoError(t, err)

	assert.True(t, errors.Is(p.DeleteItem(ctx, domain.Anonymous(), id), domain.ErrUnauthenticated))
	assert.True(t, errors.Is(p.DeleteItem(ctx, alice, id), domain.ErrForbidden))
	assert.True(t, errors.Is(p.DeleteItem(ctx, owner, "missing"), domain.ErrNotFound))

	require.NoError(t, p.DeleteItem(ctx, owner, id))

	_, err = p.Item(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	ids, err := p.ListMembership(ctx, alice.UserID, domain.RelationLiked)
	require.NoError(t, err)
	assert.Empty(t, ids)
	var comments int64
	require.NoError(t, db.Model(&dbmysql.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)
	assert.Len(t, blobs.deleted, 1)
	ref, err := dbmysql.NewMediaRefRepository(db).ByItem(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, ref)

	seedItem(t, db, "img_9", owner.UserID, 0)
	assert.NoError(t, p.DeleteItem(ctx, admin, "img_9"))
}

func TestPlatform_RecordViewAndAdminItems(t *testing.T) {
	p, db, _, _ := newTestPlatform(t)
	ctx := context.Background()
	seedItem(t, db, "clip_1", owner.UserID, 0)

	views, err := p.RecordView(ctx, "clip_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)
	views, err = p.RecordView(ctx, "clip_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)

	_, err = p.RecordView(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = p.AdminItems(ctx, alice, domain.ItemQuery{})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	items, err := p.AdminItems(ctx, admin, domain.ItemQuery{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPlatform_Comments(t *testing.T) {
	p, db, _, notes := newTestPlatform(t)
	ctx := context.Background()
	seedItem(t, db, "img_1", owner.UserID, 0)
	seedItem(t, db, "img_2", owner.UserID, 0)

	notes.On("SendNotificationAsync", mock.MatchedBy(func(e notif.Event) bool {
		return e.Type == notif.TypeComment && e.UserID == owner.UserID && e.Message == `alice comentou em "Imagem img_1"`
	})).Return(nil).Once()
	notes.On("SendNotificationAsync", mock.MatchedBy(func(e notif.Event) bool {
		return e.Type == notif.TypeComment && e.UserID == alice.UserID && strings.Contains(e.Message, "respondeu")
	})).Return(nil).Once()

	top, err := p.AddComment(ctx, alice, "img_1", nil, "  que jogada  ")
	require.NoError(t, err)
	assert.Equal(t, "que jogada", top.Content)

	p.now = func() time.Time { return fixed.Add(time.Minute) }
	reply, err := p.AddComment(ctx, owner, "img_1", &top.ID, "valeu!")
	require.NoError(t, err)
	assert.Equal(t, top.ID, *reply.ParentID)

	_, err = p.AddComment(ctx, alice, "img_1", &reply.ID, "nested")
	assert.True(t, errors.Is(err, domain.ErrInvalid))
	_, err = p.AddComment(ctx, alice, "img_2", &top.ID, "wrong item")
	assert.True(t, errors.Is(err, domain.ErrInvalid))
	_, err = p.AddComment(ctx, alice, "img_1", nil, "   ")
	assert.True(t, errors.Is(err, domain.ErrInvalid))
	_, err = p.AddComment(ctx, domain.Anonymous(), "img_1", nil, "oi")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	_, err = p.AddComment(ctx, alice, "missing", nil, "oi")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	thread, err := p.Comments(ctx, "img_1")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, top.ID, thread[0].ID)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, "valeu!", thread[0].Replies[0].Content)

	_, err = p.Comments(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	notes.AssertExpectations(t)
}
