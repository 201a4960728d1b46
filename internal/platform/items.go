package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"clipshare/internal/common"
	"clipshare/internal/dbmongo"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadRequest is one multipart upload: metadata plus the file stream.
type UploadRequest struct {
	Title       string
	Description string
	Tags        []string
	Game        string
	Duration    int
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
	OnProgress  dbmongo.ProgressFunc
}

type UploadResult struct {
	Item  domain.ContentItem `json:"item"`
	Bytes int64              `json:"bytes"`
	// Milestones are the percentages reached while streaming, in order.
	Milestones []int `json:"milestones,omitempty"`
}

var (
	errBadFormat   = errors.New("formato inválido: selecione uma imagem, GIF ou clipe")
	errTooLarge    = errors.New("arquivo muito grande")
	errNoFile      = errors.New("imagem não selecionada")
	errNoTags      = errors.New("selecione pelo menos uma tag")
	errShortTitle  = errors.New("o título deve ter pelo menos 3 caracteres")
	errNoBlobStore = errors.New("media storage unavailable")
)

func (p *Platform) Item(ctx context.Context, id string) (domain.ContentItem, error) {
	row, err := p.items.ByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, err
	}
	return row.ToDomain(), nil
}

// Upload streams the file into media storage and records the item.
func (p *Platform) Upload(ctx context.Context, s domain.Session, req UploadRequest) (*UploadResult, error) {
	const op = "upload"
	if !s.Authenticated() {
		return nil, domain.E(domain.KindUnauthenticated, op, nil)
	}
	if err := p.validateUpload(&req); err != nil {
		return nil, domain.E(domain.KindInvalid, op, err)
	}
	kind := domain.KindFromMIME(req.ContentType)
	if !kind.Valid() {
		return nil, domain.E(domain.KindInvalid, op, errBadFormat)
	}
	if p.blobs == nil {
		return nil, domain.E(domain.KindRemoteMutation, op, errNoBlobStore)
	}

	res := &UploadResult{}
	progress := p.progressTracker(s.UserID, req, res)

	file, err := p.blobs.UploadFile(ctx, dbmongo.Upload{
		Filename:    req.FileName,
		ContentType: req.ContentType,
		UploaderID:  s.UserID,
		Size:        req.Size,
		Content:     io.LimitReader(req.Content, p.maxUpload+1),
		Progress:    progress,
	})
	if err != nil {
		return nil, domain.E(domain.KindRemoteMutation, op, err)
	}
	if file.Size > p.maxUpload {
		p.discardBlob(ctx, file.ID)
		return nil, domain.E(domain.KindInvalid, op, errTooLarge)
	}
	if file.Size == 0 {
		p.discardBlob(ctx, file.ID)
		return nil, domain.E(domain.KindInvalid, op, errNoFile)
	}

	mediaURL := dbmysql.MediaURL(p.mediaBaseURL, file.ID)
	row := &dbmysql.Item{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		MediaURL:    mediaURL,
		Kind:        string(kind),
		OwnerID:     s.UserID,
		Tags:        dbmysql.JoinTags(req.Tags),
		Game:        strings.TrimSpace(req.Game),
		CreatedAt:   p.now(),
	}
	if kind == domain.KindClip {
		row.Duration = req.Duration
	} else {
		row.ThumbnailURL = mediaURL
	}

	if err := p.items.Create(ctx, row); err != nil {
		p.discardBlob(ctx, file.ID)
		return nil, domain.E(domain.KindRemoteMutation, op, err)
	}

	ref := &dbmysql.MediaRef{
		FileID:      file.ID,
		ItemID:      row.ID,
		FileName:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		UploadedBy:  s.UserID,
		CreatedAt:   file.UploadedAt,
	}
	if err := p.mediaRefs.Create(ctx, ref); err != nil {
		_ = p.items.Delete(ctx, row.ID)
		p.discardBlob(ctx, file.ID)
		return nil, domain.E(domain.KindRemoteMutation, op, err)
	}

	p.metrics.UploadBytes.WithLabelValues(string(kind)).Add(float64(file.Size))
	p.log.Info("item uploaded",
		zap.String("item_id", row.ID),
		zap.String("owner_id", s.UserID),
		zap.String("kind", row.Kind),
		zap.Int64("bytes", file.Size),
	)

	res.Item = row.ToDomain()
	res.Bytes = file.Size
	return res, nil
}

func (p *Platform) validateUpload(req *UploadRequest) error {
	if req.Content == nil {
		return errNoFile
	}
	ct := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") {
		return errBadFormat
	}
	req.ContentType = ct
	if req.Size > p.maxUpload {
		return fmt.Errorf("%w (máximo %dMB)", errTooLarge, p.maxUpload/(1024*1024))
	}
	if len([]rune(strings.TrimSpace(req.Title))) < 3 {
		return errShortTitle
	}
	if err := common.ValidateText("title", req.Title, true, 255); err != nil {
		return err
	}
	if err := common.ValidateText("description", req.Description, false, 2000); err != nil {
		return err
	}
	if dbmysql.JoinTags(req.Tags) == "" {
		return errNoTags
	}
	if req.FileName == "" {
		req.FileName = uuid.NewString()
	}
	return nil
}

// progressTracker logs each quarter of the expected size once and forwards
// raw byte counts to the caller's callback.
func (p *Platform) progressTracker(userID string, req UploadRequest, res *UploadResult) dbmongo.ProgressFunc {
	next := 25
	return func(written, total int64) {
		if req.OnProgress != nil {
			req.OnProgress(written, total)
		}
		if total <= 0 {
			return
		}
		for next <= 100 && written*100 >= int64(next)*total {
			res.Milestones = append(res.Milestones, next)
			p.log.Debug("upload progress",
				zap.String("user_id", userID),
				zap.String("file", req.FileName),
				zap.Int("percent", next),
			)
			next += 25
		}
	}
}

func (p *Platform) discardBlob(ctx context.Context, fileID string) {
	if err := p.blobs.DeleteFile(context.WithoutCancel(ctx), fileID); err != nil {
		p.log.Warn("failed to discard uploaded file", zap.String("file_id", fileID), zap.Error(err))
	}
}

// DeleteItem removes an item with its memberships, comments and media. Only
// the owner or an admin may delete.
func (p *Platform) DeleteItem(ctx context.Context, s domain.Session, itemID string) error {
	const op = "delete item"
	if !s.Authenticated() {
		return domain.E(domain.KindUnauthenticated, op, nil)
	}
	row, err := p.items.ByID(ctx, itemID)
	if err != nil {
		return err
	}
	if row.OwnerID != s.UserID && !s.IsAdmin() {
		return domain.E(domain.KindForbidden, op, fmt.Errorf("item %s belongs to another user", itemID))
	}

	if err := p.members.DeleteForItem(ctx, itemID); err != nil {
		return domain.E(domain.KindRemoteMutation, op, err)
	}
	if err := p.comments.DeleteForItem(ctx, itemID); err != nil {
		return domain.E(domain.KindRemoteMutation, op, err)
	}

	ref, err := p.mediaRefs.ByItem(ctx, itemID)
	if err != nil {
		p.log.Warn("failed to look up media for deleted item", zap.String("item_id", itemID), zap.Error(err))
	}
	if ref != nil {
		if p.blobs != nil {
			if err := p.blobs.DeleteFile(ctx, ref.FileID); err != nil {
				p.log.Warn("failed to delete media file", zap.String("file_id", ref.FileID), zap.Error(err))
			}
		}
		if err := p.mediaRefs.Delete(ctx, ref.FileID); err != nil {
			p.log.Warn("failed to delete media ref", zap.String("file_id", ref.FileID), zap.Error(err))
		}
	}

	if err := p.items.Delete(ctx, itemID); err != nil {
		return err
	}
	p.log.Info("item deleted", zap.String("item_id", itemID), zap.String("by", s.UserID), zap.Bool("admin", s.IsAdmin()))
	return nil
}

// RecordView counts one playback or detail view.
func (p *Platform) RecordView(ctx context.Context, itemID string) (int64, error) {
	if err := p.items.IncrementViews(ctx, itemID); err != nil {
		return 0, err
	}
	row, err := p.items.ByID(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return row.ViewCount, nil
}

// AdminItems lists every item for the admin panel.
func (p *Platform) AdminItems(ctx context.Context, s domain.Session, q domain.ItemQuery) ([]domain.ContentItem, error) {
	if !s.IsAdmin() {
		return nil, domain.E(domain.KindForbidden, "admin items", nil)
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	return p.ListItems(ctx, q)
}
