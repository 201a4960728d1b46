package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"clipshare/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProgressFunc receives the running total of bytes written and the expected
// total (0 when unknown).
type ProgressFunc func(written, total int64)

type MediaStorage struct {
	gridFS *gridfs.Bucket
	now    func() time.Time
}

func NewMediaStorage(mongoClient *MongoClient) *MediaStorage {
	return &MediaStorage{
		gridFS: mongoClient.GridFS,
		now:    time.Now,
	}
}

type MediaFile struct {
	ID          string          `json:"id"` // GridFS ObjectID hex
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	Size        int64           `json:"size"`
	Kind        domain.ItemKind `json:"kind"`
	UploadedBy  string          `json:"uploaded_by"`
	UploadedAt  time.Time       `json:"uploaded_at"`
}

// Upload describes one file to stream into GridFS.
type Upload struct {
	Filename    string
	ContentType string
	UploaderID  string
	Size        int64 // expected size for progress reporting, 0 if unknown
	Content     io.Reader
	Progress    ProgressFunc
}

func (ms *MediaStorage) UploadFile(ctx context.Context, up Upload) (*MediaFile, error) {
	kind := domain.KindFromMIME(up.ContentType)
	uploadedAt := ms.now()

	metadata := bson.M{
		"kind":        string(kind),
		"mime_type":   up.ContentType,
		"uploaded_by": up.UploaderID,
		"uploaded_at": uploadedAt,
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := ms.gridFS.OpenUploadStream(up.Filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	src := &countingReader{r: up.Content, total: up.Size, progress: up.Progress}
	size, err := io.Copy(stream, src)
	if err != nil {
		_ = stream.Abort()
		return nil, fmt.Errorf("file copy failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("upload finalize failed: %w", err)
	}

	fileID, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("upload returned a non-ObjectID file id")
	}

	return &MediaFile{
		ID:          fileID.Hex(),
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        size,
		Kind:        kind,
		UploadedBy:  up.UploaderID,
		UploadedAt:  uploadedAt,
	}, nil
}

// DownloadFile returns an open stream; the caller closes it.
func (ms *MediaStorage) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, *MediaFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, domain.E(domain.KindNotFound, "download media", fmt.Errorf("invalid file ID: %w", err))
	}

	stream, err := ms.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.E(domain.KindNotFound, "download media", err)
		}
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		_ = bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	return stream, &MediaFile{
		ID:          fileID,
		Filename:    fileInfo.Name,
		ContentType: getStringFromMap(metadata, "mime_type"),
		Size:        fileInfo.Length,
		Kind:        domain.ItemKind(getStringFromMap(metadata, "kind")),
		UploadedBy:  getStringFromMap(metadata, "uploaded_by"),
		UploadedAt:  fileInfo.UploadDate,
	}, nil
}

func (ms *MediaStorage) DeleteFile(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID: %w", err)
	}
	return ms.gridFS.DeleteContext(ctx, objectID)
}

// countingReader reports bytes as they leave the source.
type countingReader struct {
	r        io.Reader
	read     int64
	total    int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		if c.progress != nil {
			c.progress(c.read, c.total)
		}
	}
	return n, err
}

func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
