// Package drive publishes extracted recordings to a Google Drive folder.
package drive

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/Liad-hossain/test-voice-export/internal/ports"
	"github.com/dustin/go-humanize"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// MediaType is declared for every upload regardless of the source encoding.
const MediaType = "audio/wav"

// PublisherOptions groups dependencies for Publisher.
type PublisherOptions struct {
	Service *driveapi.Service
	Logger  *slog.Logger
}

// Publisher implements ports.Publisher with one multipart create request per file.
type Publisher struct {
	svc    *driveapi.Service
	logger *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher builds a Publisher.
func NewPublisher(opts PublisherOptions) (*Publisher, error) {
	if opts.Service == nil {
		return nil, apperrors.Validation("drive service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{svc: opts.Service, logger: logger.With("component", "drive_publisher")}, nil
}

// Publish uploads localPath into folderID under name. The file is streamed into the
// request body; only the new file id is requested back.
func (p *Publisher) Publish(ctx context.Context, localPath, folderID, name string) (model.UploadResult, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return model.UploadResult{}, apperrors.ValidationField("folder_id", "destination folder is required")
	}
	if strings.TrimSpace(name) == "" {
		return model.UploadResult{}, apperrors.ValidationField("name", "upload name is required")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return model.UploadResult{}, apperrors.Wrapf(err, apperrors.ErrCodeIO, "open %s", localPath)
	}
	defer func() { _ = f.Close() }()

	var size int64
	if fi, statErr := f.Stat(); statErr == nil {
		size = fi.Size()
	}

	meta := &driveapi.File{
		Name:     name,
		MimeType: MediaType,
		Parents:  []string{folderID},
	}

	start := time.Now()
	created, err := p.svc.Files.Create(meta).
		Media(f, googleapi.ContentType(MediaType), googleapi.ChunkSize(0)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return model.UploadResult{}, apperrors.MapTransportError(err, "upload "+name)
	}
	if created == nil || created.Id == "" {
		return model.UploadResult{}, apperrors.DataField("id", "upload response for "+name+" carried no file id")
	}

	p.logger.InfoContext(ctx, "file uploaded",
		"file_id", created.Id,
		"name", name,
		"source", localPath,
		"size", humanize.IBytes(uint64(size)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return model.UploadResult{ID: created.Id, Name: name, Source: localPath}, nil
}
