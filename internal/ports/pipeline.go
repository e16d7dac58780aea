// Package ports defines the capabilities the export pipeline consumes.
// Implementations live in internal/adapters; orchestration in internal/service/pipeline.
package ports

import (
	"context"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
)

// TokenProvider returns the current bearer token for outbound requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// JobFinder selects the export job the pipeline should retrieve.
type JobFinder interface {
	// FindCompleted returns the first completed export for the matter in service order.
	// ok is false, with a nil error, when no job qualifies.
	FindCompleted(ctx context.Context, matterID string) (job model.ExportJob, ok bool, err error)
}

// ArchiveFetcher streams an exported blob to a local staging path.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, ref model.BlobRef, dest string) (model.StagingArchive, error)
}

// ArchiveExtractor unpacks a staging archive into a directory.
type ArchiveExtractor interface {
	// Extract returns the regular files written under destDir.
	Extract(ctx context.Context, archivePath, destDir string) ([]model.ExtractedMember, error)
}

// Publisher uploads a local file to the destination store.
type Publisher interface {
	Publish(ctx context.Context, localPath, folderID, name string) (model.UploadResult, error)
}

// NameDeriver computes the published name for a member base name.
type NameDeriver interface {
	Name(baseName string) string
}

// RunLock guards against two runs operating on the same matter at once.
type RunLock interface {
	// Acquire returns false, with a nil error, when another holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
