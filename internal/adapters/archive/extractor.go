// Package archive unpacks downloaded export archives onto local disk.
package archive

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/Liad-hossain/test-voice-export/internal/ports"
	"github.com/dustin/go-humanize"
)

// Options configures optional post-processing of an extracted archive.
type Options struct {
	// ExpandNested unpacks each member ending in .zip into a sibling directory named
	// after it without the extension, or with ".d" appended when that name is a file.
	ExpandNested bool
	// MailboxRecordings writes call recordings attached to messages of .mbox members.
	MailboxRecordings bool
	Logger            *slog.Logger
}

// Extractor implements ports.ArchiveExtractor for ZIP containers.
type Extractor struct {
	expandNested bool
	recordings   bool
	logger       *slog.Logger
}

var _ ports.ArchiveExtractor = (*Extractor)(nil)

// NewExtractor builds an Extractor.
func NewExtractor(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		expandNested: opts.ExpandNested,
		recordings:   opts.MailboxRecordings,
		logger:       logger.With("component", "archive_extractor"),
	}
}

// Extract unpacks archivePath under destDir and returns every regular file written,
// in archive order. Nested archives and mailbox recordings, when enabled, are appended
// after the member that produced them. A path written more than once is listed once,
// at the position of its last write. Members written before a failure stay on disk.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) ([]model.ExtractedMember, error) {
	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "resolve %s", destDir)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create extraction directory %s", root)
	}

	written, err := unzip(ctx, archivePath, root)
	if err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "archive extracted",
		"archive", archivePath,
		"dest", root,
		"members", len(written),
		"size", humanize.IBytes(uint64(totalSize(written))),
	)

	if e.expandNested {
		if written, err = e.expand(ctx, root, written); err != nil {
			return nil, err
		}
	}
	if e.recordings {
		if written, err = e.mailboxes(ctx, root, written); err != nil {
			return nil, err
		}
	}

	written = dedupe(written)
	members := make([]model.ExtractedMember, 0, len(written))
	for _, w := range written {
		rel, err := filepath.Rel(root, w.path)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "relativize %s", w.path)
		}
		members = append(members, model.ExtractedMember{
			RelPath: filepath.ToSlash(rel),
			AbsPath: w.path,
			Size:    w.size,
		})
	}
	return members, nil
}

func (e *Extractor) expand(ctx context.Context, root string, written []writtenFile) ([]writtenFile, error) {
	out := make([]writtenFile, 0, len(written))
	for _, w := range written {
		out = append(out, w)
		if !hasSuffixFold(w.path, ".zip") {
			continue
		}
		dir := nestedDir(w.path)
		inner, err := unzip(ctx, w.path, dir)
		if err != nil {
			return nil, err
		}
		e.logger.InfoContext(ctx, "nested archive expanded",
			"archive", relOrAbs(root, w.path),
			"dest", relOrAbs(root, dir),
			"members", len(inner),
		)
		out = append(out, inner...)
	}
	return out, nil
}

func (e *Extractor) mailboxes(ctx context.Context, root string, written []writtenFile) ([]writtenFile, error) {
	out := make([]writtenFile, 0, len(written))
	for _, w := range written {
		out = append(out, w)
		if !hasSuffixFold(w.path, ".mbox") {
			continue
		}
		recs, err := extractRecordings(ctx, w.path, e.logger)
		if err != nil {
			return nil, err
		}
		e.logger.InfoContext(ctx, "mailbox scanned",
			"mailbox", relOrAbs(root, w.path),
			"recordings", len(recs),
		)
		out = append(out, recs...)
	}
	return out, nil
}

// nestedDir names the directory a nested archive is expanded into.
func nestedDir(archivePath string) string {
	dir := archivePath[:len(archivePath)-len(filepath.Ext(archivePath))]
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		return archivePath + ".d"
	}
	return dir
}

// dedupe keeps one entry per path, at the position and size of its last write.
func dedupe(files []writtenFile) []writtenFile {
	last := make(map[string]int, len(files))
	for i, f := range files {
		last[f.path] = i
	}
	if len(last) == len(files) {
		return files
	}
	out := make([]writtenFile, 0, len(last))
	for i, f := range files {
		if last[f.path] == i {
			out = append(out, f)
		}
	}
	return out
}

type writtenFile struct {
	path string
	size int64
}

func totalSize(files []writtenFile) int64 {
	var n int64
	for _, f := range files {
		n += f.size
	}
	return n
}

func hasSuffixFold(name, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(name), suffix)
}

func relOrAbs(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}
