// Package gcs downloads exported objects from Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/Liad-hossain/test-voice-export/internal/ports"
	"github.com/dustin/go-humanize"
)

// DefaultEndpoint is the public object download host.
const DefaultEndpoint = "https://storage.googleapis.com"

// errorExcerptLimit caps how much of a failed response body ends up in the error.
const errorExcerptLimit = 512

// Config configures a Fetcher.
type Config struct {
	Endpoint string
	Tokens   ports.TokenProvider
	// Client performs the download. It must not impose a whole-request timeout
	// shorter than the largest archive takes to stream.
	Client *http.Client
	Logger *slog.Logger
}

// Fetcher implements ports.ArchiveFetcher with a single authenticated streaming GET.
type Fetcher struct {
	endpoint string
	tokens   ports.TokenProvider
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.ArchiveFetcher = (*Fetcher)(nil)

// NewFetcher builds a Fetcher.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if cfg.Tokens == nil {
		return nil, apperrors.Validation("token provider is required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid storage endpoint")
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		endpoint: endpoint,
		tokens:   cfg.Tokens,
		client:   hc,
		logger:   logger.With("component", "gcs_fetcher"),
	}, nil
}

// ObjectURL renders <endpoint>/<bucket>/<object> with every path segment escaped.
func (f *Fetcher) ObjectURL(ref model.BlobRef) string {
	segments := strings.Split(ref.Object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return f.endpoint + "/" + url.PathEscape(ref.Bucket) + "/" + strings.Join(segments, "/")
}

// Fetch streams the object to dest. The file is complete only when Fetch returns nil;
// on failure a partial file may be left in place.
func (f *Fetcher) Fetch(ctx context.Context, ref model.BlobRef, dest string) (model.StagingArchive, error) {
	if err := ref.Validate(); err != nil {
		return model.StagingArchive{}, apperrors.Wrap(err, apperrors.ErrCodeData, "fetch archive")
	}

	token, err := f.tokens.Token(ctx)
	if err != nil {
		return model.StagingArchive{}, asAuthError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ObjectURL(ref), nil)
	if err != nil {
		return model.StagingArchive{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create download request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return model.StagingArchive{}, apperrors.MapTransportError(err, "download "+ref.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorExcerptLimit))
		return model.StagingArchive{}, apperrors.HTTPStatus("download "+ref.String(), resp.StatusCode, string(excerpt))
	}

	written, err := writeFile(dest, resp.Body)
	if err != nil {
		return model.StagingArchive{}, err
	}

	f.logger.InfoContext(ctx, "archive downloaded",
		"source", ref.String(),
		"path", dest,
		"bytes", written,
		"size", humanize.IBytes(uint64(written)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return model.StagingArchive{Path: dest, Bytes: written, Source: ref}, nil
}

// writeFile copies body into a freshly created file, telling source failures apart
// from local ones. The file is closed on every path.
func writeFile(dest string, body io.Reader) (written int64, err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create staging directory for %s", dest)
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create %s", dest)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.Wrapf(cerr, apperrors.ErrCodeIO, "close %s", dest)
		}
	}()

	src := &sourceReader{r: body}
	written, err = io.Copy(out, src)
	if err != nil {
		if src.err != nil {
			return written, apperrors.MapTransportError(src.err, "read archive stream")
		}
		return written, apperrors.Wrapf(err, apperrors.ErrCodeIO, "write %s", dest)
	}
	return written, nil
}

// sourceReader remembers the last non-EOF read error so io.Copy failures can be attributed.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}

func asAuthError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(err, apperrors.ErrCodeAuth, "obtain access token")
}
