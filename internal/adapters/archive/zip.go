package archive

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/zip"
)

// unzip writes every member of archivePath under dir. Member names may use either
// separator; names that would climb out of dir are clamped inside it.
func unzip(ctx context.Context, archivePath, dir string) ([]writtenFile, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil && zr == nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "open archive %s", archivePath)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeDecode, "read archive %s", archivePath)
	}
	// A reader returned alongside an error only flags insecure member names,
	// which are clamped below.
	defer func() { _ = zr.Close() }()

	written := make([]writtenFile, 0, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.MapTransportError(err, "extract archive")
		}

		name := memberName(f.Name)
		if name == "" {
			continue
		}
		target, err := securejoin.SecureJoin(dir, name)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "resolve member %q", f.Name)
		}

		if isDirEntry(f) {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create directory %s", target)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		n, err := writeMember(f, target)
		if err != nil {
			return nil, err
		}
		written = append(written, writtenFile{path: target, size: n})
	}
	return dedupe(written), nil
}

// memberName normalises a stored name to a clean, relative, slash-separated path.
func memberName(raw string) string {
	name := strings.ReplaceAll(raw, `\`, "/")
	trailing := strings.HasSuffix(name, "/")
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return ""
	}
	if trailing {
		name += "/"
	}
	return name
}

func isDirEntry(f *zip.File) bool {
	return strings.HasSuffix(strings.ReplaceAll(f.Name, `\`, "/"), "/") || f.FileInfo().IsDir()
}

func writeMember(f *zip.File, target string) (written int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create directory for %s", target)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeDecode, "open member %q", f.Name)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(target)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create %s", target)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.Wrapf(cerr, apperrors.ErrCodeIO, "close %s", target)
		}
	}()

	src := &trackedReader{r: rc}
	written, err = io.Copy(out, src)
	if err != nil {
		if src.err != nil {
			return written, apperrors.Wrapf(src.err, apperrors.ErrCodeDecode, "decompress member %q", f.Name)
		}
		return written, apperrors.Wrapf(err, apperrors.ErrCodeIO, "write %s", target)
	}
	return written, nil
}

// trackedReader remembers the last non-EOF read error.
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
