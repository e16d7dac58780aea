package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/emersion/go-mbox"
	_ "github.com/emersion/go-message/charset" // register non-UTF-8 header charsets
	"github.com/emersion/go-message/mail"
)

var digitsPattern = regexp.MustCompile(`\d{6,15}`)

// callSubject reports whether a Voice export message carries a call recording.
func callSubject(subject string) bool {
	return strings.Contains(subject, "OUTGOING_CALL") ||
		strings.Contains(subject, "INCOMING_CALL") ||
		strings.Contains(strings.ToLower(subject), "recording")
}

// recordingAttachment reports whether an attachment name looks like a recording.
func recordingAttachment(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "recording") ||
		strings.HasSuffix(lower, ".mp3") ||
		strings.HasSuffix(lower, ".wav")
}

// extractRecordings writes the recording attachments of every call message in the
// mailbox next to it, named "+<digits>_<attachment>" so the counterpart number survives.
// A message that cannot be parsed is logged and skipped; recordings it yielded
// before the failure are kept.
func extractRecordings(ctx context.Context, mboxPath string, logger *slog.Logger) ([]writtenFile, error) {
	f, err := os.Open(mboxPath)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "open mailbox %s", mboxPath)
	}
	defer func() { _ = f.Close() }()

	dir := filepath.Dir(mboxPath)
	var written []writtenFile
	mr := mbox.NewReader(f)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.MapTransportError(err, "scan mailbox")
		}
		msg, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeDecode, "read mailbox %s", mboxPath)
		}
		recs, err := messageRecordings(msg, dir)
		written = append(written, recs...)
		if apperrors.IsDecode(err) {
			logger.WarnContext(ctx, "skipping unparsable mailbox message",
				"mailbox", mboxPath,
				"message", index,
				"error", err,
			)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

func messageRecordings(msg io.Reader, dir string) ([]writtenFile, error) {
	r, err := mail.CreateReader(msg)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDecode, "parse mailbox message")
	}
	defer func() { _ = r.Close() }()

	subject, _ := r.Header.Subject()
	if !callSubject(subject) {
		return nil, nil
	}
	counterpart := r.Header.Get("From")
	if strings.Contains(subject, "OUTGOING_CALL") {
		counterpart = r.Header.Get("To")
	}
	prefix := ""
	if digits := digitsPattern.FindString(counterpart); digits != "" {
		prefix = "+" + digits + "_"
	}

	var written []writtenFile
	for {
		part, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, apperrors.Wrap(err, apperrors.ErrCodeDecode, "read message part")
		}

		name, ok := octetStreamName(part.Header)
		if !ok || !recordingAttachment(name) {
			continue
		}
		w, err := writeRecording(dir, prefix+recordingFileName(name), part.Body)
		if err != nil {
			return written, err
		}
		written = append(written, w)
	}
}

// octetStreamName returns the file name of an application/octet-stream part.
func octetStreamName(h mail.PartHeader) (string, bool) {
	var (
		ct     string
		params map[string]string
		name   string
	)
	switch ph := h.(type) {
	case *mail.AttachmentHeader:
		ct, params, _ = ph.ContentType()
		name, _ = ph.Filename()
	case *mail.InlineHeader:
		ct, params, _ = ph.ContentType()
	default:
		return "", false
	}
	if !strings.EqualFold(ct, "application/octet-stream") {
		return "", false
	}
	if name == "" {
		name = params["name"]
	}
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return "", false
	}
	return name, true
}

// recordingFileName keeps known media names and gives the rest an .mp3 suffix,
// which is what Voice ships recordings as.
func recordingFileName(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".wav") {
		return name
	}
	return name + ".mp3"
}

func writeRecording(dir, name string, body io.Reader) (w writtenFile, err error) {
	target, err := uniquePath(dir, name)
	if err != nil {
		return writtenFile{}, err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return writtenFile{}, apperrors.Wrapf(err, apperrors.ErrCodeIO, "create %s", target)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.Wrapf(cerr, apperrors.ErrCodeIO, "close %s", target)
		}
	}()

	src := &trackedReader{r: body}
	n, err := io.Copy(out, src)
	if err != nil {
		if src.err != nil {
			return writtenFile{}, apperrors.Wrapf(src.err, apperrors.ErrCodeDecode, "decode attachment %s", name)
		}
		return writtenFile{}, apperrors.Wrapf(err, apperrors.ErrCodeIO, "write %s", target)
	}
	return writtenFile{path: target, size: n}, nil
}

// uniquePath picks dir/name, or dir/<stem>_<n><ext> when that is taken.
func uniquePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", apperrors.Wrapf(err, apperrors.ErrCodeIO, "stat %s", candidate)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}
