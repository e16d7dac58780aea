package testutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ZipEntry is one member of a test archive. Names ending in "/" become directory entries.
type ZipEntry struct {
	Name string
	Body []byte
}

// ZipBytes builds an in-memory ZIP archive holding entries in order.
func ZipBytes(t TestingTB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if strings.HasSuffix(e.Name, "/") {
			continue
		}
		if _, err := w.Write(e.Body); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes a ZIP archive at path and returns path.
func WriteZip(t TestingTB, path string, entries ...ZipEntry) string {
	t.Helper()
	WriteFile(t, path, ZipBytes(t, entries...))
	return path
}

// WriteFile writes data at path, creating parent directories.
func WriteFile(t TestingTB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// CallMessage describes one Voice call message in a test mailbox.
type CallMessage struct {
	From       string
	To         string
	Subject    string
	Attachment string
	Body       []byte
}

// MailboxBytes renders messages as an mbox file with base64 octet-stream attachments.
func MailboxBytes(messages ...CallMessage) []byte {
	var b strings.Builder
	for i, m := range messages {
		boundary := fmt.Sprintf("boundary-%d", i)
		fmt.Fprintf(&b, "From voice-noreply@google.com Mon Jan  1 12:00:00 2024\r\n")
		fmt.Fprintf(&b, "From: %s\r\n", m.From)
		fmt.Fprintf(&b, "To: %s\r\n", m.To)
		fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
		fmt.Fprintf(&b, "Date: Mon, 01 Jan 2024 12:00:00 +0000\r\n")
		fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
		fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
		fmt.Fprintf(&b, "Call details\r\n")
		if m.Attachment != "" {
			fmt.Fprintf(&b, "--%s\r\n", boundary)
			fmt.Fprintf(&b, "Content-Type: application/octet-stream; name=%q\r\n", m.Attachment)
			fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", m.Attachment)
			fmt.Fprintf(&b, "Content-Transfer-Encoding: base64\r\n\r\n")
			fmt.Fprintf(&b, "%s\r\n", base64.StdEncoding.EncodeToString(m.Body))
		}
		fmt.Fprintf(&b, "--%s--\r\n\r\n", boundary)
	}
	return []byte(b.String())
}
