package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Liad-hossain/test-voice-export/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_MailboxRecordings(t *testing.T) {
	tmp := t.TempDir()
	mailbox := testutil.MailboxBytes(
		testutil.CallMessage{
			From:       "+15550001111",
			To:         "+15552223333",
			Subject:    "OUTGOING_CALL with +15552223333",
			Attachment: "recording.mp3",
			Body:       []byte("outgoing-audio"),
		},
		testutil.CallMessage{
			From:       "Caller <+15554445555@voice.example.com>",
			To:         "+15550001111",
			Subject:    "INCOMING_CALL",
			Attachment: "call.wav",
			Body:       []byte("incoming-audio"),
		},
		testutil.CallMessage{
			From:       "+15556667777",
			To:         "+15550001111",
			Subject:    "Text message",
			Attachment: "recording.mp3",
			Body:       []byte("ignored"),
		},
		testutil.CallMessage{
			From:       "+15558889999",
			To:         "+15550001111",
			Subject:    "Voicemail recording",
			Attachment: "picture.png",
			Body:       []byte("ignored"),
		},
	)
	archivePath := testutil.WriteZip(t, filepath.Join(tmp, "export.zip"),
		testutil.ZipEntry{Name: "user/voice.mbox", Body: mailbox},
	)
	dest := filepath.Join(tmp, "out")

	members, err := NewExtractor(Options{MailboxRecordings: true}).Extract(context.Background(), archivePath, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"user/voice.mbox",
		"user/+15552223333_recording.mp3",
		"user/+15554445555_call.wav",
	}, relPaths(members))

	got, err := os.ReadFile(filepath.Join(dest, "user", "+15552223333_recording.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "outgoing-audio", string(got))
	assert.Equal(t, int64(len("incoming-audio")), members[2].Size)
}

func TestExtract_MailboxRecordingsDisabled(t *testing.T) {
	tmp := t.TempDir()
	archivePath := testutil.WriteZip(t, filepath.Join(tmp, "export.zip"),
		testutil.ZipEntry{Name: "voice.mbox", Body: testutil.MailboxBytes(testutil.CallMessage{
			From: "+15550001111", To: "+15552223333", Subject: "OUTGOING_CALL",
			Attachment: "recording.mp3", Body: []byte("x"),
		})},
	)

	members, err := NewExtractor(Options{}).Extract(context.Background(), archivePath, filepath.Join(tmp, "out"))
	require.NoError(t, err)
	assert.Equal(t, []string{"voice.mbox"}, relPaths(members))
}

func TestExtract_MailboxSkipsUnparsableMessages(t *testing.T) {
	tmp := t.TempDir()
	malformed := "From voice-noreply@google.com Mon Jan  1 11:00:00 2024\r\n" +
		"Subject: OUTGOING_CALL\r\n" +
		"this header line has no colon\r\n\r\n" +
		"body\r\n\r\n"
	mailbox := append([]byte(malformed), testutil.MailboxBytes(testutil.CallMessage{
		From:       "+15550001111",
		To:         "+15552223333",
		Subject:    "OUTGOING_CALL",
		Attachment: "recording.mp3",
		Body:       []byte("audio"),
	})...)
	archivePath := testutil.WriteZip(t, filepath.Join(tmp, "export.zip"),
		testutil.ZipEntry{Name: "voice.mbox", Body: mailbox},
	)
	dest := filepath.Join(tmp, "out")

	members, err := NewExtractor(Options{MailboxRecordings: true}).Extract(context.Background(), archivePath, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"voice.mbox", "+15552223333_recording.mp3"}, relPaths(members))

	got, err := os.ReadFile(filepath.Join(dest, "+15552223333_recording.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(got))
}

func TestRecordingFileName(t *testing.T) {
	assert.Equal(t, "a.mp3", recordingFileName("a.mp3"))
	assert.Equal(t, "A.WAV", recordingFileName("A.WAV"))
	assert.Equal(t, "recording.mp3", recordingFileName("recording"))
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	first, err := uniquePath(dir, "rec.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rec.mp3"), first)

	testutil.WriteFile(t, first, []byte("x"))
	second, err := uniquePath(dir, "rec.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rec_2.mp3"), second)
}

func TestCallSubject(t *testing.T) {
	assert.True(t, callSubject("OUTGOING_CALL"))
	assert.True(t, callSubject("x INCOMING_CALL y"))
	assert.True(t, callSubject("Your Recording"))
	assert.False(t, callSubject("outgoing_call"))
	assert.False(t, callSubject("Voicemail"))
}
