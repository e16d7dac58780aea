package config

import (
	"path/filepath"
	"strings"
	"time"
)

// PipelineConfig controls local staging and which extracted members are published.
type PipelineConfig struct {
	TempDir     string `env:"TEMP_DIR"     envDefault:"./temp"`
	ExtractDir  string `env:"EXTRACT_DIR"  envDefault:"./temp/extracted"`
	ArchiveName string `env:"ARCHIVE_NAME" envDefault:"export.zip"`

	MediaExtensions []string `env:"MEDIA_EXTENSIONS" envDefault:".wav,.mp3"`

	// ExpandNestedArchives unpacks *.zip members (Vault ships mailboxes as *.mbox.zip).
	ExpandNestedArchives bool `env:"EXPAND_NESTED_ARCHIVES" envDefault:"false"`
	// MboxRecordings pulls call recording attachments out of extracted mailboxes.
	MboxRecordings bool `env:"MBOX_RECORDINGS" envDefault:"false"`
	// CleanupOnSuccess removes the staging archive after a successful run.
	CleanupOnSuccess bool `env:"CLEANUP_ON_SUCCESS" envDefault:"false"`

	// RunTimeout bounds the whole run. Zero means no deadline.
	RunTimeout time.Duration `env:"RUN_TIMEOUT" envDefault:"0s"`
}

// Sanitize applies defaults and normalises extensions to ".ext" lower case.
func (c *PipelineConfig) Sanitize() {
	if c.TempDir = strings.TrimSpace(c.TempDir); c.TempDir == "" {
		c.TempDir = "./temp"
	}
	if c.ExtractDir = strings.TrimSpace(c.ExtractDir); c.ExtractDir == "" {
		c.ExtractDir = filepath.Join(c.TempDir, "extracted")
	}
	if c.ArchiveName = filepath.Base(strings.TrimSpace(c.ArchiveName)); c.ArchiveName == "." || c.ArchiveName == "/" {
		c.ArchiveName = "export.zip"
	}

	exts := trimAll(c.MediaExtensions)
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	c.MediaExtensions = exts

	if c.RunTimeout < 0 {
		c.RunTimeout = 0
	}
}

// ArchivePath is where the downloaded archive is staged.
func (c *PipelineConfig) ArchivePath() string {
	return filepath.Join(c.TempDir, c.ArchiveName)
}
