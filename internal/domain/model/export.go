// Package model defines the core data types shared by the export retrieval pipeline.
package model

import (
	"fmt"
	"path"
	"strings"
)

// JobStatus represents the lifecycle status the export service reports for a job.
type JobStatus string

const (
	// JobStatusPending indicates the export has been requested but not started.
	JobStatusPending JobStatus = "PENDING"
	// JobStatusRunning indicates the export service is still building the archive.
	JobStatusRunning JobStatus = "RUNNING"
	// JobStatusCompleted indicates the archive is ready for download.
	JobStatusCompleted JobStatus = "COMPLETED"
	// JobStatusFailed indicates the export service gave up on the job.
	JobStatusFailed JobStatus = "FAILED"
)

// ParseJobStatus maps a status string reported by the export service. Values are
// matched exactly, so "completed" or " COMPLETED" stay unknown. Unknown values are
// kept verbatim so they can be logged; they are never actionable.
func ParseJobStatus(raw string) JobStatus {
	switch v := JobStatus(raw); v {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return v
	case "IN_PROGRESS":
		return JobStatusRunning
	default:
		return JobStatus(raw)
	}
}

// Valid returns true if the JobStatus is one of the known lifecycle values.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Actionable reports whether the pipeline may retrieve the job's archive.
func (s JobStatus) Actionable() bool {
	return s == JobStatusCompleted
}

// BlobRef points at one object written by the export service to blob storage.
type BlobRef struct {
	Bucket string `json:"bucketName"`
	Object string `json:"objectName"`
	Size   int64  `json:"size,omitempty"`
	MD5    string `json:"md5Hash,omitempty"`
}

// String renders the reference as gs://bucket/object.
func (b BlobRef) String() string {
	return "gs://" + path.Join(b.Bucket, b.Object)
}

// Validate ensures both halves of the reference are present.
func (b BlobRef) Validate() error {
	if strings.TrimSpace(b.Bucket) == "" {
		return fmt.Errorf("blob reference is missing bucketName")
	}
	if strings.TrimSpace(b.Object) == "" {
		return fmt.Errorf("blob reference is missing objectName")
	}
	return nil
}

// ExportJob is a read-only view of an export job owned by the export service.
type ExportJob struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	MatterID string    `json:"matterId,omitempty"`
	Status   JobStatus `json:"status"`
	Blobs    []BlobRef `json:"files,omitempty"`
}

// PrimaryBlob returns the first backing object of a completed job.
func (j ExportJob) PrimaryBlob() (BlobRef, bool) {
	if len(j.Blobs) == 0 {
		return BlobRef{}, false
	}
	return j.Blobs[0], true
}
