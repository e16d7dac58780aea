package model

// StagingArchive is the downloaded archive on local disk. It is owned by a single run.
type StagingArchive struct {
	Path  string
	Bytes int64
	// Source is the blob the archive was streamed from.
	Source BlobRef
}

// ExtractedMember is one regular file recreated from the archive.
type ExtractedMember struct {
	// RelPath is the slash-separated path relative to the extraction root.
	RelPath string
	// AbsPath is the location on local disk.
	AbsPath string
	Size    int64
}

// UploadResult describes a file published to the destination store.
type UploadResult struct {
	// ID is the identifier assigned by the destination store.
	ID     string
	Name   string
	Source string
}
