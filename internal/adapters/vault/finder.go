// Package vault selects completed Google Vault exports for a matter.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	"github.com/Liad-hossain/test-voice-export/internal/ports"
	jmespath "github.com/jmespath-community/go-jmespath"
	vaultapi "google.golang.org/api/vault/v1"
)

// errStopPaging ends the page walk once a job qualifies.
var errStopPaging = errors.New("vault: stop paging")

// FinderOptions groups dependencies for Finder.
type FinderOptions struct {
	Service *vaultapi.Service
	// Filter is an optional JMESPath expression evaluated against each completed export.
	Filter string
	Logger *slog.Logger
}

// Finder implements ports.JobFinder against the Vault v1 API.
type Finder struct {
	svc    *vaultapi.Service
	filter string
	logger *slog.Logger
}

var _ ports.JobFinder = (*Finder)(nil)

// NewFinder constructs a Finder. The filter expression is compiled up front so
// a bad expression fails at startup instead of mid-run.
func NewFinder(opts FinderOptions) (*Finder, error) {
	if opts.Service == nil {
		return nil, apperrors.Validation("vault service is required")
	}
	filter := strings.TrimSpace(opts.Filter)
	if filter != "" {
		if _, err := jmespath.Compile(filter); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid export filter expression")
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		svc:    opts.Service,
		filter: filter,
		logger: logger.With("component", "vault_finder"),
	}, nil
}

// FindCompleted walks the matter's exports in service order and returns the
// first one whose status is COMPLETED (and which satisfies the filter, if any).
func (f *Finder) FindCompleted(ctx context.Context, matterID string) (model.ExportJob, bool, error) {
	matterID = strings.TrimSpace(matterID)
	if matterID == "" {
		return model.ExportJob{}, false, apperrors.ValidationField("matter_id", "matter id is required")
	}

	var (
		found   *vaultapi.Export
		scanned int
	)
	err := f.svc.Matters.Exports.List(matterID).Pages(ctx, func(page *vaultapi.ListExportsResponse) error {
		for _, exp := range page.Exports {
			if exp == nil {
				continue
			}
			scanned++
			if !model.ParseJobStatus(exp.Status).Actionable() {
				continue
			}
			ok, matchErr := f.matches(exp)
			if matchErr != nil {
				return matchErr
			}
			if !ok {
				f.logger.DebugContext(ctx, "completed export rejected by filter", "export_id", exp.Id)
				continue
			}
			found = exp
			return errStopPaging
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return model.ExportJob{}, false, mapListError(err)
	}

	if found == nil {
		f.logger.InfoContext(ctx, "no completed export", "matter_id", matterID, "scanned", scanned)
		return model.ExportJob{}, false, nil
	}

	job, err := toJob(found, matterID)
	if err != nil {
		return model.ExportJob{}, false, err
	}
	f.logger.InfoContext(ctx, "selected export",
		"matter_id", matterID,
		"export_id", job.ID,
		"export_name", job.Name,
		"files", len(job.Blobs),
	)
	return job, true, nil
}

func (f *Finder) matches(exp *vaultapi.Export) (bool, error) {
	if f.filter == "" {
		return true, nil
	}
	raw, err := json.Marshal(exp)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode export for filter")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode export for filter")
	}
	out, err := jmespath.Search(f.filter, doc)
	if err != nil {
		return false, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "evaluate export filter on %s", exp.Id)
	}
	return truthy(out), nil
}

// truthy follows JMESPath truthiness: false, null, empty strings, arrays and objects are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func toJob(exp *vaultapi.Export, matterID string) (model.ExportJob, error) {
	if exp.CloudStorageSink == nil {
		return model.ExportJob{}, apperrors.DataField("cloudStorageSink",
			"completed export "+exp.Id+" has no cloud storage sink")
	}
	if len(exp.CloudStorageSink.Files) == 0 {
		return model.ExportJob{}, apperrors.DataField("cloudStorageSink.files",
			"completed export "+exp.Id+" lists no files")
	}

	blobs := make([]model.BlobRef, 0, len(exp.CloudStorageSink.Files))
	for _, file := range exp.CloudStorageSink.Files {
		if file == nil {
			continue
		}
		ref := model.BlobRef{
			Bucket: file.BucketName,
			Object: file.ObjectName,
			Size:   file.Size,
			MD5:    file.Md5Hash,
		}
		if err := ref.Validate(); err != nil {
			return model.ExportJob{}, apperrors.Wrapf(err, apperrors.ErrCodeData, "export %s", exp.Id)
		}
		blobs = append(blobs, ref)
	}
	if len(blobs) == 0 {
		return model.ExportJob{}, apperrors.DataField("cloudStorageSink.files",
			"completed export "+exp.Id+" lists no files")
	}

	mid := exp.MatterId
	if mid == "" {
		mid = matterID
	}
	return model.ExportJob{
		ID:       exp.Id,
		Name:     exp.Name,
		MatterID: mid,
		Status:   model.JobStatusCompleted,
		Blobs:    blobs,
	}, nil
}

func mapListError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeData, "decode export listing")
	}
	return apperrors.MapTransportError(err, "list exports")
}
