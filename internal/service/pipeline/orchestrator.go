// Package pipeline drives one export retrieval run: select a completed export,
// stage its archive, extract it and publish every media member under a derived name.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
	obserrors "github.com/Liad-hossain/test-voice-export/internal/observability/errors"
	"github.com/Liad-hossain/test-voice-export/internal/observability/metrics"
	"github.com/Liad-hossain/test-voice-export/internal/observability/notify"
	"github.com/Liad-hossain/test-voice-export/internal/observability/statsd"
	"github.com/Liad-hossain/test-voice-export/internal/ports"
	"github.com/google/uuid"
)

// DefaultArchiveName is the staging file name used when Params leaves it empty.
const DefaultArchiveName = "export.zip"

// DefaultMediaExtensions are the member suffixes that get published.
var DefaultMediaExtensions = []string{".wav", ".mp3"}

const lockReleaseTimeout = 5 * time.Second

// FailureNotifier receives a payload when a run ends in FAILED.
type FailureNotifier interface {
	NotifyRunFailure(ctx context.Context, payload notify.RunFailurePayload)
}

// Ports are the capabilities a run drives, in pipeline order.
type Ports struct {
	Jobs      ports.JobFinder
	Fetcher   ports.ArchiveFetcher
	Extractor ports.ArchiveExtractor
	Publisher ports.Publisher
	Names     ports.NameDeriver
}

// Observability groups the optional side channels of a run.
type Observability struct {
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Notifier FailureNotifier
}

// Settings tunes run behaviour. The zero value is valid.
type Settings struct {
	MediaExtensions  []string
	CleanupOnSuccess bool
	// Lock, when set, keeps two runs off the same matter.
	Lock    ports.RunLock
	LockTTL time.Duration
	// NewRunID and Now are overridable for tests.
	NewRunID func() string
	Now      func() time.Time
}

// Options groups dependencies for Orchestrator.
type Options struct {
	Ports         Ports
	Observability Observability
	Settings      Settings
}

// Params are the typed inputs of a single run.
type Params struct {
	MatterID    string
	FolderID    string
	StagingDir  string
	ExtractDir  string
	ArchiveName string
}

// ArchivePath is where the archive is staged.
func (p Params) ArchivePath() string {
	name := p.ArchiveName
	if name == "" {
		name = DefaultArchiveName
	}
	return filepath.Join(p.StagingDir, name)
}

func (p Params) validate() error {
	var errs []error
	if strings.TrimSpace(p.MatterID) == "" {
		errs = append(errs, apperrors.ValidationField("matter_id", "matter id is required"))
	}
	if strings.TrimSpace(p.FolderID) == "" {
		errs = append(errs, apperrors.ValidationField("folder_id", "destination folder id is required"))
	}
	if strings.TrimSpace(p.StagingDir) == "" {
		errs = append(errs, apperrors.ValidationField("staging_dir", "staging directory is required"))
	}
	if strings.TrimSpace(p.ExtractDir) == "" {
		errs = append(errs, apperrors.ValidationField("extract_dir", "extraction directory is required"))
	}
	if len(errs) == 0 {
		return nil
	}
	return apperrors.Wrap(errors.Join(errs...), apperrors.ErrCodeValidation, "invalid run parameters")
}

// RunReport summarises a run. It is returned for failed runs too.
type RunReport struct {
	RunID     string
	State     State
	History   []State
	Job       *model.ExportJob
	Archive   *model.StagingArchive
	Published []model.UploadResult
	Skipped   int
	Duration  time.Duration
}

// StageError reports the operation that failed and the last state reached before it.
type StageError struct {
	Stage State
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (after %s): %v", e.Op, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Orchestrator runs the retrieval pipeline. A run is strictly sequential and never
// retries; the first failure ends it and completed uploads stay in place.
type Orchestrator struct {
	ports    Ports
	logger   *slog.Logger
	sink     statsd.Sink
	notifier FailureNotifier

	media    []string
	cleanup  bool
	lock     ports.RunLock
	lockTTL  time.Duration
	newRunID func() string
	now      func() time.Time
}

// NewOrchestrator constructs an Orchestrator. Every port is required.
func NewOrchestrator(opts Options) *Orchestrator {
	p := opts.Ports
	if p.Jobs == nil || p.Fetcher == nil || p.Extractor == nil || p.Publisher == nil || p.Names == nil {
		panic("pipeline: JobFinder, ArchiveFetcher, ArchiveExtractor, Publisher and NameDeriver are required")
	}

	logger := opts.Observability.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Observability.Metrics
	if sink == nil {
		sink = statsd.Discard
	}

	s := opts.Settings
	newRunID := s.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	lockTTL := s.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Hour
	}

	return &Orchestrator{
		ports:    p,
		logger:   logger.With("component", "pipeline"),
		sink:     sink,
		notifier: opts.Observability.Notifier,
		media:    normalizeExtensions(s.MediaExtensions),
		cleanup:  s.CleanupOnSuccess,
		lock:     s.Lock,
		lockTTL:  lockTTL,
		newRunID: newRunID,
		now:      now,
	}
}

// run carries the state of one invocation of Run.
type run struct {
	o       *Orchestrator
	params  Params
	logger  *slog.Logger
	machine *machine
	report  RunReport
}

// Run executes the pipeline once. A matter without a completed export ends in DONE
// with a nil error. Any failure ends in FAILED and the returned error is a *StageError.
func (o *Orchestrator) Run(ctx context.Context, params Params) (RunReport, error) {
	runID := o.newRunID()
	logger := o.logger.With("run_id", runID, "matter_id", params.MatterID)
	r := &run{
		o:      o,
		params: params,
		logger: logger,
		report: RunReport{RunID: runID},
	}
	r.machine = newMachine(o.now, r.observe)
	started := o.now()

	logger.InfoContext(ctx, "pipeline run started", "folder_id", params.FolderID)
	err := r.execute(ctx)
	r.report.Duration = o.now().Sub(started)

	if err != nil {
		stageErr := r.fail(ctx, err)
		r.finish()
		return r.report, stageErr
	}
	r.finish()

	logger.InfoContext(ctx, "pipeline run finished",
		"state", r.report.State,
		"published", len(r.report.Published),
		"skipped", r.report.Skipped,
		"duration_ms", r.report.Duration.Milliseconds(),
	)
	if o.cleanup && r.report.Archive != nil {
		if rmErr := os.Remove(r.report.Archive.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.WarnContext(ctx, "staging archive cleanup failed", "path", r.report.Archive.Path, "error", rmErr)
		}
	}
	return r.report, nil
}

// opError is an error tagged with the operation that produced it.
type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return e.op + ": " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func failed(op string, err error) error { return &opError{op: op, err: err} }

func (r *run) execute(ctx context.Context) error {
	if err := r.params.validate(); err != nil {
		return failed("validate parameters", err)
	}

	if r.o.lock != nil {
		release, err := r.acquireLock(ctx)
		if err != nil {
			return err
		}
		defer r.releaseLock(ctx, release)
	}

	if err := r.prepareDirs(); err != nil {
		return failed("prepare staging directories", err)
	}
	if err := r.machine.advance(StateStagingDirReady); err != nil {
		return failed("advance", err)
	}

	job, ok, err := r.o.ports.Jobs.FindCompleted(ctx, r.params.MatterID)
	if err != nil {
		return failed("find completed export", err)
	}
	if !ok {
		r.logger.InfoContext(ctx, "no completed export for matter; nothing to do")
		return r.machine.advance(StateDone)
	}
	r.report.Job = &job
	if err := r.machine.advance(StateJobSelected); err != nil {
		return failed("advance", err)
	}

	blob, ok := job.PrimaryBlob()
	if !ok {
		return failed("select export file", apperrors.DataField("files", "export "+job.ID+" lists no files"))
	}
	if len(job.Blobs) > 1 {
		r.logger.WarnContext(ctx, "export lists several files; only the first is retrieved",
			"export_id", job.ID,
			"files", len(job.Blobs),
			"selected", blob.String(),
		)
	}

	archive, err := r.o.ports.Fetcher.Fetch(ctx, blob, r.params.ArchivePath())
	if err != nil {
		return failed("fetch archive "+blob.String(), err)
	}
	r.report.Archive = &archive
	if err := r.machine.advance(StateArchiveFetched); err != nil {
		return failed("advance", err)
	}

	members, err := r.o.ports.Extractor.Extract(ctx, archive.Path, r.params.ExtractDir)
	if err != nil {
		return failed("extract archive", err)
	}
	if err := r.machine.advance(StateArchiveExtracted); err != nil {
		return failed("advance", err)
	}

	for _, member := range members {
		if err := r.publishMember(ctx, member); err != nil {
			return err
		}
	}
	return r.machine.advance(StateDone)
}

func (r *run) publishMember(ctx context.Context, member model.ExtractedMember) error {
	base := path.Base(member.RelPath)
	ext := strings.ToLower(path.Ext(base))
	if !r.o.isMedia(base) {
		r.report.Skipped++
		metrics.EmitMember(r.o.sink, false, ext)
		r.logger.DebugContext(ctx, "member skipped", "member", member.RelPath)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return failed("publish "+member.RelPath, apperrors.MapTransportError(err, "publish members"))
	}

	name := r.o.ports.Names.Name(base)
	if err := r.machine.advance(StateMemberNamed); err != nil {
		return failed("advance", err)
	}
	res, err := r.o.ports.Publisher.Publish(ctx, member.AbsPath, r.params.FolderID, name)
	if err != nil {
		return failed("publish "+member.RelPath, err)
	}
	r.report.Published = append(r.report.Published, res)
	metrics.EmitMember(r.o.sink, true, ext)
	return r.machine.advance(StateMemberPublished)
}

func (r *run) prepareDirs() error {
	for _, dir := range []string{r.params.StagingDir, r.params.ExtractDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeIO, "create %s", dir)
		}
	}
	return nil
}

func (r *run) acquireLock(ctx context.Context) (func(context.Context) error, error) {
	release, ok, err := r.o.lock.Acquire(ctx, r.params.MatterID, r.o.lockTTL)
	if err != nil {
		return nil, failed("acquire run lock", apperrors.MapTransportError(err, "acquire run lock"))
	}
	if !ok {
		return nil, failed("acquire run lock",
			apperrors.Conflictf("another run holds the lock for matter %s", r.params.MatterID))
	}
	r.logger.DebugContext(ctx, "run lock acquired", "ttl", r.o.lockTTL)
	return release, nil
}

func (r *run) releaseLock(ctx context.Context, release func(context.Context) error) {
	if release == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()
	if err := release(rctx); err != nil {
		r.logger.WarnContext(ctx, "run lock release failed", "error", err)
	}
}

// fail moves the run to FAILED, logs, and notifies. It returns the *StageError for Run.
func (r *run) fail(ctx context.Context, err error) error {
	stage := r.machine.current()
	op := "run"
	var oe *opError
	if errors.As(err, &oe) {
		op, err = oe.op, oe.err
	}
	stageErr := &StageError{Stage: stage, Op: op, Err: err}

	if advErr := r.machine.advance(StateFailed); advErr != nil {
		r.logger.ErrorContext(ctx, "could not record failure", "error", advErr)
	}
	metrics.EmitStage(r.o.sink, metrics.StageMetric{
		Stage:  StateFailed.String(),
		Result: metrics.ResultError,
		Err:    err,
	})

	r.logger.ErrorContext(ctx, "pipeline run failed",
		"stage", stage,
		"op", op,
		"error_code", obserrors.Code(err),
		"published", len(r.report.Published),
		"error", err,
	)

	if r.o.notifier != nil {
		payload := notify.RunFailurePayload{
			RunID:      r.report.RunID,
			MatterID:   r.params.MatterID,
			Stage:      stage.String(),
			Error:      stageErr.Error(),
			ErrorCode:  obserrors.Code(err),
			ErrorClass: obserrors.Classify(err),
			OccurredAt: r.o.now(),
			Metadata: map[string]string{
				"published": fmt.Sprint(len(r.report.Published)),
				"skipped":   fmt.Sprint(r.report.Skipped),
			},
		}
		if r.report.Job != nil {
			payload.ExportID = r.report.Job.ID
		}
		r.o.notifier.NotifyRunFailure(context.WithoutCancel(ctx), payload)
	}
	return stageErr
}

func (r *run) finish() {
	r.report.State = r.machine.current()
	r.report.History = r.machine.trail()
	result := metrics.ResultSuccess
	if r.report.State == StateFailed {
		result = metrics.ResultError
	}
	metrics.EmitRun(r.o.sink, r.report.State.String(), result, r.report.Duration)
}

// observe emits a metric for every successful transition. Failures are emitted by fail.
func (r *run) observe(from, to State, spent time.Duration) {
	if to == StateFailed {
		return
	}
	result := metrics.ResultSuccess
	if to == StateDone && from == StateStagingDirReady {
		result = metrics.ResultNoop
	}
	metrics.EmitStage(r.o.sink, metrics.StageMetric{
		Stage:    to.String(),
		Result:   result,
		Duration: spent,
	})
}

func (o *Orchestrator) isMedia(base string) bool {
	lower := strings.ToLower(base)
	for _, ext := range o.media {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		exts = DefaultMediaExtensions
	}
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultMediaExtensions...)
	}
	return out
}
