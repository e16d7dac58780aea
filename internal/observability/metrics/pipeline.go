package metrics

import (
	"time"

	obserrors "github.com/Liad-hossain/test-voice-export/internal/observability/errors"
	"github.com/Liad-hossain/test-voice-export/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names emitted by the pipeline.
const (
	StageCount      = "pipeline.stage"
	StageDuration   = "pipeline.stage.duration"
	MemberPublished = "pipeline.member.published"
	MemberSkipped   = "pipeline.member.skipped"
	RunDuration     = "pipeline.run.duration"
)

// StageMetric captures one pipeline state transition for metric emission.
type StageMetric struct {
	Stage    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitStage emits standardised stage transition metrics.
func EmitStage(sink statsd.Sink, in StageMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":  in.Stage,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		for k, v := range obserrors.Tags(in.Err) {
			tags[k] = v
		}
	}

	sink.Count(StageCount, 1, tags)
	if in.Duration > 0 {
		sink.Timing(StageDuration, in.Duration, CloneTags(tags))
	}
}

// EmitMember counts one extracted member by outcome.
func EmitMember(sink statsd.Sink, published bool, ext string) {
	if sink == nil {
		return
	}
	name := MemberSkipped
	if published {
		name = MemberPublished
	}
	sink.Count(name, 1, map[string]string{"ext": ext})
}

// EmitRun records the whole-run duration tagged with the final state.
func EmitRun(sink statsd.Sink, state, result string, d time.Duration) {
	if sink == nil || d <= 0 {
		return
	}
	sink.Timing(RunDuration, d, map[string]string{"state": state, "result": result})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
