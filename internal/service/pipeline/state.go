package pipeline

import (
	"time"

	apperrors "github.com/Liad-hossain/test-voice-export/internal/errors"
)

// State is a step of a pipeline run.
type State string

const (
	StateInit             State = "INIT"
	StateStagingDirReady  State = "STAGING_DIR_READY"
	StateJobSelected      State = "JOB_SELECTED"
	StateArchiveFetched   State = "ARCHIVE_FETCHED"
	StateArchiveExtracted State = "ARCHIVE_EXTRACTED"
	StateMemberNamed      State = "MEMBER_NAMED"
	StateMemberPublished  State = "MEMBER_PUBLISHED"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

// transitions lists the forward moves allowed from each state. FAILED is reachable
// from every non-terminal state and is added by CanTransition.
var transitions = map[State][]State{
	StateInit:             {StateStagingDirReady},
	StateStagingDirReady:  {StateJobSelected, StateDone},
	StateJobSelected:      {StateArchiveFetched},
	StateArchiveFetched:   {StateArchiveExtracted},
	StateArchiveExtracted: {StateMemberNamed, StateDone},
	StateMemberNamed:      {StateMemberPublished},
	StateMemberPublished:  {StateMemberNamed, StateDone},
}

func (s State) String() string { return string(s) }

// Terminal reports whether the run has ended.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// machine tracks the current state of one run and reports every transition.
type machine struct {
	state   State
	entered time.Time
	history []State
	now     func() time.Time
	// observe receives the state left, the state entered and the time spent in the former.
	observe func(from, to State, spent time.Duration)
}

func newMachine(now func() time.Time, observe func(from, to State, spent time.Duration)) *machine {
	return &machine{
		state:   StateInit,
		entered: now(),
		history: []State{StateInit},
		now:     now,
		observe: observe,
	}
}

func (m *machine) advance(next State) error {
	if !m.state.CanTransition(next) {
		return apperrors.Internalf("illegal pipeline transition %s -> %s", m.state, next)
	}
	at := m.now()
	from := m.state
	m.state = next
	m.history = append(m.history, next)
	spent := at.Sub(m.entered)
	m.entered = at
	if m.observe != nil {
		m.observe(from, next, spent)
	}
	return nil
}

func (m *machine) current() State { return m.state }

func (m *machine) trail() []State {
	return append([]State(nil), m.history...)
}
