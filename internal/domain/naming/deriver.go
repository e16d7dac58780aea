// Package naming derives the canonical names recordings are published under.
package naming

import (
	"regexp"
	"strings"
	"time"
)

const (
	// Prefix starts every derived name.
	Prefix = "call"
	// UnknownPhone replaces the phone token when the member name carries none.
	UnknownPhone = "unknown"
	// Extension ends every derived name; uploads are always declared as audio/wav.
	Extension = ".wav"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var (
	phonePattern     = regexp.MustCompile(`\+\d{6,15}`)
	timestampReplace = strings.NewReplacer(":", "-", ".", "-")
)

// PhoneToken returns the first "+" followed by 6-15 digits in name, or UnknownPhone.
func PhoneToken(name string) string {
	if m := phonePattern.FindString(name); m != "" {
		return m
	}
	return UnknownPhone
}

// Timestamp renders t as ISO-8601 UTC with millisecond precision, using '-' in place of ':' and '.'.
func Timestamp(t time.Time) string {
	return timestampReplace.Replace(t.UTC().Format(timestampLayout))
}

// Derive composes call_<phone>_<timestamp>.wav for a member base name at instant now.
func Derive(baseName string, now time.Time) string {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteByte('_')
	b.WriteString(PhoneToken(baseName))
	b.WriteByte('_')
	b.WriteString(Timestamp(now))
	b.WriteString(Extension)
	return b.String()
}

// Deriver names members against a clock. Each call reads the clock again.
type Deriver struct {
	clock Clock
}

// NewDeriver returns a Deriver. A nil clock uses the system clock.
func NewDeriver(clock Clock) *Deriver {
	if clock == nil {
		clock = RealClock{}
	}
	return &Deriver{clock: clock}
}

// Name derives the published name for baseName at the current instant.
func (d *Deriver) Name(baseName string) string {
	return Derive(baseName, d.clock.Now())
}
