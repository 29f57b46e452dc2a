package agentdoc

import (
	"fmt"
	"time"
)

// TimeProvider supplies the clock seen by @inline templates through the .Time field:
//
//	Generated on {{.Time.Today}} ({{.Time.Weekday}})
//	Rendered at {{.Time.Format "15:04"}} for {{.Vars.provider}}
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time

	// Today returns today's date as YYYY-MM-DD.
	Today() string

	// Format returns the current time formatted with a Go layout.
	Format(layout string) string

	// Weekday returns the current day of the week, e.g. "Monday".
	Weekday() string

	// RelativeDate describes t relative to today: "today", "tomorrow", "in 3 days",
	// "2 days ago".
	RelativeDate(t time.Time) string
}

// DefaultTimeProvider reads the system clock.
type DefaultTimeProvider struct{}

// NewDefaultTimeProvider creates a DefaultTimeProvider.
func NewDefaultTimeProvider() *DefaultTimeProvider {
	return &DefaultTimeProvider{}
}

func (p *DefaultTimeProvider) Now() time.Time { return time.Now() }

func (p *DefaultTimeProvider) Today() string { return p.Now().Format(time.DateOnly) }

func (p *DefaultTimeProvider) Format(layout string) string { return p.Now().Format(layout) }

func (p *DefaultTimeProvider) Weekday() string { return p.Now().Weekday().String() }

func (p *DefaultTimeProvider) RelativeDate(t time.Time) string {
	return relativeDate(p.Now(), t)
}

// FixedTimeProvider always reports the same instant. Tests use it to render templates
// deterministically.
type FixedTimeProvider struct {
	At time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider frozen at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{At: t}
}

func (p *FixedTimeProvider) Now() time.Time { return p.At }

func (p *FixedTimeProvider) Today() string { return p.At.Format(time.DateOnly) }

func (p *FixedTimeProvider) Format(layout string) string { return p.At.Format(layout) }

func (p *FixedTimeProvider) Weekday() string { return p.At.Weekday().String() }

func (p *FixedTimeProvider) RelativeDate(t time.Time) string {
	return relativeDate(p.At, t)
}

func relativeDate(now, t time.Time) string {
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	days := int(tDate.Sub(nowDate).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	default:
		return fmt.Sprintf("%d days ago", -days)
	}
}

var (
	_ TimeProvider = (*DefaultTimeProvider)(nil)
	_ TimeProvider = (*FixedTimeProvider)(nil)
)
