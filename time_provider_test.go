package agentdoc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedTimeProvider(t *testing.T) {
	tp := NewFixedTimeProvider(time.Date(2025, 2, 15, 14, 30, 0, 0, time.UTC))

	assert.Equal(t, "2025-02-15", tp.Today())
	assert.Equal(t, "Saturday", tp.Weekday())
	assert.Equal(t, "2:30 PM", tp.Format("3:04 PM"))
}

func TestDefaultTimeProvider_Today(t *testing.T) {
	tp := NewDefaultTimeProvider()
	before := time.Now().Format(time.DateOnly)
	result := tp.Today()
	after := time.Now().Format(time.DateOnly)

	assert.Contains(t, []string{before, after}, result)
}

func TestRelativeDate(t *testing.T) {
	now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	type input struct {
		target time.Time
	}

	type expected struct {
		text string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "same day",
			input:    input{target: now.Add(6 * time.Hour)},
			expected: expected{text: "today"},
		},
		{
			name:     "tomorrow",
			input:    input{target: now.AddDate(0, 0, 1)},
			expected: expected{text: "tomorrow"},
		},
		{
			name:     "yesterday",
			input:    input{target: now.AddDate(0, 0, -1)},
			expected: expected{text: "yesterday"},
		},
		{
			name:     "future",
			input:    input{target: now.AddDate(0, 0, 5)},
			expected: expected{text: "in 5 days"},
		},
		{
			name:     "past",
			input:    input{target: now.AddDate(0, 0, -3)},
			expected: expected{text: "3 days ago"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected.text, relativeDate(now, tt.input.target))
		})
	}
}
