package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday noon, a fixed anchor for every date assertion below.
var anchor = time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)

func TestInferNothing(t *testing.T) {
	s := NewService()

	result := s.Infer("Pay rent", anchor)
	assert.Empty(t, result.Priority)
	assert.Empty(t, result.Category)
	assert.Nil(t, result.DueDate)
}

func TestInferPriority(t *testing.T) {
	s := NewService()

	assert.Equal(t, "high", s.Infer("urgent: fix the build", anchor).Priority)
	assert.Equal(t, "high", s.Infer("critical outage follow-up", anchor).Priority)
	assert.Equal(t, "medium", s.Infer("important paperwork", anchor).Priority)
	assert.Equal(t, "low", s.Infer("low priority cleanup", anchor).Priority)
	assert.Equal(t, "high", s.Infer("high priority review", anchor).Priority)

	// urgent outranks a literal level in the same title
	assert.Equal(t, "high", s.Infer("urgent but low priority on paper", anchor).Priority)
}

func TestInferCategory(t *testing.T) {
	s := NewService()

	assert.Equal(t, "work", s.Infer("prepare work slides", anchor).Category)
	assert.Equal(t, "shopping", s.Infer("grocery shopping list", anchor).Category)
	assert.Equal(t, "health", s.Infer("book health checkup", anchor).Category)
	assert.Empty(t, s.Infer("walk the dog", anchor).Category)
}

func TestInferRelativeDates(t *testing.T) {
	s := NewService()

	result := s.Infer("submit report today", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC), *result.DueDate)

	result = s.Infer("call dentist tomorrow", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC), *result.DueDate)

	result = s.Infer("plan trip next week", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 3, 19, 9, 0, 0, 0, time.UTC), *result.DueDate)

	result = s.Infer("renew lease next month", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC), *result.DueDate)
}

func TestInferWeekday(t *testing.T) {
	s := NewService()

	// Anchor is Thursday; monday resolves to the following Monday.
	result := s.Infer("team sync monday", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), *result.DueDate)

	// Same weekday with a time already elapsed rolls a full week forward.
	result = s.Infer("standup thursday morning", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 3, 19, 9, 0, 0, 0, time.UTC), *result.DueDate)
}

func TestInferCalendarDates(t *testing.T) {
	s := NewService()

	result := s.Infer("file taxes 15th april", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC), *result.DueDate)

	result = s.Infer("conference 3 sep 2027", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2027, 9, 3, 9, 0, 0, 0, time.UTC), *result.DueDate)
}

func TestInferTimes(t *testing.T) {
	s := NewService()

	result := s.Infer("lunch meeting tomorrow at noon", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, 12, result.DueDate.Hour())

	result = s.Infer("party tomorrow evening", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, 18, result.DueDate.Hour())

	result = s.Infer("dentist tomorrow 3:30 pm", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, 15, result.DueDate.Hour())
	assert.Equal(t, 30, result.DueDate.Minute())

	result = s.Infer("flight tomorrow 12:15 am", anchor)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, 0, result.DueDate.Hour())
	assert.Equal(t, 15, result.DueDate.Minute())
}

func TestInferCombined(t *testing.T) {
	s := NewService()

	result := s.Infer("urgent work deadline tomorrow at 17:00", anchor)
	assert.Equal(t, "high", result.Priority)
	assert.Equal(t, "work", result.Category)
	require.NotNil(t, result.DueDate)
	assert.Equal(t, time.Date(2026, 3, 13, 17, 0, 0, 0, time.UTC), *result.DueDate)
}

func TestInferNeverPanics(t *testing.T) {
	s := NewService()

	inputs := []string{"", "   ", "99:99 pm", "0th xyz 99999", "\x00\xff"}
	for _, input := range inputs {
		assert.NotPanics(t, func() { s.Infer(input, anchor) })
	}
}
