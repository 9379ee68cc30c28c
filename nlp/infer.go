// Package nlp extracts task fields (priority, category, due date) from
// free-text titles. Extraction is best-effort: values are defaults the
// caller applies only where the user did not supply the field explicitly,
// and any internal failure yields all-null rather than an error.
package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"task-manager/logging"
)

// Result holds the inferred fields. Empty string / nil means no inference.
type Result struct {
	Priority string
	Category string
	DueDate  *time.Time
}

// Service is constructed once at startup and injected into call sites.
type Service struct {
	urgentRe    *regexp.Regexp
	importantRe *regexp.Regexp
	literalRe   *regexp.Regexp
	categoryRe  *regexp.Regexp
	relativeRe  *regexp.Regexp
	weekdayRe   *regexp.Regexp
	calendarRe  *regexp.Regexp
	clockRe     *regexp.Regexp
	namedTimeRe *regexp.Regexp
}

func NewService() *Service {
	return &Service{
		urgentRe:    regexp.MustCompile(`\b(urgent|critical)\b`),
		importantRe: regexp.MustCompile(`\bimportant\b`),
		literalRe:   regexp.MustCompile(`\b(high|medium|low)\b\s+priority`),
		categoryRe:  regexp.MustCompile(`\b(work|personal|shopping|health|finance|study)\b`),
		relativeRe:  regexp.MustCompile(`\b(today|tomorrow|next week|next month)\b`),
		weekdayRe:   regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		calendarRe:  regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*(?:\s+(\d{4}))?\b`),
		clockRe:     regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`),
		namedTimeRe: regexp.MustCompile(`\b(noon|midnight|morning|afternoon|evening)\b`),
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Infer processes text against "now". It never panics past this boundary.
func (s *Service) Infer(text string, now time.Time) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Warnf("Event ID: NLP_INFER_PANIC, Description: Inference failed on input, returning empty result: %v", r)
			result = Result{}
		}
	}()

	lower := strings.ToLower(text)

	result.Priority = s.inferPriority(lower)
	result.Category = s.inferCategory(lower)
	result.DueDate = s.inferDueDate(lower, now)

	return result
}

// Explicit keywords take precedence over any secondary heuristic:
// urgent/critical before important before a literal "<level> priority".
func (s *Service) inferPriority(lower string) string {
	if s.urgentRe.MatchString(lower) {
		return "high"
	}
	if s.importantRe.MatchString(lower) {
		return "medium"
	}
	if m := s.literalRe.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	return ""
}

// First keyword match wins; ties are resolved by position in the text.
func (s *Service) inferCategory(lower string) string {
	if m := s.categoryRe.FindString(lower); m != "" {
		return m
	}
	return ""
}

func (s *Service) inferDueDate(lower string, now time.Time) *time.Time {
	var date time.Time
	matched := false
	weekdayMatch := false

	if m := s.relativeRe.FindString(lower); m != "" {
		matched = true
		switch m {
		case "today":
			date = now
		case "tomorrow":
			date = now.AddDate(0, 0, 1)
		case "next week":
			date = now.AddDate(0, 0, 7)
		case "next month":
			date = now.AddDate(0, 1, 0)
		}
	} else if m := s.weekdayRe.FindString(lower); m != "" {
		matched = true
		weekdayMatch = true
		target := weekdays[m]
		delta := (int(target) - int(now.Weekday()) + 7) % 7
		date = now.AddDate(0, 0, delta)
	} else if m := s.calendarRe.FindStringSubmatch(lower); m != nil {
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 || day > 31 {
			return nil
		}
		month := months[m[2]]
		year := now.Year()
		if m[3] != "" {
			year, err = strconv.Atoi(m[3])
			if err != nil {
				return nil
			}
		}
		matched = true
		date = time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	}

	if !matched {
		return nil
	}

	hour, minute := s.inferTime(lower)
	due := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, now.Location())

	// A bare weekday resolves to its next future occurrence; if the same-day
	// target has already elapsed, roll to next week.
	if weekdayMatch && due.Before(now) {
		due = due.AddDate(0, 0, 7)
	}

	return &due
}

// inferTime extracts a time of day, defaulting to 09:00.
func (s *Service) inferTime(lower string) (hour, minute int) {
	if m := s.namedTimeRe.FindString(lower); m != "" {
		switch m {
		case "noon":
			return 12, 0
		case "midnight":
			return 0, 0
		case "morning":
			return 9, 0
		case "afternoon":
			return 14, 0
		case "evening":
			return 18, 0
		}
	}

	if m := s.clockRe.FindStringSubmatch(lower); m != nil {
		h, err1 := strconv.Atoi(m[1])
		min, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || h > 23 || min > 59 {
			return 9, 0
		}
		switch m[3] {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		return h, min
	}

	return 9, 0
}
