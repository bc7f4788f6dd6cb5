package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02T15:04:05.000Z"

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	time24      = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	time12      = regexp.MustCompile(`^(1[0-2]|0?[1-9]):?([0-5]\d)?\s*([APap][Mm])$`)
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"Jan 2 2006",
		"Jan 2, 2006",
		"January 2 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"Mon, Jan 2, 2006",
		"Monday, January 2, 2006",
	}
)

// Slugify turns a title into a URL-safe identifier: lower-case alphanumerics
// separated by single hyphens.
func Slugify(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = nonAlnumRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeTime accepts "21:00", "9:30", "9:30 PM", "9PM" and returns HH:MM.
func NormalizeTime(in string) (string, error) {
	s := strings.TrimSpace(in)

	if m := time24.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", h, m[2]), nil
	}

	if m := time12.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := "00"
		if m[2] != "" {
			minute = m[2]
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if h != 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		return fmt.Sprintf("%02d:%s", h, minute), nil
	}

	return "", Validation("time", "Invalid time format: %s", in)
}

// NormalizeDate parses the common date spellings organisers type and returns
// the instant as an ISO-8601 UTC string.
func NormalizeDate(in string) (string, error) {
	s := strings.Join(strings.Fields(in), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(isoDateLayout), nil
		}
	}
	return "", Validation("date", "Invalid date: %s", in)
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// CanonicalEmail is the stored and compared form of an address: trimmed and
// lower-cased. Accounts, bookings and admin lookups all key on it.
func CanonicalEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NormalizeEvent is the single entry point every event write goes through,
// whether it creates a document or updates one in place. It trims strings,
// rejects empty required fields, derives the slug whenever a title is given
// and normalises date and time. With requireAll every field must be present.
func NormalizeEvent(p *EventPatch, requireAll bool) error {
	required := []struct {
		name string
		v    **string
	}{
		{"title", &p.Title},
		{"description", &p.Description},
		{"overview", &p.Overview},
		{"image", &p.Image},
		{"venue", &p.Venue},
		{"location", &p.Location},
		{"date", &p.Date},
		{"time", &p.Time},
		{"mode", &p.Mode},
		{"audience", &p.Audience},
		{"organizer", &p.Organizer},
	}
	for _, f := range required {
		if *f.v == nil {
			if requireAll {
				return Validation(f.name, "%s is required and cannot be empty", f.name)
			}
			continue
		}
		trimmed := strings.TrimSpace(**f.v)
		if trimmed == "" {
			return Validation(f.name, "%s is required and cannot be empty", f.name)
		}
		*f.v = &trimmed
	}

	lists := []struct {
		name  string
		v     **[]string
		dedup bool
	}{
		{"agenda", &p.Agenda, false},
		{"tags", &p.Tags, true},
	}
	for _, f := range lists {
		if *f.v == nil {
			if requireAll {
				return Validation(f.name, "%s is required and cannot be empty", f.name)
			}
			continue
		}
		cleaned := cleanList(**f.v, f.dedup)
		if len(cleaned) == 0 {
			return Validation(f.name, "%s is required and cannot be empty", f.name)
		}
		*f.v = &cleaned
	}

	if p.Title != nil {
		slug := Slugify(*p.Title)
		if slug == "" {
			return Validation("title", "title must contain at least one letter or digit")
		}
		p.Slug = &slug
	} else {
		p.Slug = nil
	}

	if p.Date != nil {
		d, err := NormalizeDate(*p.Date)
		if err != nil {
			return err
		}
		p.Date = &d
	}
	if p.Time != nil {
		t, err := NormalizeTime(*p.Time)
		if err != nil {
			return err
		}
		p.Time = &t
	}
	return nil
}

// cleanList trims entries and drops blanks. With dedup, repeated entries are
// dropped as well so tags stay set-like.
func cleanList(in []string, dedup bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || (dedup && seen[s]) {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
