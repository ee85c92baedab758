// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package ics renders production-calendar events as iCalendar (RFC 5545)
// documents and Google Calendar deep links. It is a pure library: the only
// non-deterministic input is the clock, which is injected on the Builder so
// tests can pin DTSTAMP values.
package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Errors reported for malformed event input. Generation fails fast: no
// partial document is ever returned.
var (
	ErrInvalidDate = errors.New("invalid event date")
	ErrInvalidTime = errors.New("invalid event time")
)

// Event is the exporter's view of one schedulable item. Date is a naive
// calendar date ("2006-01-02"); Time is an optional 24-hour time of day
// ("15:04" or "15:04:05") — empty means all-day. Visibility, when set, is
// emitted as an X-VISIBILITY property.
type Event struct {
	ID          string
	Title       string
	Description string
	Type        string
	Date        string
	Time        string
	Visibility  string
}

// AllDay reports whether the event has no time-of-day component.
func (e Event) AllDay() bool { return e.Time == "" }

// Builder renders calendar documents. The vendor identity constants are
// injected here so the export format can be rebranded without touching the
// formatting logic.
type Builder struct {
	// ProdID is the PRODID property value.
	ProdID string
	// CalendarName is the default X-WR-CALNAME when none is supplied.
	CalendarName string
	// UIDSuffix is appended to every event ID to form a globally unique
	// UID, e.g. "@indiecraft.app".
	UIDSuffix string
	// Now supplies the DTSTAMP instant. Defaults to time.Now.
	Now func() time.Time
}

// Default vendor identity.
const (
	DefaultProdID       = "-//IndieCraft//Production Calendar//EN"
	DefaultCalendarName = "IndieCraft Calendar"
	DefaultUIDSuffix    = "@indiecraft.app"
)

// NewBuilder returns a Builder with the indiecraft vendor identity and the
// real clock.
func NewBuilder() *Builder {
	return &Builder{
		ProdID:       DefaultProdID,
		CalendarName: DefaultCalendarName,
		UIDSuffix:    DefaultUIDSuffix,
		Now:          time.Now,
	}
}

const (
	dateLayout    = "2006-01-02"
	compactDate   = "20060102"
	compactStamp  = "20060102T150405"
	timedDuration = time.Hour
)

// Calendar renders the events as a complete VCALENDAR document using CRLF
// line terminators. Events appear in input order; none are skipped, merged,
// or reordered. calendarName overrides the builder default when non-empty.
// A malformed event date or time aborts the whole document.
func (b *Builder) Calendar(events []Event, calendarName string) (string, error) {
	if calendarName == "" {
		calendarName = b.CalendarName
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + b.ProdID,
		"X-WR-CALNAME:" + escapeText(calendarName),
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}

	stamp := b.now().UTC().Format(compactStamp) + "Z"

	for _, ev := range events {
		block, err := b.eventBlock(ev, stamp)
		if err != nil {
			return "", err
		}
		lines = append(lines, block...)
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n", nil
}

func (b *Builder) eventBlock(ev Event, stamp string) ([]string, error) {
	start, end, allDay, err := eventRange(ev)
	if err != nil {
		return nil, err
	}

	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + ev.ID + b.UIDSuffix,
		"DTSTAMP:" + stamp,
	}

	if allDay {
		lines = append(lines,
			"DTSTART;VALUE=DATE:"+start.Format(compactDate),
			"DTEND;VALUE=DATE:"+end.Format(compactDate),
		)
	} else {
		lines = append(lines,
			"DTSTART:"+start.Format(compactStamp),
			"DTEND:"+end.Format(compactStamp),
		)
	}

	lines = append(lines,
		"SUMMARY:"+escapeText(ev.Title),
		"DESCRIPTION:"+escapeText(Details(ev)),
		"CATEGORIES:"+strings.ToUpper(ev.Type),
	)

	if ev.Visibility != "" {
		lines = append(lines, "X-VISIBILITY:"+strings.ToUpper(ev.Visibility))
	}

	return append(lines, "END:VEVENT"), nil
}

// eventRange computes the start and end of an event. Timed events span one
// hour; all-day events span one calendar day with an exclusive end (the day
// after the event's date). The returned times are naive: constructed in UTC
// purely as a formatting container, never converted.
func eventRange(ev Event) (start, end time.Time, allDay bool, err error) {
	day, err := time.Parse(dateLayout, ev.Date)
	if err != nil {
		return time.Time{}, time.Time{}, false,
			fmt.Errorf("event %q: %w: %q", ev.ID, ErrInvalidDate, ev.Date)
	}

	if ev.AllDay() {
		return day, day.AddDate(0, 0, 1), true, nil
	}

	h, m, s, err := parseClock(ev.Time)
	if err != nil {
		return time.Time{}, time.Time{}, false,
			fmt.Errorf("event %q: %w: %q", ev.ID, ErrInvalidTime, ev.Time)
	}

	start = time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, time.UTC)
	return start, start.Add(timedDuration), false, nil
}

// parseClock accepts "15:04" or "15:04:05".
func parseClock(v string) (h, m, s int, err error) {
	var t time.Time
	switch strings.Count(v, ":") {
	case 1:
		t, err = time.Parse("15:04", v)
	case 2:
		t, err = time.Parse("15:04:05", v)
	default:
		err = fmt.Errorf("malformed clock value %q", v)
	}
	if err != nil {
		return 0, 0, 0, err
	}
	return t.Hour(), t.Minute(), t.Second(), nil
}

// Details composes the description payload: "[TypeLabel]" with the free-text
// description appended when present.
func Details(ev Event) string {
	label := "[" + TypeLabel(ev.Type) + "]"
	if ev.Description == "" {
		return label
	}
	return label + " " + ev.Description
}

// TypeLabel upper-cases the first character of a type tag, leaving the rest
// unchanged. Unknown tags are handled the same as known ones.
func TypeLabel(tag string) string {
	if tag == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(tag)
	return string(unicode.ToUpper(r)) + tag[size:]
}

// escapeText applies RFC 5545 TEXT escaping. The Replacer processes the
// input in a single pass, so backslashes introduced by one substitution are
// never re-escaped by another. Input CRLF pairs are normalized to a single
// newline before escaping.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\n", `\n`,
)

func escapeText(v string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	return textEscaper.Replace(v)
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
