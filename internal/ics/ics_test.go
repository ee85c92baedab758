// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package ics

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

// frozenBuilder returns a Builder with a pinned clock so DTSTAMP is stable.
func frozenBuilder() *Builder {
	b := NewBuilder()
	b.Now = func() time.Time {
		return time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	}
	return b
}

func lines(t *testing.T, doc string) []string {
	t.Helper()
	if !strings.HasSuffix(doc, "\r\n") {
		t.Fatal("document must end with CRLF")
	}
	return strings.Split(strings.TrimSuffix(doc, "\r\n"), "\r\n")
}

func TestCalendar_EmptyInput(t *testing.T) {
	doc, err := frozenBuilder().Calendar(nil, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}

	got := lines(t, doc)
	if got[0] != "BEGIN:VCALENDAR" {
		t.Errorf("first line = %q, want BEGIN:VCALENDAR", got[0])
	}
	if got[1] != "VERSION:2.0" {
		t.Errorf("second line = %q, want VERSION:2.0", got[1])
	}
	if got[len(got)-1] != "END:VCALENDAR" {
		t.Errorf("last line = %q, want END:VCALENDAR", got[len(got)-1])
	}
	if strings.Contains(doc, "BEGIN:VEVENT") {
		t.Error("empty input must produce no event blocks")
	}
}

func TestCalendar_HeaderOrderAndName(t *testing.T) {
	doc, err := frozenBuilder().Calendar(nil, "Sprint; Board")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}

	got := lines(t, doc)
	want := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + DefaultProdID,
		`X-WR-CALNAME:Sprint\; Board`,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"END:VCALENDAR",
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("line %d = %q, want %q", i, got[i], w)
		}
	}
}

func TestCalendar_DefaultName(t *testing.T) {
	doc, err := frozenBuilder().Calendar(nil, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "X-WR-CALNAME:"+DefaultCalendarName+"\r\n") {
		t.Error("expected default calendar name in X-WR-CALNAME line")
	}
}

func TestCalendar_EventCardinalityAndOrder(t *testing.T) {
	events := []Event{
		{ID: "a", Title: "First", Type: "milestone", Date: "2026-03-01"},
		{ID: "b", Title: "Second", Type: "deliverable", Date: "2026-03-02"},
		{ID: "c", Title: "Third", Type: "label", Date: "2026-03-03"},
	}

	doc, err := frozenBuilder().Calendar(events, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}

	if n := strings.Count(doc, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("BEGIN:VEVENT count = %d, want 3", n)
	}
	if n := strings.Count(doc, "END:VEVENT"); n != 3 {
		t.Errorf("END:VEVENT count = %d, want 3", n)
	}

	// Blocks appear in input order and are balanced.
	depth := 0
	var uids []string
	for _, line := range lines(t, doc) {
		switch {
		case line == "BEGIN:VEVENT":
			depth++
			if depth != 1 {
				t.Fatal("nested BEGIN:VEVENT")
			}
		case line == "END:VEVENT":
			depth--
			if depth != 0 {
				t.Fatal("unbalanced END:VEVENT")
			}
		case strings.HasPrefix(line, "UID:"):
			uids = append(uids, line)
		}
	}
	want := []string{
		"UID:a" + DefaultUIDSuffix,
		"UID:b" + DefaultUIDSuffix,
		"UID:c" + DefaultUIDSuffix,
	}
	for i := range want {
		if uids[i] != want[i] {
			t.Errorf("uid %d = %q, want %q", i, uids[i], want[i])
		}
	}
}

func TestCalendar_UIDNamespace(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "event-123", Title: "X", Type: "milestone", Date: "2026-03-15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "UID:event-123@indiecraft.app\r\n") {
		t.Error("expected UID line with namespace suffix")
	}
}

func TestCalendar_AllDayDateArithmetic(t *testing.T) {
	tests := []struct {
		date    string
		wantEnd string
	}{
		{"2026-03-15", "20260316"},
		{"2026-01-31", "20260201"}, // month rollover
		{"2026-12-31", "20270101"}, // year rollover
		{"2028-02-28", "20280229"}, // leap day
	}

	for _, tc := range tests {
		t.Run(tc.date, func(t *testing.T) {
			doc, err := frozenBuilder().Calendar([]Event{
				{ID: "d", Title: "AllDay", Type: "milestone", Date: tc.date},
			}, "")
			if err != nil {
				t.Fatalf("Calendar: %v", err)
			}

			var startTok, endTok string
			for _, line := range lines(t, doc) {
				if v, ok := strings.CutPrefix(line, "DTSTART;VALUE=DATE:"); ok {
					startTok = v
				}
				if v, ok := strings.CutPrefix(line, "DTEND;VALUE=DATE:"); ok {
					endTok = v
				}
			}
			if endTok != tc.wantEnd {
				t.Errorf("DTEND = %q, want %q", endTok, tc.wantEnd)
			}

			// The two 8-digit tokens must differ by exactly one calendar day.
			start, err := time.Parse("20060102", startTok)
			if err != nil {
				t.Fatalf("parse start token %q: %v", startTok, err)
			}
			end, err := time.Parse("20060102", endTok)
			if err != nil {
				t.Fatalf("parse end token %q: %v", endTok, err)
			}
			if diff := end.Sub(start); diff != 24*time.Hour {
				t.Errorf("range span = %v, want 24h", diff)
			}
		})
	}
}

func TestCalendar_TimedEvent(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "t1", Title: "Standup", Type: "label", Date: "2026-03-15", Time: "14:30"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}

	if strings.Contains(doc, "VALUE=DATE") {
		t.Error("timed event must not carry a VALUE=DATE qualifier")
	}
	if !strings.Contains(doc, "DTSTART:20260315T143000\r\n") {
		t.Error("expected compact local DTSTART without Z")
	}
	if !strings.Contains(doc, "DTEND:20260315T153000\r\n") {
		t.Error("expected DTEND exactly one hour after DTSTART")
	}
}

func TestCalendar_TimedEventWithSeconds(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "t2", Title: "Build", Type: "deliverable", Date: "2026-03-15", Time: "23:30:15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "DTSTART:20260315T233015\r\n") {
		t.Error("expected DTSTART with seconds")
	}
	// One-hour span crosses midnight.
	if !strings.Contains(doc, "DTEND:20260316T003015\r\n") {
		t.Error("expected DTEND rolled over to the next day")
	}
}

func TestCalendar_DTStamp(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "s", Title: "X", Type: "milestone", Date: "2026-03-15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "DTSTAMP:20260210T093000Z\r\n") {
		t.Error("expected DTSTAMP from the injected clock")
	}
}

func TestCalendar_Escaping(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "e", Title: "Meeting; Discussion, Planning", Type: "milestone", Date: "2026-03-15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, `SUMMARY:Meeting\; Discussion\, Planning`) {
		t.Error("expected escaped semicolon and comma in SUMMARY")
	}
}

func TestCalendar_EscapingBackslashFirst(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "e", Title: `a\b;c`, Type: "milestone", Date: "2026-03-15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	// The backslash escapes to \\ and the semicolon to \; with no
	// double-escaping of the introduced backslashes.
	if !strings.Contains(doc, `SUMMARY:a\\b\;c`) {
		t.Error("backslash must be escaped before other substitutions")
	}
}

func TestCalendar_EscapingNewline(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "e", Title: "X", Description: "line one\nline two", Type: "milestone", Date: "2026-03-15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, `DESCRIPTION:[Milestone] line one\nline two`) {
		t.Error("embedded newline must be escaped as literal backslash-n")
	}
}

func TestCalendar_TypeDrivenFields(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "m", Title: "X", Type: "milestone", Date: "2026-03-15", Description: "demo"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "CATEGORIES:MILESTONE\r\n") {
		t.Error("expected upper-cased CATEGORIES line")
	}
	if !strings.Contains(doc, "DESCRIPTION:[Milestone] demo\r\n") {
		t.Error("expected capitalized type label prefix in DESCRIPTION")
	}
}

func TestCalendar_UnknownTypeTag(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "u", Title: "X", Type: "crunchweek", Date: "2026-03-15"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "CATEGORIES:CRUNCHWEEK\r\n") {
		t.Error("unknown tag must still produce a valid CATEGORIES line")
	}
	if !strings.Contains(doc, "DESCRIPTION:[Crunchweek]\r\n") {
		t.Error("unknown tag must still be capitalized in DESCRIPTION")
	}
}

func TestCalendar_VisibilityPassthrough(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "v1", Title: "X", Type: "milestone", Date: "2026-03-15", Visibility: "internal"},
		{ID: "v2", Title: "Y", Type: "milestone", Date: "2026-03-16"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !strings.Contains(doc, "X-VISIBILITY:INTERNAL\r\n") {
		t.Error("expected X-VISIBILITY line for event with visibility")
	}
	if n := strings.Count(doc, "X-VISIBILITY:"); n != 1 {
		t.Errorf("X-VISIBILITY count = %d, want 1 (absent visibility emits no line)", n)
	}
}

func TestCalendar_CRLFDiscipline(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "c", Title: "X", Type: "milestone", Date: "2026-03-15", Time: "10:00"},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	// Every \n in the scaffolding must be preceded by \r.
	for i := 0; i < len(doc); i++ {
		if doc[i] == '\n' && (i == 0 || doc[i-1] != '\r') {
			t.Fatalf("bare newline at offset %d", i)
		}
	}
}

func TestCalendar_Purity(t *testing.T) {
	events := []Event{
		{ID: "p1", Title: "One", Type: "milestone", Date: "2026-03-15", Time: "10:00"},
		{ID: "p2", Title: "Two", Type: "deliverable", Date: "2026-03-16"},
	}

	b := frozenBuilder()
	first, err := b.Calendar(events, "Frozen")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	second, err := b.Calendar(events, "Frozen")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if first != second {
		t.Error("identical input and frozen clock must produce byte-identical output")
	}
}

func TestCalendar_MalformedDate(t *testing.T) {
	_, err := frozenBuilder().Calendar([]Event{
		{ID: "bad", Title: "X", Type: "milestone", Date: "2026-13-45"},
	}, "")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestCalendar_MalformedTime(t *testing.T) {
	_, err := frozenBuilder().Calendar([]Event{
		{ID: "bad", Title: "X", Type: "milestone", Date: "2026-03-15", Time: "25:99"},
	}, "")
	if !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestCalendar_MalformedEventAbortsWholeDocument(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{ID: "ok", Title: "Fine", Type: "milestone", Date: "2026-03-15"},
		{ID: "bad", Title: "Broken", Type: "milestone", Date: "not-a-date"},
	}, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if doc != "" {
		t.Error("no partial document may be returned on failure")
	}
}

func TestCalendar_EndToEnd(t *testing.T) {
	doc, err := frozenBuilder().Calendar([]Event{
		{
			ID:          "event-1",
			Title:       "Event One",
			Type:        "milestone",
			Date:        "2026-01-24",
			Description: "End of sprint demo",
			Visibility:  "internal",
		},
	}, "")
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}

	wantLines := []string{
		"UID:event-1@indiecraft.app",
		"SUMMARY:Event One",
		"DESCRIPTION:[Milestone] End of sprint demo",
		"CATEGORIES:MILESTONE",
		"X-VISIBILITY:INTERNAL",
		"DTSTART;VALUE=DATE:20260124",
		"DTEND;VALUE=DATE:20260125",
	}
	for _, w := range wantLines {
		if !strings.Contains(doc, w+"\r\n") {
			t.Errorf("document missing line %q", w)
		}
	}
	if n := strings.Count(doc, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("event block count = %d, want 1", n)
	}
}

func TestTypeLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"milestone", "Milestone"},
		{"deliverable", "Deliverable"},
		{"x", "X"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := TypeLabel(tc.in); got != tc.want {
			t.Errorf("TypeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		h, m, s int
		wantErr bool
	}{
		{in: "14:30", h: 14, m: 30},
		{in: "23:59:59", h: 23, m: 59, s: 59},
		{in: "00:00", h: 0, m: 0},
		{in: "24:00", wantErr: true},
		{in: "9:5:1:0", wantErr: true},
		{in: "noon", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			h, m, s, err := parseClock(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClock: %v", err)
			}
			got := strconv.Itoa(h) + ":" + strconv.Itoa(m) + ":" + strconv.Itoa(s)
			want := strconv.Itoa(tc.h) + ":" + strconv.Itoa(tc.m) + ":" + strconv.Itoa(tc.s)
			if got != want {
				t.Errorf("parseClock(%q) = %s, want %s", tc.in, got, want)
			}
		})
	}
}
