// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// occurrence is one concrete instance of an imported calendar entry, after
// recurrence expansion.
type occurrence struct {
	UID     string
	Summary string
	Start   time.Time
	AllDay  bool
}

// maxOccurrencesPerEvent caps runaway RRULEs (e.g. FREQ=MINUTELY without
// UNTIL).
const maxOccurrencesPerEvent = 100

// parseOccurrences parses an ICS payload and expands every VEVENT into its
// occurrences within [from, to). Events that fail to parse are skipped; a
// feed with one broken entry still imports the rest.
func parseOccurrences(body []byte, from, to time.Time) ([]occurrence, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedInvalid, err)
	}

	var out []occurrence
	for _, ve := range cal.Events() {
		occs, err := expandVEvent(ve, from, to)
		if err != nil {
			continue
		}
		out = append(out, occs...)
	}
	return out, nil
}

func expandVEvent(ve *ical.VEvent, from, to time.Time) ([]occurrence, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil, fmt.Errorf("missing UID")
	}

	var summary string
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("missing DTSTART: %w", err)
	}

	allDay := false
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			allDay = true
		}
		if !strings.Contains(p.Value, "T") {
			allDay = true
		}
	}

	base := occurrence{UID: uidProp.Value, Summary: summary, Start: start, AllDay: allDay}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil {
		if start.Before(from) || !start.Before(to) {
			return nil, nil
		}
		return []occurrence{base}, nil
	}

	r, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE: %w", err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)

	times := set.Between(from.In(start.Location()), to.In(start.Location()), true)
	if len(times) > maxOccurrencesPerEvent {
		times = times[:maxOccurrencesPerEvent]
	}

	occs := make([]occurrence, 0, len(times))
	for i, t := range times {
		occ := base
		occ.Start = t
		// Recurring instances need distinct UIDs to stay apart downstream.
		occ.UID = fmt.Sprintf("%s-%d", base.UID, i)
		occs = append(occs, occ)
	}
	return occs, nil
}
