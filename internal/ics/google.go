// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package ics

import (
	"net/url"
	"time"
)

// googleCalendarBase is the event-creation endpoint of the Google Calendar
// web UI.
const googleCalendarBase = "https://calendar.google.com/calendar/render"

// GoogleLink builds an "add to Google Calendar" deep link for a single event.
//
// Timed events carry a naive local date and time; loc states explicitly which
// timezone that local time belongs to (typically the project timezone from
// server config). The instant is then rendered as a UTC range
// "YYYYMMDDTHHMMSSZ/YYYYMMDDTHHMMSSZ" spanning one hour. A nil loc means the
// input is already UTC. All-day events are rendered as a date-only range
// "YYYYMMDD/YYYYMMDD" with the exclusive day-after end, by pure calendar
// arithmetic — no timezone conversion applies to dates without a time.
//
// Title and details are URL-encoded, not ICS-escaped.
func (b *Builder) GoogleLink(ev Event, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, end, allDay, err := eventRange(ev)
	if err != nil {
		return "", err
	}

	var dates string
	if allDay {
		dates = start.Format(compactDate) + "/" + end.Format(compactDate)
	} else {
		// eventRange builds naive times in UTC as a container; rebuild the
		// start in the declared timezone before converting.
		local := time.Date(start.Year(), start.Month(), start.Day(),
			start.Hour(), start.Minute(), start.Second(), 0, loc)
		dates = local.UTC().Format(compactStamp) + "Z/" +
			local.Add(timedDuration).UTC().Format(compactStamp) + "Z"
	}

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", ev.Title)
	q.Set("dates", dates)
	q.Set("details", Details(ev))

	return googleCalendarBase + "?" + q.Encode(), nil
}
