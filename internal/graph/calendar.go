package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

const (
	searchHorizon = 7 * 24 * time.Hour
	slotGrid      = 30 * time.Minute
	maxSlots      = 5
)

type window struct {
	start time.Time
	end   time.Time
}

// FindSlots queries free/busy for the owner's primary calendar plus
// every attendee and returns up to maxSlots gaps long enough for the
// meeting, earliest first.
func (c *Client) FindSlots(ctx context.Context, token string, attendees []string, durationHours float64) ([]models.TimeSlot, error) {
	srv, err := c.calendarService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("err building calendar client: %w", err)
	}
	from := time.Now().Truncate(slotGrid).Add(slotGrid)
	to := from.Add(searchHorizon)
	items := []*calendar.FreeBusyRequestItem{{Id: "primary"}}
	for _, email := range attendees {
		items = append(items, &calendar.FreeBusyRequestItem{Id: email})
	}
	resp, err := srv.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("err querying free/busy: %w", err)
	}
	var busy []window
	for _, cal := range resp.Calendars {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			busy = append(busy, window{start: start, end: end})
		}
	}
	duration := time.Duration(durationHours * float64(time.Hour))
	slots := freeWindows(busy, from, to, duration, maxSlots)
	c.log.Debugf("free/busy over %d calendars yielded %d candidate slots", len(items), len(slots))
	return slots, nil
}

// freeWindows merges the busy windows and emits one candidate slot per
// gap that fits the duration, slot starts aligned to the grid.
func freeWindows(busy []window, from, to time.Time, duration time.Duration, max int) []models.TimeSlot {
	sort.Slice(busy, func(i, j int) bool { return busy[i].start.Before(busy[j].start) })
	merged := make([]window, 0, len(busy))
	for _, w := range busy {
		if n := len(merged); n > 0 && !w.start.After(merged[n-1].end) {
			if w.end.After(merged[n-1].end) {
				merged[n-1].end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}
	var slots []models.TimeSlot
	cursor := from
	emit := func(gapEnd time.Time) {
		start := alignUp(cursor, slotGrid)
		if len(slots) < max && !start.Add(duration).After(gapEnd) {
			slots = append(slots, models.TimeSlot{Start: start, End: start.Add(duration)})
		}
	}
	for _, w := range merged {
		if w.end.Before(from) {
			continue
		}
		emit(w.start)
		if w.end.After(cursor) {
			cursor = w.end
		}
	}
	emit(to)
	return slots
}

func alignUp(t time.Time, grid time.Duration) time.Time {
	aligned := t.Truncate(grid)
	if aligned.Before(t) {
		aligned = aligned.Add(grid)
	}
	return aligned
}

// CreateEvent inserts the meeting on the owner's primary calendar and
// sends invitations to every attendee.
func (c *Client) CreateEvent(ctx context.Context, token string, slot models.TimeSlot, attendees []string, title, description string) error {
	srv, err := c.calendarService(ctx, token)
	if err != nil {
		return fmt.Errorf("err building calendar client: %w", err)
	}
	event := &calendar.Event{
		Summary:     title,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: slot.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: slot.End.Format(time.RFC3339)},
	}
	for _, email := range attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}
	if _, err := srv.Events.Insert("primary", event).SendUpdates("all").Context(ctx).Do(); err != nil {
		return fmt.Errorf("err creating event: %w", err)
	}
	c.log.Infof("event %q created for %d attendees", title, len(attendees))
	return nil
}
