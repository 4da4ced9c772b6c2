package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/martinacantaro/aurora/storage"
)

// CalendarModule adapts event scheduling to the tool contract.
type CalendarModule struct {
	store *storage.Store
}

func NewCalendarModule(store *storage.Store) *CalendarModule {
	return &CalendarModule{store: store}
}

func (m *CalendarModule) Name() string { return "calendar" }

func (m *CalendarModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "list_events",
			Description: "List events in a day range (defaults to the coming 7 days).",
			InputSchema: Schema{
				Properties: map[string]any{
					"from_day": map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
					"to_day":   map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
			},
			Kind: KindRead,
		},
		{
			Name:        "create_event",
			Description: "Schedule an event on a day, optionally with start and end times.",
			InputSchema: Schema{
				Properties: map[string]any{
					"title":      map[string]any{"type": "string"},
					"day":        map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
					"start_time": map[string]any{"type": "string", "description": "HH:MM, optional"},
					"end_time":   map[string]any{"type": "string", "description": "HH:MM, optional"},
					"location":   map[string]any{"type": "string"},
					"notes":      map[string]any{"type": "string"},
				},
				Required: []string{"title"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "delete_event",
			Description: "Permanently delete an event.",
			InputSchema: Schema{
				Properties: map[string]any{
					"event_id": map[string]any{"type": "string"},
				},
				Required: []string{"event_id"},
			},
			Kind: KindDestructive,
		},
	}
}

func (m *CalendarModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_events":
		fromDay := stringArg(args, "from_day")
		if fromDay == "" {
			fromDay = time.Now().Format(storage.DayFormat)
		}
		toDay := stringArg(args, "to_day")
		if toDay == "" {
			toDay = time.Now().AddDate(0, 0, 7).Format(storage.DayFormat)
		}

		events, err := m.store.ListEvents(fromDay, toDay)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(events))
		for _, event := range events {
			out = append(out, eventMap(event))
		}
		return out, nil

	case "create_event":
		title, err := requiredStringArg(args, "title")
		if err != nil {
			return nil, err
		}
		event, err := m.store.CreateEvent(title, dayArg(args, "day"),
			stringArg(args, "start_time"), stringArg(args, "end_time"),
			stringArg(args, "location"), stringArg(args, "notes"))
		if err != nil {
			return nil, err
		}
		return eventMap(*event), nil

	case "delete_event":
		eventID, err := requiredStringArg(args, "event_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteEvent(eventID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": eventID}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func eventMap(event storage.Event) map[string]any {
	out := map[string]any{
		"id":    event.ID,
		"title": event.Title,
		"day":   event.Day,
	}
	if event.StartTime != "" {
		out["start_time"] = event.StartTime
	}
	if event.EndTime != "" {
		out["end_time"] = event.EndTime
	}
	if event.Location != "" {
		out["location"] = event.Location
	}
	if event.Notes != "" {
		out["notes"] = event.Notes
	}
	return out
}
