package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// eventJSON is the persisted wire shape. Field names and types match the
// data produced by the original CRM so existing stores remain readable:
// ISO-8601 wall-clock strings for timestamps and minutes for duration.
type eventJSON struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Location        string         `json:"location,omitempty"`
	StartDateTime   string         `json:"startDateTime"`
	EndDateTime     string         `json:"endDateTime,omitempty"`
	Duration        int            `json:"duration"`
	Priority        string         `json:"priority"`
	ClientID        string         `json:"clientId,omitempty"`
	ClientName      string         `json:"clientName,omitempty"`
	GoalTimeframe   string         `json:"goalTimeframe,omitempty"`
	ProgressTarget  *int           `json:"progressTarget,omitempty"`
	CurrentProgress *int           `json:"currentProgress,omitempty"`
	Dependencies    []string       `json:"dependencies,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	SeriesID        string         `json:"seriesId,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
}

// MarshalJSON renders the event in the persisted wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	wire := eventJSON{
		ID:              e.ID,
		Type:            string(e.Type),
		Title:           e.Title,
		Description:     e.Description,
		Notes:           e.Notes,
		Location:        e.Location,
		StartDateTime:   FormatTime(e.Start),
		Duration:        e.Duration,
		Priority:        string(e.Priority),
		ClientID:        e.ClientID,
		ClientName:      e.ClientName,
		GoalTimeframe:   string(e.GoalTimeframe),
		ProgressTarget:  e.ProgressTarget,
		CurrentProgress: e.CurrentProgress,
		Dependencies:    e.Dependencies,
		Metadata:        e.Metadata,
		SeriesID:        e.SeriesID,
	}
	if !e.End.IsZero() {
		wire.EndDateTime = FormatTime(e.End)
	}
	if !e.CreatedAt.IsZero() {
		wire.CreatedAt = FormatTime(e.CreatedAt)
	}
	if !e.UpdatedAt.IsZero() {
		wire.UpdatedAt = FormatTime(e.UpdatedAt)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the persisted wire shape back into an Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	parsed := Event{
		ID:              wire.ID,
		Type:            Type(wire.Type),
		Title:           wire.Title,
		Description:     wire.Description,
		Notes:           wire.Notes,
		Location:        wire.Location,
		Duration:        wire.Duration,
		Priority:        Priority(wire.Priority),
		ClientID:        wire.ClientID,
		ClientName:      wire.ClientName,
		GoalTimeframe:   Timeframe(wire.GoalTimeframe),
		ProgressTarget:  wire.ProgressTarget,
		CurrentProgress: wire.CurrentProgress,
		Dependencies:    wire.Dependencies,
		Metadata:        wire.Metadata,
		SeriesID:        wire.SeriesID,
	}

	var err error
	if parsed.Start, err = ParseTime(wire.StartDateTime); err != nil {
		return fmt.Errorf("event: startDateTime: %w", err)
	}
	if parsed.End, err = parseOptionalTime(wire.EndDateTime); err != nil {
		return fmt.Errorf("event: endDateTime: %w", err)
	}
	if parsed.CreatedAt, err = parseOptionalTime(wire.CreatedAt); err != nil {
		return fmt.Errorf("event: createdAt: %w", err)
	}
	if parsed.UpdatedAt, err = parseOptionalTime(wire.UpdatedAt); err != nil {
		return fmt.Errorf("event: updatedAt: %w", err)
	}

	*e = parsed
	return nil
}

func parseOptionalTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return ParseTime(value)
}
