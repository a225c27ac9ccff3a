package goal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/calendar-core/internal/event"
)

type progressEntryJSON struct {
	Date      string `json:"date"`
	Progress  int    `json:"progress"`
	Notes     string `json:"notes,omitempty"`
	TimeSpent int    `json:"timeSpent,omitempty"`
}

type goalJSON struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Category        string              `json:"category,omitempty"`
	Timeframe       string              `json:"timeframe"`
	Priority        string              `json:"priority"`
	Status          string              `json:"status"`
	Progress        int                 `json:"progress"`
	TargetValue     float64             `json:"targetValue"`
	CurrentValue    float64             `json:"currentValue"`
	StartDate       string              `json:"startDate"`
	EndDate         string              `json:"endDate"`
	Dependencies    []string            `json:"dependencies,omitempty"`
	MilestoneIDs    []string            `json:"milestoneIds,omitempty"`
	ProgressHistory []progressEntryJSON `json:"progressHistory,omitempty"`
	CreatedAt       string              `json:"createdAt,omitempty"`
	UpdatedAt       string              `json:"updatedAt,omitempty"`
}

type milestoneJSON struct {
	ID           string   `json:"id"`
	GoalID       string   `json:"goalId"`
	Title        string   `json:"title"`
	DueDate      string   `json:"dueDate"`
	Progress     int      `json:"progress"`
	Status       string   `json:"status"`
	Dependencies []string `json:"dependencies,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// MarshalJSON renders the goal in the persisted wire shape.
func (g Goal) MarshalJSON() ([]byte, error) {
	wire := goalJSON{
		ID:           g.ID,
		Title:        g.Title,
		Category:     g.Category,
		Timeframe:    string(g.Timeframe),
		Priority:     string(g.Priority),
		Status:       string(g.Status),
		Progress:     g.Progress,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		StartDate:    event.FormatTime(g.Start),
		EndDate:      event.FormatTime(g.End),
		Dependencies: g.Dependencies,
		MilestoneIDs: g.MilestoneIDs,
	}
	for _, entry := range g.History {
		wire.ProgressHistory = append(wire.ProgressHistory, progressEntryJSON{
			Date:      event.FormatTime(entry.Date),
			Progress:  entry.Progress,
			Notes:     entry.Notes,
			TimeSpent: entry.TimeSpent,
		})
	}
	if !g.CreatedAt.IsZero() {
		wire.CreatedAt = event.FormatTime(g.CreatedAt)
	}
	if !g.UpdatedAt.IsZero() {
		wire.UpdatedAt = event.FormatTime(g.UpdatedAt)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the persisted wire shape back into a Goal.
func (g *Goal) UnmarshalJSON(data []byte) error {
	var wire goalJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	parsed := Goal{
		ID:           wire.ID,
		Title:        wire.Title,
		Category:     wire.Category,
		Timeframe:    event.Timeframe(wire.Timeframe),
		Priority:     event.Priority(wire.Priority),
		Status:       Status(wire.Status),
		Progress:     wire.Progress,
		TargetValue:  wire.TargetValue,
		CurrentValue: wire.CurrentValue,
		Dependencies: wire.Dependencies,
		MilestoneIDs: wire.MilestoneIDs,
	}

	var err error
	if parsed.Start, err = event.ParseTime(wire.StartDate); err != nil {
		return fmt.Errorf("goal: startDate: %w", err)
	}
	if parsed.End, err = event.ParseTime(wire.EndDate); err != nil {
		return fmt.Errorf("goal: endDate: %w", err)
	}
	if parsed.CreatedAt, err = parseOptional(wire.CreatedAt); err != nil {
		return fmt.Errorf("goal: createdAt: %w", err)
	}
	if parsed.UpdatedAt, err = parseOptional(wire.UpdatedAt); err != nil {
		return fmt.Errorf("goal: updatedAt: %w", err)
	}
	for _, entry := range wire.ProgressHistory {
		date, err := event.ParseTime(entry.Date)
		if err != nil {
			return fmt.Errorf("goal: progressHistory date: %w", err)
		}
		parsed.History = append(parsed.History, ProgressEntry{
			Date:      date,
			Progress:  entry.Progress,
			Notes:     entry.Notes,
			TimeSpent: entry.TimeSpent,
		})
	}

	*g = parsed
	return nil
}

// MarshalJSON renders the milestone in the persisted wire shape.
func (m Milestone) MarshalJSON() ([]byte, error) {
	wire := milestoneJSON{
		ID:           m.ID,
		GoalID:       m.GoalID,
		Title:        m.Title,
		DueDate:      event.FormatTime(m.Due),
		Progress:     m.Progress,
		Status:       string(m.Status),
		Dependencies: m.Dependencies,
	}
	if !m.CreatedAt.IsZero() {
		wire.CreatedAt = event.FormatTime(m.CreatedAt)
	}
	if !m.UpdatedAt.IsZero() {
		wire.UpdatedAt = event.FormatTime(m.UpdatedAt)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the persisted wire shape back into a Milestone.
func (m *Milestone) UnmarshalJSON(data []byte) error {
	var wire milestoneJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	parsed := Milestone{
		ID:           wire.ID,
		GoalID:       wire.GoalID,
		Title:        wire.Title,
		Progress:     wire.Progress,
		Status:       Status(wire.Status),
		Dependencies: wire.Dependencies,
	}

	var err error
	if parsed.Due, err = event.ParseTime(wire.DueDate); err != nil {
		return fmt.Errorf("milestone: dueDate: %w", err)
	}
	if parsed.CreatedAt, err = parseOptional(wire.CreatedAt); err != nil {
		return fmt.Errorf("milestone: createdAt: %w", err)
	}
	if parsed.UpdatedAt, err = parseOptional(wire.UpdatedAt); err != nil {
		return fmt.Errorf("milestone: updatedAt: %w", err)
	}

	*m = parsed
	return nil
}

func parseOptional(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return event.ParseTime(value)
}
