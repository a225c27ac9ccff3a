// Package ics renders the unified calendar into iCalendar documents so
// events survive a round trip through external calendar tools. Recurring
// series export as a single VEVENT carrying an RRULE instead of one VEVENT
// per stored occurrence.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/recurrence"
)

const prodID = "-//calendar-core//EN"

// Export serializes events into an iCalendar document. Rules maps a series
// id to its recurrence rule; occurrences of a mapped series collapse into
// one recurring VEVENT anchored at the earliest occurrence. Events are
// expected in start order, as the repositories return them.
func Export(events []event.Event, rules map[string]recurrence.Rule) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	seen := make(map[string]bool)

	for _, ev := range events {
		if ev.SeriesID != "" {
			if _, recurring := rules[ev.SeriesID]; recurring {
				if seen[ev.SeriesID] {
					continue
				}
				seen[ev.SeriesID] = true
			}
		}

		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(ev.UpdatedAt)
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.EffectiveEnd())
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}

		if rule, ok := rules[ev.SeriesID]; ok && ev.SeriesID != "" {
			value, err := RuleString(rule)
			if err != nil {
				return "", fmt.Errorf("series %s: %w", ev.SeriesID, err)
			}
			ve.AddRrule(value)
		}
	}

	return cal.Serialize(), nil
}

// RuleString renders a recurrence rule as an RRULE property value.
func RuleString(rule recurrence.Rule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", err
	}

	opt := rrule.ROption{
		Freq:     rruleFrequency(rule.Frequency),
		Interval: rule.Interval,
		Count:    rule.Count,
	}
	if rule.EndDate != nil {
		opt.Until = *rule.EndDate
	}
	for _, day := range rule.WeekDays {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(day))
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return r.String(), nil
}

func rruleFrequency(freq recurrence.Frequency) rrule.Frequency {
	switch freq {
	case recurrence.FrequencyDaily:
		return rrule.DAILY
	case recurrence.FrequencyWeekly:
		return rrule.WEEKLY
	case recurrence.FrequencyMonthly:
		return rrule.MONTHLY
	default:
		return rrule.YEARLY
	}
}

func rruleWeekday(day time.Weekday) rrule.Weekday {
	switch day {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
