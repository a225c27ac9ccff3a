package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/config"
	"github.com/example/calendar-core/internal/conflict"
	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/ics"
	"github.com/example/calendar-core/internal/interaction"
	"github.com/example/calendar-core/internal/logging"
	"github.com/example/calendar-core/internal/persistence/sqlite"
	"github.com/example/calendar-core/internal/recurrence"
)

var (
	flagStart    string
	flagEnd      string
	flagDuration int
	flagType     string
	flagPriority string
	flagClient   string
	flagQuery    string
	flagPeriod   string
	flagOn       string
	flagScope    string
	flagFreq     string
	flagInterval int
	flagCount    int
	flagUntil    string
	flagWeekdays string
	flagProgress int
	flagNotes    string
	flagBy       int
)

var rootCmd = &cobra.Command{
	Use:   "calendarctl",
	Short: "CRM calendar engine",
	Long:  `calendarctl manages the unified calendar: events, recurring series, goals and their iCalendar export.`,
}

var addCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Create an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		input, err := buildEventInput(args[0])
		if err != nil {
			return err
		}

		created, conflicts, err := env.events.CreateEvent(env.ctx, input)
		if err != nil {
			return err
		}
		fmt.Printf("created %s\n", created.ID)
		printConflicts(conflicts)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		params := application.ListEventsParams{
			ClientID: flagClient,
			Query:    flagQuery,
		}
		if flagType != "" {
			params.Types = []event.Type{event.Type(flagType)}
		}
		if flagPeriod != "" {
			params.Period = application.ListPeriod(flagPeriod)
			reference := time.Now()
			if flagOn != "" {
				if reference, err = event.ParseTime(flagOn); err != nil {
					return fmt.Errorf("parse --on: %w", err)
				}
			}
			params.PeriodReference = reference
		}

		events, err := env.events.ListEvents(env.ctx, params)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("%s  %s  %-9s  %s\n",
				ev.ID, event.FormatTime(ev.Start), ev.Type, ev.Title)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an event, or part of its series",
	Long: `Delete an event. For an occurrence of a recurring series, --scope
selects how much of the series goes with it: this_only, all_previous,
this_and_following or all.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		if flagScope == "" {
			return env.events.DeleteEvent(env.ctx, args[0])
		}
		return env.series.DeleteOccurrences(env.ctx, args[0], recurrence.DeleteOption(flagScope))
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts ID",
	Short: "Show conflicts and dependency problems for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		conflicts, err := env.events.Conflicts(env.ctx, args[0])
		if err != nil {
			return err
		}
		advisory, err := env.events.CheckDependencies(env.ctx, args[0])
		if err != nil {
			return err
		}

		printConflicts(conflicts)
		for _, id := range advisory.MissingIDs {
			fmt.Printf("dependency %s does not exist\n", id)
		}
		for _, id := range advisory.BlockingIDs {
			fmt.Printf("dependency %s is not complete\n", id)
		}
		if len(conflicts) == 0 && advisory.Clear() {
			fmt.Println("no conflicts")
		}
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move ID",
	Short: "Move an event by a number of minutes",
	Long: `Move an event on the calendar. The shift goes through the same snap
and confirmation rules as an interactive drag; for an occurrence of a
recurring series, --scope picks whether the whole series moves with it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		if flagBy == 0 {
			return fmt.Errorf("--by is required and must be non-zero")
		}
		if err := env.interactions.BeginDrag(env.ctx, args[0]); err != nil {
			return err
		}
		pixels := float64(flagBy) / 60 * float64(env.cfg.PixelsPerHour)
		if _, _, err := env.interactions.Move(args[0], pixels); err != nil {
			return err
		}

		updated, committed, err := env.interactions.Release(env.ctx, args[0])
		if err != nil {
			return err
		}
		if committed {
			fmt.Printf("moved %s to %s\n", updated.ID, event.FormatTime(updated.Start))
			return nil
		}

		scope := interaction.CommitScope(flagScope)
		if scope == "" {
			scope = interaction.ScopeOccurrence
		}
		events, err := env.interactions.Confirm(env.ctx, args[0], scope)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("moved %s to %s\n", ev.ID, event.FormatTime(ev.Start))
		}
		return nil
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Recurring series commands",
}

var seriesAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Create a recurring series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		input, err := buildEventInput(args[0])
		if err != nil {
			return err
		}
		rule, err := buildRule()
		if err != nil {
			return err
		}

		events, err := env.series.CreateSeries(env.ctx, application.CreateSeriesParams{
			Input: input,
			Rule:  rule,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created series %s with %d occurrences\n", events[0].SeriesID, len(events))
		return nil
	},
}

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Preview a recurrence expansion without persisting anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagStart == "" {
			return fmt.Errorf("--start is required")
		}
		start, err := event.ParseTime(flagStart)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		rule, err := buildRule()
		if err != nil {
			return err
		}

		anchor := event.Event{ID: "preview", Title: "preview", Start: start, Duration: flagDuration}
		occurrences, err := recurrence.Expand(anchor, rule)
		if err != nil {
			return err
		}
		for _, occ := range occurrences {
			fmt.Printf("%3d  %s\n", occ.Index, event.FormatTime(occ.Start))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the calendar as iCalendar to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		events, err := env.events.ListEvents(env.ctx, application.ListEventsParams{})
		if err != nil {
			return err
		}
		out, err := ics.Export(events, nil)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Goal tracking commands",
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with status and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		goals, err := env.goals.ListGoals(env.ctx)
		if err != nil {
			return err
		}
		for _, g := range goals {
			fmt.Printf("%s  %-12s  %3d%%  %s\n", g.ID, g.Status, g.Progress, g.Title)
		}
		return nil
	},
}

var goalProgressCmd = &cobra.Command{
	Use:   "progress ID",
	Short: "Record a progress update against a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		updated, err := env.goals.RecordProgress(env.ctx, args[0], application.ProgressUpdate{
			Progress: flagProgress,
			Notes:    flagNotes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s now %d%% (%s)\n", updated.ID, updated.Progress, updated.Status)
		return nil
	},
}

var goalInsightsCmd = &cobra.Command{
	Use:   "insights ID",
	Short: "Show velocity, projected completion and risk for a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.close()

		insights, err := env.goals.Insights(env.ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("velocity: %.2f %%/day\n", insights.Velocity)
		if insights.EstimatedCompletion != nil {
			fmt.Printf("estimated completion: %s\n", event.FormatTime(*insights.EstimatedCompletion))
		} else {
			fmt.Println("estimated completion: n/a")
		}
		fmt.Printf("risk: %s\n", insights.Risk)
		return nil
	},
}

type cliEnv struct {
	ctx          context.Context
	cfg          config.Config
	pool         *sqlite.ConnectionPool
	events       *application.EventService
	series       *application.SeriesService
	goals        *application.GoalService
	interactions *application.InteractionService
}

func (e *cliEnv) close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

func openEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	ctx := logging.ContextWithLogger(context.Background(), logger)

	pool, err := sqlite.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	events := sqlite.NewEventRepository(pool)
	goals := sqlite.NewGoalRepository(pool)
	idGen := uuid.NewString

	return &cliEnv{
		ctx:          ctx,
		cfg:          cfg,
		pool:         pool,
		events:       application.NewEventService(events, idGen, time.Now),
		series:       application.NewSeriesService(events, idGen, time.Now),
		goals:        application.NewGoalService(goals, idGen, time.Now),
		interactions: application.NewInteractionService(events, cfg.Interaction(), time.Now),
	}, nil
}

func buildEventInput(title string) (application.EventInput, error) {
	input := application.EventInput{
		Title:    title,
		Type:     event.Type(flagType),
		Priority: event.Priority(flagPriority),
		ClientID: flagClient,
		Duration: flagDuration,
		Notes:    flagNotes,
	}
	if flagStart != "" {
		start, err := event.ParseTime(flagStart)
		if err != nil {
			return application.EventInput{}, fmt.Errorf("parse --start: %w", err)
		}
		input.Start = start
	}
	if flagEnd != "" {
		end, err := event.ParseTime(flagEnd)
		if err != nil {
			return application.EventInput{}, fmt.Errorf("parse --end: %w", err)
		}
		input.End = end
	}
	return input, nil
}

func buildRule() (recurrence.Rule, error) {
	rule := recurrence.Rule{
		Frequency: recurrence.Frequency(flagFreq),
		Interval:  flagInterval,
		Count:     flagCount,
	}
	if flagUntil != "" {
		until, err := event.ParseTime(flagUntil)
		if err != nil {
			return recurrence.Rule{}, fmt.Errorf("parse --until: %w", err)
		}
		rule.EndDate = &until
	}
	if flagWeekdays != "" {
		for _, name := range strings.Split(flagWeekdays, ",") {
			day, err := parseWeekday(strings.TrimSpace(name))
			if err != nil {
				return recurrence.Rule{}, err
			}
			rule.WeekDays = append(rule.WeekDays, day)
		}
	}
	return rule, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(name) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

func printConflicts(conflicts []conflict.Conflict) {
	for _, c := range conflicts {
		fmt.Printf("conflict [%s] %s: %s\n", c.Severity, c.ID, c.Message)
	}
}

func init() {
	addCmd.Flags().StringVar(&flagStart, "start", "", "start time (2006-01-02T15:04:05)")
	addCmd.Flags().StringVar(&flagEnd, "end", "", "end time")
	addCmd.Flags().IntVar(&flagDuration, "duration", 0, "duration in minutes when no end is given")
	addCmd.Flags().StringVar(&flagType, "type", "", "event type: event, task, goal or milestone")
	addCmd.Flags().StringVar(&flagPriority, "priority", "", "priority: low, medium, high or urgent")
	addCmd.Flags().StringVar(&flagClient, "client", "", "client id")
	addCmd.Flags().StringVar(&flagNotes, "notes", "", "free-form notes")

	listCmd.Flags().StringVar(&flagPeriod, "period", "", "range preset: day, week or month")
	listCmd.Flags().StringVar(&flagOn, "on", "", "reference time for --period")
	listCmd.Flags().StringVar(&flagType, "type", "", "filter by event type")
	listCmd.Flags().StringVar(&flagClient, "client", "", "filter by client id")
	listCmd.Flags().StringVar(&flagQuery, "query", "", "free-text search")

	deleteCmd.Flags().StringVar(&flagScope, "scope", "", "series scope: this_only, all_previous, this_and_following or all")

	moveCmd.Flags().IntVar(&flagBy, "by", 0, "minutes to move by, negative moves earlier")
	moveCmd.Flags().StringVar(&flagScope, "scope", "", "series scope: occurrence or series")

	for _, c := range []*cobra.Command{seriesAddCmd, expandCmd} {
		c.Flags().StringVar(&flagStart, "start", "", "anchor start time")
		c.Flags().StringVar(&flagEnd, "end", "", "anchor end time")
		c.Flags().IntVar(&flagDuration, "duration", 0, "duration in minutes when no end is given")
		c.Flags().StringVar(&flagFreq, "freq", "daily", "frequency: daily, weekly, monthly or yearly")
		c.Flags().IntVar(&flagInterval, "interval", 1, "step between occurrences")
		c.Flags().IntVar(&flagCount, "count", 0, "number of occurrences")
		c.Flags().StringVar(&flagUntil, "until", "", "last occurrence date")
		c.Flags().StringVar(&flagWeekdays, "weekdays", "", "comma separated weekdays for weekly rules")
	}

	goalProgressCmd.Flags().IntVar(&flagProgress, "progress", 0, "progress percentage 0-100")
	goalProgressCmd.Flags().StringVar(&flagNotes, "notes", "", "progress notes")

	seriesCmd.AddCommand(seriesAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalProgressCmd)
	goalCmd.AddCommand(goalInsightsCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(goalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
