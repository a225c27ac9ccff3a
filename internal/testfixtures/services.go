package testfixtures

import (
	"time"

	"github.com/example/calendar-core/internal/application"
	"github.com/example/calendar-core/internal/interaction"
	"github.com/example/calendar-core/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing application services over
// an in-memory store using deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Store       *memory.Store
}

// NewServiceFactory constructs a factory with a fresh in-memory store, the
// reference clock and an "id" prefixed generator.
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Store:       memory.NewStore(),
	}
}

// EventService builds an event service wired to the factory's store.
func (f *ServiceFactory) EventService() *application.EventService {
	return application.NewEventService(f.Store, f.IDGenerator.NextFunc(), f.Clock.NowFunc())
}

// SeriesService builds a series service wired to the factory's store.
func (f *ServiceFactory) SeriesService() *application.SeriesService {
	return application.NewSeriesService(f.Store, f.IDGenerator.NextFunc(), f.Clock.NowFunc())
}

// GoalService builds a goal service wired to the factory's store.
func (f *ServiceFactory) GoalService() *application.GoalService {
	return application.NewGoalService(f.Store, f.IDGenerator.NextFunc(), f.Clock.NowFunc())
}

// InteractionService builds an interaction service over the factory's store
// with the given drag and resize tunables.
func (f *ServiceFactory) InteractionService(cfg interaction.Config) *application.InteractionService {
	return application.NewInteractionService(f.Store, cfg, f.Clock.NowFunc())
}
