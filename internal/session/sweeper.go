package session

import (
	"log"

	"github.com/robfig/cron/v3"
)

// Sweepable is a store that needs periodic expiry, like MemoryStore.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically purges expired sessions.
type Sweeper struct {
	cron     *cron.Cron
	store    Sweepable
	schedule string
}

func NewSweeper(store Sweepable, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &Sweeper{
		cron:     cron.New(),
		store:    store,
		schedule: schedule,
	}
}

// Start registers the sweep job and starts the scheduler
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.RunOnce)
	if err != nil {
		log.Printf("Failed to create session sweep job: %v", err)
		return err
	}

	log.Printf("Session sweeper started (schedule %q)", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) RunOnce() {
	if removed := s.store.Sweep(); removed > 0 {
		log.Printf("Session sweep removed %d expired sessions", removed)
	}
}
