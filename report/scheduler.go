package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/log"
	"github.com/robfig/cron/v3"
)

const fireTimeout = 10 * time.Minute

// Scheduler keeps one recurring cron entry per enabled department. The
// registry of armed entries is owned here and guarded by a mutex, so a
// refresh always removes the old entry before arming the new one and a
// department can never hold two timers.
//
// Cron fields are interpreted in the configured report timezone, never
// host-local time.
type Scheduler struct {
	store      ScheduleStore
	dispatcher *Dispatcher
	configDir  string
	cron       *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewScheduler(store ScheduleStore, dispatcher *Dispatcher, configDir string, tz *time.Location) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		configDir:  configDir,
		cron:       cron.New(cron.WithLocation(tz)),
		entries:    map[string]cron.EntryID{},
	}
}

// Start arms a timer for every department in the recipient configuration
// and starts the cron runner. A department whose settings cannot be read
// is logged and left unarmed; the rest still start.
func (s *Scheduler) Start(ctx context.Context) error {
	recipients, err := config.LoadRecipients(s.configDir)
	if err != nil {
		return fmt.Errorf("scheduler start: %w", err)
	}

	departments := recipients.Departments()
	sort.Strings(departments)
	for _, dept := range departments {
		if err := s.Refresh(ctx, dept); err != nil {
			log.Errorf("scheduler.start: %s: %s", dept, err)
		}
	}

	s.cron.Start()
	log.Infof("scheduler started: %d departments armed", s.ArmedCount())
	return nil
}

// Refresh re-reads one department's schedule setting and rearms its
// timer: the existing entry is always removed first, and no entry is
// added while the department is disabled. Safe to call concurrently; a
// firing already in progress completes.
func (s *Scheduler) Refresh(ctx context.Context, department string) error {
	setting, err := s.store.GetSchedule(ctx, department)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[department]; ok {
		s.cron.Remove(id)
		delete(s.entries, department)
	}

	if !setting.Enabled {
		log.Infof("scheduler: %s disabled", department)
		return nil
	}
	if !setting.Valid() {
		return fmt.Errorf("invalid schedule for %s: day=%d hour=%d minute=%d",
			department, setting.DayOfWeek, setting.Hour, setting.Minute)
	}

	spec := fmt.Sprintf("%d %d * * %d", setting.Minute, setting.Hour, setting.DayOfWeek)
	id, err := s.cron.AddFunc(spec, func() { s.fire(department) })
	if err != nil {
		return err
	}
	s.entries[department] = id

	log.Infof("scheduler: %s armed (%s)", department, spec)
	return nil
}

func (s *Scheduler) fire(department string) {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	result := s.dispatcher.Dispatch(ctx, Options{Departments: []string{department}})
	if len(result.Failures) > 0 {
		log.Warnf("scheduler: %s run %s finished with %d failure(s)", department, result.RunID, len(result.Failures))
	}
}

// Stop halts the cron runner and waits for in-flight firings to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) Armed(department string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[department]
	return ok
}

func (s *Scheduler) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
