// Package scheduler runs recurring backups on cron schedules and keeps
// their state in schedules.json under the data directory.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kweiss/resticpilot/internal/config"
	"github.com/kweiss/resticpilot/internal/logger"
	"github.com/kweiss/resticpilot/internal/notify"
)

type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusRunning TaskStatus = "running"
	StatusSuccess TaskStatus = "success"
	StatusFailed  TaskStatus = "failed"
)

// ScheduledTask is one recurring backup job.
type ScheduledTask struct {
	ID          string     `json:"id"`
	Repository  string     `json:"repository"` // profile ID or display name
	SourcePaths []string   `json:"source_paths"`
	Excludes    []string   `json:"excludes,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Schedule    string     `json:"schedule"` // cron spec, @descriptor, or interval like "24h"
	Status      TaskStatus `json:"status"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`

	cronID cron.EntryID
}

// RunFunc executes one backup for a task and reports what happened. The
// scheduler owns status bookkeeping and notifications around it.
type RunFunc func(ctx context.Context, task ScheduledTask) (notify.Stats, error)

type Scheduler struct {
	cron     *cron.Cron
	tasks    map[string]*ScheduledTask
	mu       sync.RWMutex
	dataDir  string
	logger   *logger.Logger
	notifier notify.Notifier
	run      RunFunc
	running  int
	maxTasks int
}

func New(dataDir string, l *logger.Logger, n notify.Notifier, run RunFunc) (*Scheduler, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:     cron.New(),
		tasks:    make(map[string]*ScheduledTask),
		dataDir:  dataDir,
		logger:   l.With("component", "scheduler"),
		notifier: n,
		run:      run,
	}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) statePath() string {
	return filepath.Join(s.dataDir, "schedules.json")
}

func (s *Scheduler) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// saveLocked saves tasks without acquiring a lock (caller must hold mu)
func (s *Scheduler) saveLocked() error {
	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath(), data, 0600)
}

// Load restores persisted tasks and re-registers their cron entries.
func (s *Scheduler) Load() error {
	data, err := os.ReadFile(s.statePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := json.Unmarshal(data, &s.tasks); err != nil {
		return err
	}

	for id, task := range s.tasks {
		id := id
		cronID, err := s.cron.AddFunc(normalizeSpec(task.Schedule), func() {
			s.executeTask(id)
		})
		if err != nil {
			s.logger.Warn("dropping task with invalid schedule", "id", id, "schedule", task.Schedule)
			delete(s.tasks, id)
			continue
		}
		task.cronID = cronID
		if task.Status == StatusRunning {
			// Interrupted by a previous shutdown.
			task.Status = StatusPending
		}
	}
	return nil
}

// normalizeSpec accepts plain durations like "24h" next to cron syntax.
func normalizeSpec(spec string) string {
	if !strings.HasPrefix(spec, "@") && strings.Count(spec, " ") < 4 {
		if _, err := time.ParseDuration(spec); err == nil {
			return "@every " + spec
		}
	}
	return spec
}

func (s *Scheduler) AddTask(task *ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("task already exists: %s", task.ID)
	}

	id := task.ID
	cronID, err := s.cron.AddFunc(normalizeSpec(task.Schedule), func() {
		s.executeTask(id)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", task.Schedule, err)
	}

	task.cronID = cronID
	task.Status = StatusPending
	s.tasks[task.ID] = task
	return s.saveLocked()
}

func (s *Scheduler) RemoveTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task not found: %s", id)
	}

	s.cron.Remove(task.cronID)
	delete(s.tasks, id)
	return s.saveLocked()
}

func (s *Scheduler) ListTasks() []*ScheduledTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*ScheduledTask
	for _, t := range s.tasks {
		entry := s.cron.Entry(t.cronID)
		if !entry.Next.IsZero() {
			next := entry.Next
			t.NextRun = &next
		}
		list = append(list, t)
	}
	return list
}

// SyncConfig registers the backup tasks declared in the config file,
// skipping ones already known.
func (s *Scheduler) SyncConfig(tasks []config.BackupTask) error {
	for _, bt := range tasks {
		if bt.Schedule == "" {
			continue
		}
		id := bt.ID
		if id == "" {
			id = bt.Repository
		}

		s.mu.RLock()
		_, known := s.tasks[id]
		s.mu.RUnlock()
		if known {
			continue
		}

		task := &ScheduledTask{
			ID:          id,
			Repository:  bt.Repository,
			SourcePaths: bt.SourcePaths,
			Excludes:    bt.Excludes,
			Tags:        bt.Tags,
			Schedule:    bt.Schedule,
		}
		if err := s.AddTask(task); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) executeTask(id string) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	running := s.running
	maxTasks := s.maxTasks
	s.mu.RUnlock()
	if !ok {
		return
	}

	if maxTasks > 0 && running >= maxTasks {
		s.logger.Warn("skipping task: max concurrent tasks reached", "id", id, "max", maxTasks, "running", running)
		return
	}
	if task.Status == StatusRunning {
		s.logger.Warn("skipping task: already running", "id", id)
		return
	}

	s.mu.Lock()
	task.Status = StatusRunning
	now := time.Now()
	task.LastRun = &now
	s.running++
	s.mu.Unlock()
	s.Save()

	stats, err := s.run(context.Background(), *task)
	stats.Operation = "Backup"
	if stats.Repository == "" {
		stats.Repository = task.Repository
	}
	stats.Duration = time.Since(now)

	s.mu.Lock()
	s.running--
	if err != nil {
		task.Status = StatusFailed
		s.logger.Error("scheduled backup failed", "id", id, "error", err)
		stats.Status = notify.StatusError
		stats.Error = err
	} else {
		task.Status = StatusSuccess
		s.logger.Info("scheduled backup succeeded", "id", id)
		stats.Status = notify.StatusSuccess
	}
	s.mu.Unlock()
	s.Save()

	if s.notifier != nil {
		if err := s.notifier.Notify(context.Background(), stats); err != nil {
			s.logger.Warn("notification failed", "id", id, "error", err)
		}
	}
}
