package gateway

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tangentchat/tangent/internal/config"
)

// Prunable is any session store the janitor can sweep.
type Prunable interface {
	PruneIdle(ttl time.Duration) int
}

// Janitor periodically drops idle sessions from the stores it watches.
// Sessions hold transcripts and engine state in memory only, so a long
// running gateway needs the sweep to keep a bounded footprint.
type Janitor struct {
	c       *cron.Cron
	ttl     time.Duration
	targets []Prunable
}

// NewJanitor creates a Janitor on the configured schedule. Stop() must be
// called to release the cron goroutine.
func NewJanitor(cfg *config.Config, targets ...Prunable) (*Janitor, error) {
	j := &Janitor{
		c:       cron.New(),
		ttl:     time.Duration(cfg.Gateway.SessionTTLMinutes) * time.Minute,
		targets: targets,
	}
	if _, err := j.c.AddFunc(cfg.Gateway.JanitorSchedule, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

// Start begins the schedule in its own goroutine.
func (j *Janitor) Start() {
	j.c.Start()
	slog.Info("session janitor started", "ttl", j.ttl)
}

// Stop halts the schedule. A sweep already running completes.
func (j *Janitor) Stop() {
	j.c.Stop()
}

func (j *Janitor) sweep() {
	total := 0
	for _, t := range j.targets {
		total += t.PruneIdle(j.ttl)
	}
	if total > 0 {
		slog.Info("pruned idle sessions", "count", total)
	}
}
