package cache

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger is any store that can evict its expired entries.
type Purger interface {
	Purge() int
}

// Janitor sweeps expired entries out of the registered stores on a fixed
// schedule so long-idle keys do not pin memory.
type Janitor struct {
	cron    *cron.Cron
	logger  *zap.Logger
	purgers []Purger
}

// NewJanitor creates a janitor sweeping every interval.
func NewJanitor(interval time.Duration, logger *zap.Logger, purgers ...Purger) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(),
		logger:  logger,
		purgers: purgers,
	}

	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), j.sweep)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// Start begins the sweep schedule.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule; a sweep already in progress finishes.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

func (j *Janitor) sweep() {
	total := 0
	for _, p := range j.purgers {
		total += p.Purge()
	}
	if total > 0 {
		j.logger.Debug("evicted expired cache entries", zap.Int("count", total))
	}
}
