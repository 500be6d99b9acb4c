package services

import (
	"fmt"
	"time"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
)

// StartJanitor schedules CleanUpInactiveSessions on spec (e.g. "@every 10m").
// The caller stops the returned cron.
func (s *ScratchService) StartJanitor(spec string, ttl time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := s.CleanUpInactiveSessions(ttl); n > 0 {
			logger.Infof("Performed cleanup of %d inactive sessions.", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule janitor %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
