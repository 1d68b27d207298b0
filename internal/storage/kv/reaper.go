package kv

import (
	"context"
	"time"
)

// runReaper periodically sweeps expired records. Read-path operations
// never delete; without the reaper an unread expired key stays physically
// present (and counted by Count) until someone calls Cleanup.
func (s *Store) runReaper(interval time.Duration) {
	defer close(s.reaperDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", interval).Msg("Expiration reaper started")

	for {
		select {
		case <-s.reaperStop:
			s.log.Info().Msg("Expiration reaper stopped")
			return
		case <-ticker.C:
			n, err := s.Cleanup(context.Background())
			if err != nil {
				s.log.Warn().Err(err).Msg("Reaper sweep failed")
				continue
			}
			if n > 0 {
				s.log.Debug().Int64("reaped", n).Msg("Reaper sweep completed")
			}
			s.updateRowGauges()
		}
	}
}

// updateRowGauges refreshes the row-count gauges after a sweep.
func (s *Store) updateRowGauges() {
	ctx := context.Background()
	total, err := s.Count(ctx)
	if err != nil {
		return
	}
	expired, err := s.CountExpired(ctx)
	if err != nil {
		return
	}
	s.metrics.SetRowCounts(total, expired)
}
