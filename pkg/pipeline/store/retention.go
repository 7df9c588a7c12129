package store

import (
	"time"
)

// Cleanup deletes journal partitions whose day is strictly older than
// retentionDays before today (UTC). The current day's partition and the
// in-memory cache are never touched. It returns the number of removed
// partitions; retentionDays <= 0 disables retention and removes nothing.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	cutoff := now.Truncate(24 * time.Hour).AddDate(0, 0, -retentionDays)
	today := partitionName(now)

	infos, err := s.journal.partitions()
	if err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	for _, info := range infos {
		if info.name == today {
			continue
		}
		if !info.date.Before(cutoff) {
			continue
		}
		if err := s.journal.removePartition(info.name); err != nil {
			s.logger.Warn("could not remove expired journal partition",
				"partition", info.name,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
		s.logger.Debug("removed expired journal partition",
			"partition", info.name)
	}

	if removed > 0 {
		s.logger.Info("retention cleanup completed",
			"removed", removed,
			"retention_days", retentionDays)
	}
	if s.collector != nil {
		s.collector.RecordCleanup(removed)
	}

	return removed, firstErr
}
