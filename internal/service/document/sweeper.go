package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTempFileTTL             = time.Hour
	DefaultTempFileCleanupInterval = 15 * time.Minute
)

// Sweeper removes staged uploads left behind by a crashed process. Files
// younger than ttl belong to in-flight requests and are kept.
type Sweeper struct {
	dir    string
	ttl    time.Duration
	logger *logrus.Entry
	now    func() time.Time
}

func NewSweeper(dir string, ttl time.Duration, logger *logrus.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTempFileTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sweeper{
		dir:    dir,
		ttl:    ttl,
		logger: logger.WithField("component", "document.sweeper"),
		now:    time.Now,
	}
}

// Start runs Sweep every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTempFileCleanupInterval
	}
	go s.cleanupLoop(ctx, interval)
}

func (s *Sweeper) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(); err != nil {
				s.logger.WithError(err).Error("sweep temp uploads failed")
			}
		}
	}
}

// Sweep deletes expired regular files in the upload dir and reports how many
// were removed.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Warn("remove orphaned upload failed")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("swept orphaned uploads")
	}
	return removed, nil
}
