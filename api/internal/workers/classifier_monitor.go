package workers

import (
	"context"
	"log/slog"
	"time"

	"emotioncrypt/api/internal/core/domain"
)

// canaryText exercises a classifier without revealing anything: the probe only
// cares whether the tier answers, not what it says.
const canaryText = "ok"

// ClassifierMonitor periodically probes each configured classifier tier and
// logs availability transitions, so operators can see which tier detection is
// actually running on without waiting for a burst of fall-through warnings.
type ClassifierMonitor struct {
	classifiers []domain.Classifier
	logger      *slog.Logger
	interval    time.Duration

	available map[string]bool // previous probe result per tier
}

func NewClassifierMonitor(logger *slog.Logger, interval time.Duration, classifiers ...domain.Classifier) *ClassifierMonitor {
	return &ClassifierMonitor{
		classifiers: classifiers,
		logger:      logger,
		interval:    interval,
		available:   make(map[string]bool),
	}
}

func (m *ClassifierMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

func (m *ClassifierMonitor) probeAll(ctx context.Context) {
	for _, c := range m.classifiers {
		// Per-probe timeout: a hung tier must not stall the monitor loop.
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := c.Classify(probeCtx, canaryText)
		cancel()

		up := err == nil
		was, seen := m.available[c.Name()]
		m.available[c.Name()] = up

		switch {
		case !seen && !up:
			m.logger.Warn("classifier tier unavailable",
				slog.String("classifier", c.Name()),
				slog.String("error", err.Error()),
			)
		case seen && was && !up:
			m.logger.Warn("classifier tier went down",
				slog.String("classifier", c.Name()),
				slog.String("error", err.Error()),
			)
		case seen && !was && up:
			m.logger.Info("classifier tier recovered",
				slog.String("classifier", c.Name()),
			)
		}
	}
}
