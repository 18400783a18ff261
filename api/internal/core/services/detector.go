package services

import (
	"context"
	"log/slog"

	"emotioncrypt/api/internal/core/domain"
)

// Detector runs the configured classifier adapters in priority order and falls
// back to the deterministic keyword classifier when every adapter fails. The
// adapter list is fixed at construction: no process-wide singletons, no
// re-initialization behind the caller's back. A Detector is safe for
// concurrent use: all state is read-only after construction.
type Detector struct {
	adapters []domain.Classifier
	fallback *KeywordClassifier
	logger   *slog.Logger
}

// NewDetector builds a detector over the given adapters (highest priority
// first). The keyword fallback is always present as the last tier.
func NewDetector(logger *slog.Logger, adapters ...domain.Classifier) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		adapters: adapters,
		fallback: NewKeywordClassifier(),
		logger:   logger,
	}
}

// Detect returns ranked emotion scores for the text. Adapter failures are
// recovered by moving to the next tier; the fallback never fails, so Detect
// always produces a non-empty result.
func (d *Detector) Detect(ctx context.Context, text string) []domain.EmotionScore {
	for _, adapter := range d.adapters {
		scores, err := adapter.Classify(ctx, text)
		if err != nil {
			d.logger.Warn("classifier tier failed, falling through",
				slog.String("classifier", adapter.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(scores) == 0 {
			d.logger.Warn("classifier tier returned no emotions, falling through",
				slog.String("classifier", adapter.Name()),
			)
			continue
		}
		return scores
	}

	scores, _ := d.fallback.Classify(ctx, text) // never errors
	return scores
}

// Primary returns the labels whose confidence clears the threshold, in
// canonical priority order. Never empty for a non-empty detection result.
func (d *Detector) Primary(ctx context.Context, text string, threshold float64) []domain.EmotionLabel {
	return domain.PrimaryEmotions(d.Detect(ctx, text), threshold)
}

// Vector returns the normalized emotional vector for the text.
func (d *Detector) Vector(ctx context.Context, text string) map[string]float64 {
	return domain.EmotionalVector(d.Detect(ctx, text))
}
