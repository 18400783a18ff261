package services

import (
	"context"
	"strings"

	"emotioncrypt/api/internal/core/domain"
)

// KeywordClassifier is the deterministic last-tier detector. It consumes no
// network or model resources and never fails, which makes it both the fallback
// when every adapter is down and the re-verification detector at decrypt time.
// Identical input always yields byte-identical ranked output, so every table
// below is iterated in fixed slice order, never by ranging over a map.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

const (
	baseMatchWeight = 0.4
	mergeRatio      = 0.5
	maxConfidence   = 0.95
)

type keywordCategory struct {
	label    domain.EmotionLabel
	keywords []string
}

// Keyword tables. Matching is substring-based over the lowercased text, the
// same looseness the scoring constants were tuned against.
var keywordCategories = []keywordCategory{
	{domain.Joy, []string{"happy", "joyful", "delighted", "pleased", "glad", "cheerful"}},
	{domain.Excitement, []string{"excited", "enthusiastic", "eager", "pumped", "excitement"}},
	{domain.Sadness, []string{"sad", "unhappy", "depressed", "melancholy", "down", "disappointed", "upset", "gloomy"}},
	{domain.Anger, []string{"angry", "mad", "furious", "irritated", "annoyed", "rage", "frustrated", "upset"}},
	{domain.Anxiety, []string{"anxious", "anxiety", "apprehensive"}},
	{domain.Fear, []string{"worried", "afraid", "scared", "nervous", "fearful", "concerned"}},
	{domain.Surprise, []string{"surprised", "amazed", "shocked", "astonished", "stunned"}},
	{domain.Love, []string{"love", "adore", "cherish", "fond", "affection"}},
}

// High-intensity words that read as joy and excitement at once.
var dualEmotionKeywords = []string{"thrilled", "ecstatic", "overjoyed"}

var dualEmotionLabels = []domain.EmotionLabel{domain.Joy, domain.Excitement}

// Anticipation phrasing boosts excitement and secondarily suggests joy.
var excitementPhrases = []string{"can't wait", "cannot wait", "can not wait", "looking forward"}

// Outcome words that, near a context word, indicate joy ("got the job offer").
var positiveOutcomeWords = []string{"got", "received", "achieved", "succeeded", "won", "offer", "success"}

var positiveContextWords = []string{"job", "promotion", "acceptance", "approval"}

// Classify scans the fixed keyword tables and returns ranked scores. Labels
// with zero matches are omitted rather than scored at 0; an entirely neutral
// text yields [(Neutral, 0.5)].
func (c *KeywordClassifier) Classify(_ context.Context, text string) ([]domain.EmotionScore, error) {
	lower := strings.ToLower(text)

	scores := make(map[domain.EmotionLabel]float64)

	// Dual-emotion words score both target labels before the per-category scan.
	for _, keyword := range dualEmotionKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		for _, label := range dualEmotionLabels {
			if _, seen := scores[label]; !seen {
				scores[label] = baseMatchWeight
			} else {
				scores[label] = clamp(scores[label] + 0.2)
			}
		}
	}

	for _, phrase := range excitementPhrases {
		if !strings.Contains(lower, phrase) {
			continue
		}
		if _, seen := scores[domain.Excitement]; !seen {
			scores[domain.Excitement] = baseMatchWeight
		} else {
			scores[domain.Excitement] = clamp(scores[domain.Excitement] + 0.2)
		}
		if _, seen := scores[domain.Joy]; !seen {
			scores[domain.Joy] = 0.3
		}
	}

	outcomeMatches := 0
	for _, word := range positiveOutcomeWords {
		if strings.Contains(lower, word) {
			outcomeMatches++
		}
	}
	if outcomeMatches > 0 && containsAny(lower, positiveContextWords) {
		if _, seen := scores[domain.Joy]; !seen {
			scores[domain.Joy] = 0.35
		} else {
			scores[domain.Joy] = clamp(scores[domain.Joy] + 0.15)
		}
	}

	for _, cat := range keywordCategories {
		matches := 0
		for _, keyword := range cat.keywords {
			if strings.Contains(lower, keyword) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		confidence := clamp(float64(matches) * baseMatchWeight)
		if matches >= 2 {
			confidence = clamp(confidence + 0.1)
		}
		if _, seen := scores[cat.label]; !seen {
			scores[cat.label] = confidence
		} else {
			scores[cat.label] = clamp(scores[cat.label] + confidence*mergeRatio)
		}
	}

	// Collect in fixed category order so equal-confidence output is stable
	// before the final sort.
	var ranked []domain.EmotionScore
	for _, label := range domain.CanonicalLabels {
		if confidence, ok := scores[label]; ok {
			ranked = append(ranked, domain.EmotionScore{Label: label, Confidence: confidence})
		}
	}
	if len(ranked) == 0 {
		ranked = []domain.EmotionScore{{Label: domain.Neutral, Confidence: 0.5}}
	}

	domain.SortScores(ranked)
	return ranked, nil
}

func (c *KeywordClassifier) Name() string { return "keyword" }

func clamp(v float64) float64 {
	if v > maxConfidence {
		return maxConfidence
	}
	return v
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
