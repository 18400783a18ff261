package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EmotionLabel is an open string type. The canonical vocabulary below is what
// the detectors emit; labels outside it (from newer classifier vocabularies)
// are title-cased and passed through, and are only validated against the
// closed set at the API boundary.
type EmotionLabel string

const (
	Joy        EmotionLabel = "Joy"
	Excitement EmotionLabel = "Excitement"
	Sadness    EmotionLabel = "Sadness"
	Anger      EmotionLabel = "Anger"
	Anxiety    EmotionLabel = "Anxiety"
	Fear       EmotionLabel = "Fear"
	Surprise   EmotionLabel = "Surprise"
	Love       EmotionLabel = "Love"
	Neutral    EmotionLabel = "Neutral"
)

// DefaultThreshold is the confidence floor for an emotion to count as primary.
const DefaultThreshold = 0.3

// CanonicalLabels is the closed vocabulary offered to classifier backends.
var CanonicalLabels = []EmotionLabel{
	Joy, Excitement, Sadness, Anger, Anxiety, Fear, Surprise, Love, Neutral,
}

// tieBreakPriority orders labels whenever confidences are equal and when
// ordering the primary set for presentation. Labels outside the table sort last.
var tieBreakPriority = map[EmotionLabel]int{
	Joy:        0,
	Excitement: 1,
	Anxiety:    2,
	Fear:       3,
	Anger:      4,
	Sadness:    5,
	Surprise:   6,
	Love:       7,
	Neutral:    8,
}

// PriorityOf returns the tie-break rank of a label. Unknown labels rank after
// every canonical one.
func PriorityOf(label EmotionLabel) int {
	if p, ok := tieBreakPriority[label]; ok {
		return p
	}
	return len(tieBreakPriority)
}

var labelSynonyms = map[string]EmotionLabel{
	"joy":        Joy,
	"happiness":  Joy,
	"happy":      Joy,
	"excitement": Excitement,
	"excited":    Excitement,
	"sadness":    Sadness,
	"sad":        Sadness,
	"anger":      Anger,
	"angry":      Anger,
	"anxiety":    Anxiety,
	"anxious":    Anxiety,
	"fear":       Fear,
	"afraid":     Fear,
	"surprise":   Surprise,
	"surprised":  Surprise,
	"love":       Love,
	"neutral":    Neutral,
}

// NormalizeLabel maps a raw classifier label onto the canonical vocabulary.
// Unmapped labels are title-cased and passed through verbatim.
func NormalizeLabel(raw string) EmotionLabel {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return Neutral
	}
	if canonical, ok := labelSynonyms[lower]; ok {
		return canonical
	}
	// Title-case on the first rune, not the first byte, so multibyte labels
	// survive intact.
	r, size := utf8.DecodeRuneInString(lower)
	return EmotionLabel(string(unicode.ToUpper(r)) + lower[size:])
}

// EmotionScore pairs a label with a confidence in [0, 1].
type EmotionScore struct {
	Label      EmotionLabel `json:"emotion"`
	Confidence float64      `json:"confidence"`
}

// SortScores orders scores by confidence descending, breaking ties by the
// canonical priority order.
func SortScores(scores []EmotionScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Confidence != scores[j].Confidence {
			return scores[i].Confidence > scores[j].Confidence
		}
		return PriorityOf(scores[i].Label) < PriorityOf(scores[j].Label)
	})
}

// EmotionalSignature is the plaintext metadata carried alongside a ciphertext.
// It is immutable once built for a given plaintext and threshold.
type EmotionalSignature struct {
	PrimaryEmotions []EmotionLabel           `json:"primary_emotions"`
	EmotionScores   map[EmotionLabel]float64 `json:"emotion_scores"`
	EmotionalVector map[string]float64       `json:"emotional_vector"`
	MessageHash     string                   `json:"message_hash"`
}

// NewEmotionalSignature derives the signature from ranked detection results.
// It is a pure function of (plaintext, scores, threshold).
func NewEmotionalSignature(plaintext string, scores []EmotionScore, threshold float64) EmotionalSignature {
	scoreMap := make(map[EmotionLabel]float64, len(scores))
	for _, s := range scores {
		scoreMap[s.Label] = s.Confidence
	}
	return EmotionalSignature{
		PrimaryEmotions: PrimaryEmotions(scores, threshold),
		EmotionScores:   scoreMap,
		EmotionalVector: EmotionalVector(scores),
		MessageHash:     MessageHash(plaintext),
	}
}

// PrimaryEmotions filters ranked scores by the confidence threshold and
// re-sorts the survivors into the canonical priority order. If nothing clears
// the threshold, the single top-ranked label is returned so the set is never
// empty for a non-empty detection result.
func PrimaryEmotions(scores []EmotionScore, threshold float64) []EmotionLabel {
	ranked := append([]EmotionScore(nil), scores...)
	SortScores(ranked)

	var primary []EmotionLabel
	for _, s := range ranked {
		if s.Confidence >= threshold {
			primary = append(primary, s.Label)
		}
	}
	if len(primary) == 0 && len(ranked) > 0 {
		primary = []EmotionLabel{ranked[0].Label}
	}

	sort.SliceStable(primary, func(i, j int) bool {
		return PriorityOf(primary[i]) < PriorityOf(primary[j])
	})
	return primary
}

// EmotionalVector normalizes confidences so the values sum to 1.0. A zero
// total collapses to {neutral: 1.0}. Keys are lowercased label names.
func EmotionalVector(scores []EmotionScore) map[string]float64 {
	total := 0.0
	for _, s := range scores {
		total += s.Confidence
	}
	if total <= 0 {
		return map[string]float64{strings.ToLower(string(Neutral)): 1.0}
	}

	vector := make(map[string]float64, len(scores))
	for _, s := range scores {
		vector[strings.ToLower(string(s.Label))] = s.Confidence / total
	}
	return vector
}

// MessageHash returns the first 16 hex characters of the SHA-256 digest of the
// plaintext. A tamper hint only; the cipher's own auth tag is the real
// integrity guarantee.
func MessageHash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])[:16]
}
