package adapters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotioncrypt/api/internal/core/domain"
)

func TestParseRankedEmotions(t *testing.T) {
	raw := `{"emotions": [{"emotion": "Joy", "confidence": 0.55}, {"emotion": "Excitement", "confidence": 0.6}]}`

	scores, err := parseRankedEmotions(raw)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, domain.Excitement, scores[0].Label)
	assert.InDelta(t, 0.6, scores[0].Confidence, 1e-9)
	assert.Equal(t, domain.Joy, scores[1].Label)
}

func TestParseRankedEmotions_CodeFenced(t *testing.T) {
	fenced := "```json\n{\"emotions\": [{\"emotion\": \"sadness\", \"confidence\": 0.8}]}\n```"

	scores, err := parseRankedEmotions(fenced)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, domain.Sadness, scores[0].Label)
}

func TestParseRankedEmotions_CapsToTopTwo(t *testing.T) {
	raw := `{"emotions": [
		{"emotion": "Joy", "confidence": 0.5},
		{"emotion": "Excitement", "confidence": 0.4},
		{"emotion": "Surprise", "confidence": 0.3}
	]}`

	scores, err := parseRankedEmotions(raw)
	require.NoError(t, err)
	assert.Len(t, scores, maxRankedEmotions)
}

func TestParseRankedEmotions_ClampsConfidence(t *testing.T) {
	raw := `{"emotions": [{"emotion": "Joy", "confidence": 1.7}, {"emotion": "Fear", "confidence": -0.2}]}`

	scores, err := parseRankedEmotions(raw)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 1.0, scores[0].Confidence)
	assert.Equal(t, 0.0, scores[1].Confidence)
}

func TestParseRankedEmotions_MergesSynonymLabels(t *testing.T) {
	// "happy" and "joy" both normalize to Joy; the result must carry the
	// label once, at the higher confidence.
	raw := `{"emotions": [{"emotion": "happy", "confidence": 0.8}, {"emotion": "joy", "confidence": 0.7}]}`

	scores, err := parseRankedEmotions(raw)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, domain.Joy, scores[0].Label)
	assert.InDelta(t, 0.8, scores[0].Confidence, 1e-9)

	// The merged result keeps the downstream signature invariants intact.
	sig := domain.NewEmotionalSignature("so happy", scores, domain.DefaultThreshold)
	assert.Equal(t, []domain.EmotionLabel{domain.Joy}, sig.PrimaryEmotions)
	total := 0.0
	for _, v := range sig.EmotionalVector {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestParseRankedEmotions_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":     "I feel joyful!",
		"empty object": `{}`,
		"empty array":  `{"emotions": []}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseRankedEmotions(raw)
			assert.ErrorIs(t, err, domain.ErrClassifierResponseInvalid)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripCodeFence(tc.in), "input %q", tc.in)
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("429 Too Many Requests")))
	assert.True(t, isRetryableError(errors.New("rate limit exceeded")))
	assert.True(t, isRetryableError(errors.New("500 Internal Server Error")))
	assert.True(t, isRetryableError(errors.New("server_error")))

	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(errors.New("401 Unauthorized")))
	assert.False(t, isRetryableError(errors.New("invalid request")))
}

func TestClassifySchema_StrictObject(t *testing.T) {
	assert.Equal(t, false, classifySchema["additionalProperties"])
	assert.Equal(t, "object", classifySchema["type"])

	properties, ok := classifySchema["properties"].(map[string]interface{})
	require.True(t, ok, "schema must carry an object properties map")
	require.Contains(t, properties, "emotions")

	// The strictness walk recurses into array item schemas too.
	emotions, ok := properties["emotions"].(map[string]interface{})
	require.True(t, ok)
	items, ok := emotions["items"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, items["additionalProperties"])
}
