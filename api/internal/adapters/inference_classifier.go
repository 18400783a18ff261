package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"emotioncrypt/api/internal/core/domain"
)

// InferenceClassifier is the local-model tier: a text-classification inference
// server reachable over HTTP, speaking the usual {"inputs": text} request and
// ranked label/score response. The server's vocabulary is mapped through label
// normalization, so it does not have to match the canonical set.
type InferenceClassifier struct {
	baseURL string
	client  *http.Client
}

func NewInferenceClassifier(baseURL string, timeout time.Duration) *InferenceClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InferenceClassifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *InferenceClassifier) Name() string { return "inference" }

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type inferenceLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *InferenceClassifier) Classify(ctx context.Context, text string) ([]domain.EmotionScore, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference server returned %d", domain.ErrClassifierUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrClassifierResponseInvalid, err)
	}

	labels, err := decodeInferenceLabels(raw)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.EmotionScore, 0, len(labels))
	for _, l := range labels {
		scores = append(scores, domain.EmotionScore{
			Label:      domain.NormalizeLabel(l.Label),
			Confidence: clampUnit(l.Score),
		})
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no labels returned", domain.ErrClassifierResponseInvalid)
	}
	scores = mergeDuplicateLabels(scores)

	domain.SortScores(scores)
	if len(scores) > maxRankedEmotions {
		scores = scores[:maxRankedEmotions]
	}
	return scores, nil
}

// decodeInferenceLabels accepts both shapes inference servers emit for
// single-input classification: a flat array of label/score pairs, or that
// array nested one level per input.
func decodeInferenceLabels(raw []byte) ([]inferenceLabel, error) {
	var flat []inferenceLabel
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var nested [][]inferenceLabel
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	return nil, fmt.Errorf("%w: unrecognized response shape", domain.ErrClassifierResponseInvalid)
}
