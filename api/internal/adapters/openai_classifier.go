package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"golang.org/x/time/rate"

	"emotioncrypt/api/internal/core/domain"
)

// maxRankedEmotions caps every adapter's output, matching the "top 2"
// instruction given to the model.
const maxRankedEmotions = 2

const defaultClassifyTimeout = 15 * time.Second

var classifyInstructions = fmt.Sprintf(`Analyze the user's text and identify the PRIMARY emotions expressed.
Focus on the top %d most prominent emotions.

Available emotions: %s

Instructions:
- Identify ONLY the top %d most prominent emotions
- Use emotion names exactly as listed above (capitalized)
- Confidence scores must be between 0.0 and 1.0`,
	maxRankedEmotions, joinLabels(domain.CanonicalLabels), maxRankedEmotions)

type rankedEmotion struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

type classifyResponse struct {
	Emotions []rankedEmotion `json:"emotions"`
}

var classifySchema = generateSchema[classifyResponse]()

// OpenAIClassifier is the remote LLM tier. Calls are paced by a local rate
// limiter and bounded by a per-call timeout, so the detector chain can never
// block indefinitely on this tier.
type OpenAIClassifier struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		timeout: defaultClassifyTimeout,
	}
}

func (c *OpenAIClassifier) Name() string { return "openai" }

// Classify asks the model for the top 2 emotions as strict-schema JSON.
// Transport problems map to ErrClassifierUnavailable, unparseable or empty
// output to ErrClassifierResponseInvalid.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) ([]domain.EmotionScore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrClassifierUnavailable, err)
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(300),
		Instructions:    openai.String(classifyInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "EmotionRanking",
					Schema:      classifySchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Ranked emotion list JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}

	return parseRankedEmotions(resp.OutputText())
}

// callWithRetry retries rate-limit and server errors with short waits. The
// per-call timeout still bounds the whole attempt sequence.
func (c *OpenAIClassifier) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	waitTimes := []time.Duration{500 * time.Millisecond, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryableError(err) || attempt == maxRetries-1 {
			return nil, err
		}
		select {
		case <-time.After(waitTimes[attempt]):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "server_error") ||
		strings.Contains(errStr, "internal server error")
}

// parseRankedEmotions turns the model's JSON into normalized, capped, ranked
// scores. Markdown fences around the JSON are tolerated.
func parseRankedEmotions(raw string) ([]domain.EmotionScore, error) {
	cleaned := stripCodeFence(raw)

	var out classifyResponse
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierResponseInvalid, err)
	}
	if len(out.Emotions) == 0 {
		return nil, fmt.Errorf("%w: empty emotions array", domain.ErrClassifierResponseInvalid)
	}

	scores := make([]domain.EmotionScore, 0, len(out.Emotions))
	for _, item := range out.Emotions {
		scores = append(scores, domain.EmotionScore{
			Label:      domain.NormalizeLabel(item.Emotion),
			Confidence: clampUnit(item.Confidence),
		})
	}
	scores = mergeDuplicateLabels(scores)

	domain.SortScores(scores)
	if len(scores) > maxRankedEmotions {
		scores = scores[:maxRankedEmotions]
	}
	return scores, nil
}

// mergeDuplicateLabels collapses entries that normalized onto the same
// canonical label ("happy" and "joy" both map to Joy), keeping the highest
// confidence. Duplicate labels would otherwise double-count in the vector
// total and repeat in the primary set.
func mergeDuplicateLabels(scores []domain.EmotionScore) []domain.EmotionScore {
	seen := make(map[domain.EmotionLabel]int, len(scores))
	out := scores[:0]
	for _, s := range scores {
		if i, ok := seen[s.Label]; ok {
			if s.Confidence > out[i].Confidence {
				out[i].Confidence = s.Confidence
			}
			continue
		}
		seen[s.Label] = len(out)
		out = append(out, s)
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if after, found := strings.CutPrefix(s, "```json"); found {
		s = after
	} else if after, found := strings.CutPrefix(s, "```"); found {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func joinLabels(labels []domain.EmotionLabel) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
