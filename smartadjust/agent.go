// Package smartadjust applies free-text edit requests to existing
// itineraries. Edits are best effort: when the model cannot produce a
// usable replacement the caller gets its original itinerary back.
package smartadjust

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"wayfarer/errs"
	"wayfarer/llm"
	"wayfarer/metrics"
	"wayfarer/models"
	"wayfarer/prompts"
)

const AdjustedBy = "SmartAdjustAgent"

var (
	ErrNoObject = errors.New("no JSON object in model output")
	ErrNoDays   = errors.New("adjusted itinerary has no days")
)

type Deps struct {
	Generator llm.Generator
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Model     llm.Config
	Now       func() time.Time
}

type Agent struct {
	gen     llm.Generator
	metrics *metrics.Metrics
	log     *zap.Logger
	model   llm.Config
	now     func() time.Time
}

func NewAgent(d Deps) *Agent {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Model.Model == "" {
		d.Model = llm.AdjustConfig()
	}
	return &Agent{
		gen:     d.Generator,
		metrics: d.Metrics,
		log:     d.Log.Named("smartadjust"),
		model:   d.Model,
		now:     d.Now,
	}
}

// Result carries the itinerary to show the caller. Adjusted is false when
// Itinerary is the unmodified input.
type Result struct {
	Itinerary *models.Itinerary
	Adjusted  bool
	Reason    string
}

// ValidateRequest checks the free-text edit request.
func ValidateRequest(text string) error {
	err := validation.Validate(strings.TrimSpace(text),
		validation.Required,
		validation.RuneLength(5, 500),
	)
	if err != nil {
		return errs.Validation("invalid adjustment request", map[string]string{"request": err.Error()})
	}
	return nil
}

// BuildPrompt embeds the current itinerary as literal JSON ahead of the
// caller's request.
func BuildPrompt(current *models.Itinerary, request string) (string, error) {
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode itinerary: %w", err)
	}
	return "Here is the current itinerary JSON:\n" + string(data) + "\n\n" +
		"User adjustment request: " + strings.TrimSpace(request) + "\n\n" +
		"IMPORTANT: Return ONLY the adjusted itinerary as a valid JSON object. " +
		"Do not include any explanations, markdown formatting, or additional text. " +
		"The response must start with '{' and end with '}' and be valid JSON.", nil
}

// Adjust asks the model to apply request to current. Only an invalid
// request is reported as an error; every model or parse failure returns
// current untouched.
func (a *Agent) Adjust(ctx context.Context, current *models.Itinerary, request string) (*Result, error) {
	if err := ValidateRequest(request); err != nil {
		a.metrics.AdjustOutcome("invalid")
		return nil, err
	}
	if current == nil {
		a.metrics.AdjustOutcome("invalid")
		return nil, errs.Validation("invalid adjustment request", map[string]string{"itinerary": "cannot be blank"})
	}
	log := a.log.With(zap.String("itinerary", current.ItineraryID))

	unchanged := func(outcome, reason string) *Result {
		a.metrics.AdjustOutcome(outcome)
		return &Result{Itinerary: current, Reason: reason}
	}

	prompt, err := BuildPrompt(current, request)
	if err != nil {
		log.Error("adjust prompt build failed", zap.Error(err))
		return unchanged("prompt_error", "itinerary could not be encoded"), nil
	}

	resp := a.gen.Generate(ctx, prompt, prompts.SmartAdjustAgent(), a.model)
	a.metrics.ModelCall("smartadjust", resp.Success, resp.Latency)
	if !resp.Success {
		log.Warn("adjustment model call failed, keeping original", zap.String("error", resp.Error))
		return unchanged("upstream_error", "model unavailable"), nil
	}

	adjusted, err := Parse(resp.Content)
	if err != nil {
		log.Warn("adjustment output rejected, keeping original",
			zap.Error(err),
			zap.Int("response_len", len(resp.Content)))
		return unchanged("content_error", "model output unusable"), nil
	}

	if adjusted.ItineraryID == "" {
		adjusted.ItineraryID = current.ItineraryID
	}
	if adjusted.Meta == nil {
		adjusted.Meta = make(map[string]any)
	}
	adjusted.Meta["adjustedBy"] = AdjustedBy
	adjusted.Meta["adjustedAt"] = a.now().UTC().Format(time.RFC3339)

	a.metrics.AdjustOutcome("ok")
	log.Info("itinerary adjusted",
		zap.Int("activities_before", current.ActivityCount()),
		zap.Int("activities_after", adjusted.ActivityCount()))
	return &Result{Itinerary: adjusted, Adjusted: true}, nil
}

// Parse decodes the model's replacement itinerary. A strict parse of the
// fence-stripped text is tried first, then the outermost brace-delimited
// span. The result must be an object with a days key.
func Parse(content string) (*models.Itinerary, error) {
	body := llm.StripFences(content)
	raw, err := decodeObject(body)
	if err != nil {
		// ExtractObject takes the raw content on purpose: it scans for the
		// outermost braces itself, so fences around them do not matter.
		if body = llm.ExtractObject(content); body == "" {
			return nil, ErrNoObject
		}
		if raw, err = decodeObject(body); err != nil {
			return nil, err
		}
	}
	if _, ok := raw["days"]; !ok {
		return nil, ErrNoDays
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}
	models.CoerceItineraryJSON(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode adjusted itinerary: %w", err)
	}
	var it models.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("adjusted itinerary does not fit the itinerary shape: %w", err)
	}
	return &it, nil
}

func decodeObject(s string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNoObject
	}
	return raw, nil
}
