// Package planner turns plan requests into persisted itineraries.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/llm"
	"wayfarer/metrics"
	"wayfarer/models"
	"wayfarer/mq"
	"wayfarer/prompts"
)

// Deps are the collaborators of a Service. Events and Metrics may be nil.
type Deps struct {
	Generator llm.Generator
	Store     db.Store
	Events    mq.Publisher
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Model     llm.Config
	Limits    Limits
	Now       func() time.Time
}

type Service struct {
	gen     llm.Generator
	store   db.Store
	events  mq.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	model   llm.Config
	limits  Limits
	now     func() time.Time
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Model.Model == "" {
		d.Model = llm.PlanConfig()
	}
	if d.Limits.MaxDays == 0 {
		d.Limits = DefaultLimits()
	}
	if d.Events == nil {
		d.Events = mq.Noop{}
	}
	return &Service{
		gen:     d.Generator,
		store:   d.Store,
		events:  d.Events,
		metrics: d.Metrics,
		log:     d.Log.Named("planner"),
		model:   d.Model,
		limits:  d.Limits,
		now:     d.Now,
	}
}

// Result is the outcome of a successful plan.
type Result struct {
	Itinerary             *models.Itinerary `json:"itinerary"`
	ItineraryID           string            `json:"itineraryId"`
	ProcessingTimeSeconds float64           `json:"processingTimeSeconds"`
	// Saved is false when the store was unreachable and ItineraryID is a
	// placeholder.
	Saved bool `json:"saved"`
}

// Generate validates req, asks the model for a plan, repairs and persists
// it under owner.
func (s *Service) Generate(ctx context.Context, owner db.Owner, req PlanRequest) (*Result, error) {
	start := s.now()

	input, err := req.Input(s.limits)
	if err != nil {
		s.metrics.PlanOutcome("invalid")
		return nil, err
	}
	if owner.Kind == db.OwnerSession && input.SessionID == "" {
		input.SessionID = owner.ID
	}
	log := s.log.With(zap.String("owner", owner.Path()), zap.String("destination", input.Destination))

	prompt := BuildPrompt(input)
	resp := s.gen.Generate(ctx, prompt, prompts.TripPlanner(), s.model)
	s.metrics.ModelCall("planner", resp.Success, resp.Latency)

	if !resp.Success {
		s.audit(ctx, owner, "", prompt, resp)
		s.metrics.PlanOutcome("upstream_error")
		log.Error("itinerary generation failed", zap.String("error", resp.Error))
		return nil, errs.Upstream(errors.New(resp.Error))
	}

	it, err := ParseItinerary(resp.Content)
	if err != nil {
		s.audit(ctx, owner, "", prompt, resp)
		s.metrics.PlanOutcome("content_error")
		log.Error("model output rejected",
			zap.Error(err),
			zap.Int("response_len", len(resp.Content)),
			zap.String("response_head", head(resp.Content, 500)))
		return nil, errs.Content(err)
	}

	if n := AddFallbackPOIs(it); n > 0 {
		log.Debug("fallback locations added", zap.Int("activities", n))
	}
	MergeInput(it, input)
	trace := StampMeta(it, s.now(), resp.Model, resp.SearchUsed)
	s.audit(ctx, owner, trace, prompt, resp)

	if issues := Check(it); len(issues) > 0 {
		fixed := Repair(it)
		remaining := Check(it)
		log.Warn("itinerary failed schema check",
			zap.Strings("issues", issues),
			zap.Strings("repaired", fixed),
			zap.Strings("remaining", remaining))
		if len(remaining) > 0 {
			it.Meta["validationIssues"] = remaining
		}
	}

	id, saved, err := s.persist(ctx, owner, it)
	if err != nil {
		s.metrics.PlanOutcome("session_error")
		return nil, err
	}
	it.ItineraryID = id

	if _, err := s.store.LogSearch(ctx, owner, searchPayload(input, id)); err != nil {
		log.Warn("search log write failed", zap.Error(err))
	}
	if saved {
		mq.Emit(ctx, s.events, log, mq.Event{
			Type: mq.EventGenerated, ItineraryID: id,
			OwnerKind: string(owner.Kind), OwnerID: owner.ID,
		})
		s.metrics.PlanOutcome("ok")
	} else {
		s.metrics.PlanOutcome("degraded")
	}

	elapsed := s.now().Sub(start)
	log.Info("itinerary generated",
		zap.String("itinerary", id),
		zap.Bool("saved", saved),
		zap.Int("days", len(it.Days)),
		zap.Int("activities", it.ActivityCount()),
		zap.Duration("elapsed", elapsed))

	return &Result{
		Itinerary:             it,
		ItineraryID:           id,
		ProcessingTimeSeconds: elapsed.Seconds(),
		Saved:                 saved,
	}, nil
}

// persist saves it under owner. Session-state failures are returned as
// errors; any other store failure yields a placeholder id.
func (s *Service) persist(ctx context.Context, owner db.Owner, it *models.Itinerary) (string, bool, error) {
	id, err := Save(ctx, s.store, owner, it)
	if err == nil {
		return id, true, nil
	}
	if errs.Is(err, errs.KindSession) {
		return "", false, err
	}
	placeholder := PlaceholderID(owner, s.now())
	s.log.Error("itinerary not persisted, returning placeholder id",
		zap.String("owner", owner.Path()),
		zap.String("placeholder", placeholder),
		zap.Error(err))
	return placeholder, false, nil
}

// Save writes it under owner and classifies store failures.
func Save(ctx context.Context, store db.Store, owner db.Owner, it *models.Itinerary) (string, error) {
	id, err := store.SaveItinerary(ctx, owner, it)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, db.ErrSessionNotFound):
		return "", errs.Session("session not found", err)
	case errors.Is(err, db.ErrSessionExpired):
		return "", errs.Session("session expired", err)
	default:
		return "", errs.Persistence(err)
	}
}

// PlaceholderID marks content that could not be stored.
func PlaceholderID(owner db.Owner, now time.Time) string {
	return fmt.Sprintf("unsaved_%s_%d", owner.ID, now.Unix())
}

func (s *Service) audit(ctx context.Context, owner db.Owner, trace, prompt string, resp llm.Response) {
	rec := models.LLMResponse{
		TraceID:        trace,
		Component:      GeneratedBy,
		OwnerKind:      string(owner.Kind),
		OwnerID:        owner.ID,
		Model:          resp.Model,
		PromptLength:   len(prompt),
		ResponseLength: len(resp.Content),
		SearchUsed:     resp.SearchUsed,
		Success:        resp.Success,
		Error:          resp.Error,
		LatencyMs:      resp.Latency.Milliseconds(),
	}
	if _, err := s.store.SaveLLMResponse(ctx, rec); err != nil {
		s.log.Warn("llm audit write failed", zap.Error(err))
	}
}

func searchPayload(in models.ItineraryInput, itineraryID string) map[string]any {
	payload := map[string]any{
		"destination": in.Destination,
		"numDays":     in.NumDays,
		"budget":      in.Budget,
		"itineraryId": itineraryID,
	}
	if in.StartDate != "" {
		payload["startDate"] = in.StartDate
	}
	if in.EndDate != "" {
		payload["endDate"] = in.EndDate
	}
	if len(in.Sliders) > 0 {
		payload["sliders"] = in.Sliders
	}
	return payload
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
