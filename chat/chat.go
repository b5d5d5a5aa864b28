// Package chat answers free-form travel questions, over plain HTTP or
// streamed over a websocket.
package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"wayfarer/errs"
	"wayfarer/llm"
	"wayfarer/metrics"
	"wayfarer/prompts"
	"wayfarer/utils"
)

type Service struct {
	gen     llm.Generator
	model   llm.Config
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewService(gen llm.Generator, model llm.Config, m *metrics.Metrics, log *zap.Logger) *Service {
	if model.Model == "" {
		model = llm.ChatConfig()
	}
	return &Service{gen: gen, model: model, metrics: m, log: log.Named("chat")}
}

type chatRequest struct {
	Query string `json:"query"`
}

func validateQuery(q string) error {
	if err := validation.Validate(q, validation.Required, validation.RuneLength(1, 2000)); err != nil {
		return errs.Validation("invalid chat request", map[string]string{"query": err.Error()})
	}
	return nil
}

// Ask sends one question to the model.
func (s *Service) Ask(ctx context.Context, query string) (llm.Response, error) {
	query = strings.TrimSpace(query)
	if err := validateQuery(query); err != nil {
		return llm.Response{}, err
	}
	resp := s.gen.Generate(ctx, query, prompts.ChatAssistant(), s.model)
	s.metrics.ModelCall("chat", resp.Success, resp.Latency)
	if !resp.Success {
		s.log.Warn("chat model call failed", zap.String("error", resp.Error))
		return resp, errs.Upstream(errors.New(resp.Error))
	}
	return resp, nil
}

// POST /api/v1/chat
func (s *Service) Chat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body chatRequest
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithErr(w, s.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	resp, err := s.Ask(ctx, body.Query)
	if err != nil {
		utils.RespondWithErr(w, s.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":     "ok",
		"query":      body.Query,
		"response":   resp.Content,
		"searchUsed": resp.SearchUsed,
	})
}
