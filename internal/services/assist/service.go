package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hazardwatch/internal/domain"
	"hazardwatch/internal/services/aggregator"
	"hazardwatch/internal/services/llm"
	"hazardwatch/internal/services/prompt"
)

const (
	minOutputTokens     = 50
	maxOutputTokens     = 1024
	defaultOutputTokens = 300
)

// ProcessRequest is the inbound advisory request.
type ProcessRequest struct {
	TextInput       string `json:"text_input"`
	LocationContext string `json:"location_context,omitempty"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
}

// Validate normalizes the request and rejects it before any external call
// is made. A zero token budget selects the default.
func (r *ProcessRequest) Validate() error {
	if strings.TrimSpace(r.TextInput) == "" {
		return domain.NewError(domain.KindValidation, "text_input is required")
	}
	if r.MaxOutputTokens == 0 {
		r.MaxOutputTokens = defaultOutputTokens
	}
	if r.MaxOutputTokens < minOutputTokens || r.MaxOutputTokens > maxOutputTokens {
		return domain.NewError(domain.KindValidation,
			fmt.Sprintf("max_output_tokens must be between %d and %d", minOutputTokens, maxOutputTokens))
	}
	return nil
}

// ProcessResponse is the successful advisory payload.
type ProcessResponse struct {
	AdvisoryID              string   `json:"advisory_id"`
	UserQuery               string   `json:"user_query"`
	LocationContextProvided bool     `json:"location_context_provided"`
	ContextUsedSummary      []string `json:"context_used_summary"`
	LLMResponse             string   `json:"llm_response"`
	PotentialSMSAlertDraft  string   `json:"potential_sms_alert_draft,omitempty"`
}

// Service runs the advisory pipeline: validate, aggregate context, build the
// prompt, generate.
type Service struct {
	aggregator *aggregator.Aggregator
	generator  llm.Generator
	now        func() time.Time
}

func NewService(agg *aggregator.Aggregator, gen llm.Generator) *Service {
	return &Service{
		aggregator: agg,
		generator:  gen,
		now:        time.Now,
	}
}

// Process handles one advisory request end to end. Context-source failures
// degrade gracefully; only validation and generation failures produce errors.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (ProcessResponse, error) {
	if err := req.Validate(); err != nil {
		return ProcessResponse{}, err
	}

	agg := s.aggregator.Gather(ctx, req.TextInput, req.LocationContext)
	pr := prompt.Build(agg, req.TextInput, req.MaxOutputTokens, s.now())

	outcome := s.generator.Generate(ctx, pr)
	if err := errorFor(outcome); err != nil {
		log.Warn().
			Str("provider", s.generator.Provider()).
			Str("outcome", string(outcome.Kind)).
			Msg("generation did not produce advisory text")
		return ProcessResponse{}, err
	}

	return ProcessResponse{
		AdvisoryID:              uuid.NewString(),
		UserQuery:               req.TextInput,
		LocationContextProvided: strings.TrimSpace(req.LocationContext) != "",
		ContextUsedSummary:      contextSummary(agg),
		LLMResponse:             outcome.Text,
		PotentialSMSAlertDraft:  smsDraft(outcome.Text, agg.Location),
	}, nil
}

// smsDraftBudget keeps the draft inside a single GSM message.
const smsDraftBudget = 160

// smsDraft condenses the advisory into a one-message alert clients can hand
// to the SMS endpoint. The first sentence usually carries the headline advice.
func smsDraft(advisory string, loc domain.LocationContext) string {
	advisory = strings.TrimSpace(advisory)
	if advisory == "" {
		return ""
	}
	body := advisory
	if i := strings.IndexAny(advisory, ".!?"); i >= 0 {
		body = advisory[:i+1]
	}

	draft := fmt.Sprintf("HazardWatch %s: %s", loc.ResolvedLabel, body)
	runes := []rune(draft)
	if len(runes) > smsDraftBudget {
		draft = string(runes[:smsDraftBudget-3]) + "..."
	}
	return draft
}

// errorFor maps non-success outcomes to their error kinds.
func errorFor(o domain.Outcome) error {
	switch o.Kind {
	case domain.OutcomeSuccess:
		return nil
	case domain.OutcomeBlocked:
		msg := "the request was blocked by the content safety policy"
		if o.Reason != "" {
			msg = fmt.Sprintf("%s (%s)", msg, o.Reason)
		}
		return domain.NewError(domain.KindLLMBlocked, msg)
	case domain.OutcomeEmpty:
		return domain.NewError(domain.KindLLMEmpty, "the model returned no advisory text")
	default:
		msg := "the language model service is unavailable"
		if o.Detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, o.Detail)
		}
		return domain.NewError(domain.KindLLMTransport, msg)
	}
}

// contextSummary describes, per source, whether real data made it into the
// prompt. Useful for clients showing what the advisory is based on.
func contextSummary(agg domain.AggregatedContext) []string {
	out := make([]string, 0, len(agg.Fragments)+1)
	out = append(out, fmt.Sprintf("location: %s (%s)", agg.Location.ResolvedLabel, agg.Location.ResolutionStatus))
	for _, f := range agg.Fragments {
		out = append(out, fmt.Sprintf("%s: %s", f.Source, f.Status))
	}
	return out
}
