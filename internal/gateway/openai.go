package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/relocation-intake/internal/domain/intake"
	"github.com/yungbote/relocation-intake/internal/observability"
	"github.com/yungbote/relocation-intake/internal/pkg/errors"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
	"github.com/yungbote/relocation-intake/internal/platform/openai"
	"github.com/yungbote/relocation-intake/internal/prompts"
)

type llmGateway struct {
	log    *logger.Logger
	client openai.Client
	store  prompts.Store
}

// NewOpenAI returns a Gateway that renders prompts from store and calls client.
func NewOpenAI(log *logger.Logger, client openai.Client, store prompts.Store) (Gateway, error) {
	if client == nil || store == nil {
		return nil, fmt.Errorf("gateway: client and prompt store required")
	}
	if err := prompts.RequireAll(store, prompts.RequiredNames...); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	return &llmGateway{log: log.With("service", "LLMGateway"), client: client, store: store}, nil
}

func (g *llmGateway) render(name prompts.PromptName, in prompts.Input) (prompts.Prompt, error) {
	t, err := g.store.Get(name)
	if err != nil {
		return prompts.Prompt{}, err
	}
	in.CategoriesCSV = strings.Join(categoryNames(), ", ")
	return prompts.Render(t, in)
}

// generate runs one structured model call under a span tagged with the prompt identity.
func (g *llmGateway) generate(ctx context.Context, op string, p prompts.Prompt, schemaName string, schema map[string]any) (map[string]any, error) {
	ctx, span := observability.Tracer().Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("prompt.name", string(p.Name)),
		attribute.Int("prompt.version", p.Version),
		attribute.String("prompt.fingerprint", p.Fingerprint),
	))
	defer span.End()
	obj, err := g.client.GenerateJSON(ctx, p.System, p.User, schemaName, schema)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return obj, err
}

func (g *llmGateway) Categorize(ctx context.Context, freeText map[string]string) (intake.Patch, error) {
	fields := make(map[string]string, len(freeText))
	for k, v := range freeText {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no free-text answers", errors.ErrInvalidArgument)
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	p, err := g.render(prompts.PromptCategorize, prompts.Input{FreeTextJSON: string(b)})
	if err != nil {
		return nil, err
	}
	obj, err := g.generate(ctx, "categorize", p, schemaSnapshot, SnapshotSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: categorize: %w", errors.ErrGateway, err)
	}
	patch, err := ParseSnapshot(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: categorize: %v", errors.ErrGateway, err)
	}
	g.log.Debug("Categorized free text", "fields", len(fields), "prompt_fingerprint", p.Fingerprint)
	return patch, nil
}

func (g *llmGateway) GenerateFollowUps(ctx context.Context, req FollowUpRequest) FollowUps {
	snap, err := json.Marshal(req.Snapshot)
	if err != nil {
		return DegradedFollowUps(err)
	}
	prev := "[]"
	if len(req.PreviousQuestions) > 0 {
		b, err := json.Marshal(req.PreviousQuestions)
		if err != nil {
			return DegradedFollowUps(err)
		}
		prev = string(b)
	}
	p, err := g.render(prompts.PromptFollowUps, prompts.Input{
		SnapshotJSON:          string(snap),
		Round:                 req.Round,
		MaxRounds:             req.MaxRounds,
		MinQuestions:          MinQuestions,
		MaxQuestions:          MaxQuestions,
		PreviousQuestionsJSON: prev,
	})
	if err != nil {
		return DegradedFollowUps(err)
	}
	obj, err := g.generate(ctx, "follow_ups", p, schemaFollowUps, FollowUpsSchema())
	if err != nil {
		g.log.Warn("Follow-up generation failed; using defaults", "round", req.Round, "error", err)
		return DegradedFollowUps(fmt.Errorf("%w: follow-ups: %w", errors.ErrGateway, err))
	}
	out, ok := ParseFollowUps(obj, req.PreviousQuestions)
	if !ok {
		g.log.Warn("Follow-up response malformed; using defaults", "round", req.Round)
		return DegradedFollowUps(fmt.Errorf("%w: follow-ups: malformed response", errors.ErrGateway))
	}
	return out
}

type answeredEntry struct {
	ID       string `json:"id"`
	Round    int    `json:"round"`
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (g *llmGateway) MergeAnswers(ctx context.Context, snapshot intake.Snapshot, answered []intake.QAEntry) (intake.Patch, error) {
	entries := make([]answeredEntry, 0, len(answered))
	for _, e := range answered {
		if !e.Answered() {
			continue
		}
		entries = append(entries, answeredEntry{
			ID:       e.ID,
			Round:    e.Round,
			Category: string(e.Category),
			Question: e.Question,
			Answer:   e.Answer,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Round < entries[j].Round })

	snap, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	ans, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	p, err := g.render(prompts.PromptMergeAnswers, prompts.Input{SnapshotJSON: string(snap), AnswersJSON: string(ans)})
	if err != nil {
		return nil, err
	}
	obj, err := g.generate(ctx, "merge_answers", p, schemaSnapshot, SnapshotSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: merge: %w", errors.ErrGateway, err)
	}
	patch, err := ParseSnapshot(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: merge: %v", errors.ErrGateway, err)
	}
	return patch, nil
}
