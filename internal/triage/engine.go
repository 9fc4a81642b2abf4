package triage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

const tracerName = "github.com/linnemanlabs/counsel/internal/triage"

// TimestampFormat is ISO-8601 UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// InputHashLen is the number of hex characters kept from the SHA-256 digest.
const InputHashLen = 16

// CompleteEvent is passed to EngineHooks.OnComplete after a successful triage.
type CompleteEvent struct {
	Routing    rubric.Routing
	NextStep   NextStep
	Rule       string
	Confidence float64
	RedFlags   []DetectedRedFlag
	Questions  int
	Guardrails int
}

// EngineHooks are optional callbacks for observability. Nil fields are skipped.
type EngineHooks struct {
	OnComplete func(e *CompleteEvent)
	OnRejected func(reason string)
}

// Engine evaluates inputs against a single rubric snapshot. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rubric *rubric.Rubric
	logger log.Logger
	hooks  EngineHooks
	now    func() time.Time
}

// NewEngine creates an engine bound to rb.
func NewEngine(rb *rubric.Rubric, logger log.Logger, hooks EngineHooks) *Engine {
	if rb == nil {
		panic(xerrors.New("rubric is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		rubric: rb,
		logger: logger,
		hooks:  hooks,
		now:    time.Now,
	}
}

// Rubric returns the rubric the engine evaluates against.
func (e *Engine) Rubric() *rubric.Rubric { return e.rubric }

// Triage classifies in. It returns a *ValidationError when the input is
// unusable and never a partial result.
func (e *Engine) Triage(ctx context.Context, in *Input) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "triage.Engine.Triage")
	defer span.End()

	if err := in.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if e.hooks.OnRejected != nil {
			reason := "invalid_input"
			var ve *ValidationError
			if errors.As(err, &ve) {
				reason = ve.Field
			}
			e.hooks.OnRejected(reason)
		}
		return nil, err
	}

	lower := strings.ToLower(in.Description)
	flags := detect(lower, e.rubric)
	questions := missingInfo(in, lower, e.rubric)
	guardrails := resolveGuardrails(in, lower, flags, e.rubric)
	decision := Route(flags, questions, in, e.rubric.RoutingPolicy)
	next := NextStepFor(decision.Routing, decision.Confidence)

	res := &Result{
		Routing:              decision.Routing,
		Confidence:           decision.Confidence,
		RedFlags:             flags,
		MissingInfoQuestions: questions,
		SafeGuardrails:       guardrails,
		RecommendedNextStep:  next,
		Timestamp:            e.now().UTC().Format(TimestampFormat),
		InputHash:            HashInput(in.Description),
	}

	span.SetAttributes(
		attribute.String("counsel.input_hash", res.InputHash),
		attribute.String("counsel.routing", string(res.Routing)),
		attribute.Float64("counsel.confidence", res.Confidence),
		attribute.String("counsel.rule", decision.Rule),
		attribute.String("counsel.next_step", string(next)),
		attribute.StringSlice("counsel.red_flags", res.FlagCodes()),
		attribute.Int("counsel.questions", len(questions)),
		attribute.Int("counsel.guardrails", len(guardrails)),
	)

	e.logger.Info(ctx, "triage complete",
		"input_hash", res.InputHash,
		"routing", res.Routing,
		"confidence", res.Confidence,
		"rule", decision.Rule,
		"next_step", next,
		"red_flags", strings.Join(res.FlagCodes(), ","),
		"questions", len(questions),
		"guardrails", len(guardrails),
	)

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(&CompleteEvent{
			Routing:    res.Routing,
			NextStep:   next,
			Rule:       decision.Rule,
			Confidence: res.Confidence,
			RedFlags:   flags,
			Questions:  len(questions),
			Guardrails: len(guardrails),
		})
	}

	return res, nil
}

// HashInput returns the first 16 hex characters of the SHA-256 of the
// description. It identifies a request in logs without revealing its text.
func HashInput(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])[:InputHashLen]
}
