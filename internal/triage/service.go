package triage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

const (
	// MaxBatchSize bounds the number of inputs accepted by SubmitBatch.
	MaxBatchSize = 100

	// batchConcurrency bounds how many batch items are evaluated at once.
	batchConcurrency = 8
)

// Notifier delivers a legal review request to the legal channel.
type Notifier interface {
	Send(ctx context.Context, id string, r *Result) error
}

// SubmitResult is the outcome of submitting a description for triage.
type SubmitResult struct {
	ID     string
	Result *Result
}

// BatchItem is one entry of a SubmitBatch response. Exactly one of Result
// and Error is set.
type BatchItem struct {
	ID     string  `json:"id,omitempty"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Service is the business boundary for triage operations.
type Service struct {
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
	wg       sync.WaitGroup
}

// NewService creates a new triage service. metrics and notifier may be nil.
func NewService(engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if engine == nil {
		panic(xerrors.New("triage engine is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// Engine returns the engine the service evaluates with.
func (s *Service) Engine() *Engine { return s.engine }

// Submit triages in and assigns the result an ID. Results that need legal
// review are announced to the notifier asynchronously.
func (s *Service) Submit(ctx context.Context, in *Input) (*SubmitResult, error) {
	res, err := s.engine.Triage(ctx, in)
	if err != nil {
		s.countSubmit("invalid")
		return nil, err
	}

	id := ulid.Make().String()
	s.countSubmit("accepted")

	s.logger.Info(ctx, "triage submitted",
		"triage_id", id,
		"input_hash", res.InputHash,
		"routing", res.Routing,
		"next_step", res.RecommendedNextStep,
	)

	if res.RecommendedNextStep == NextLegalReview && s.notifier != nil {
		s.wg.Add(1)
		go s.notify(context.WithoutCancel(ctx), id, res)
	}

	return &SubmitResult{ID: id, Result: res}, nil
}

// SubmitBatch triages every input, preserving order. Invalid inputs report
// their error in place and do not fail the batch. The returned error is
// non-nil only for an oversized batch or a cancelled context.
func (s *Service) SubmitBatch(ctx context.Context, inputs []Input) ([]BatchItem, error) {
	if len(inputs) > MaxBatchSize {
		return nil, &ValidationError{
			Field:  "items",
			Value:  fmt.Sprint(len(inputs)),
			Reason: fmt.Sprintf("batch exceeds %d items", MaxBatchSize),
		}
	}

	out := make([]BatchItem, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sr, err := s.Submit(gctx, &inputs[i])
			if err != nil {
				out[i] = BatchItem{Error: err.Error()}
				return nil
			}
			out[i] = BatchItem{ID: sr.ID, Result: sr.Result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "batch triaged", "items", len(inputs), "failed", countFailed(out))
	return out, nil
}

// RubricSummary describes the rubric the service evaluates against.
func (s *Service) RubricSummary() rubric.Summary {
	return s.engine.Rubric().Summary()
}

// Wait blocks until every in-flight notification has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) notify(ctx context.Context, id string, res *Result) {
	defer s.wg.Done()

	L := s.logger.With("triage_id", id, "input_hash", res.InputHash)
	if err := s.notifier.Send(ctx, id, res); err != nil {
		L.Error(ctx, err, "legal review notification failed",
			"red_flags", strings.Join(res.FlagCodes(), ","),
		)
		s.countNotification("error")
		return
	}
	s.countNotification("sent")
}

func (s *Service) countSubmit(result string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countNotification(status string) {
	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(status).Inc()
	}
}

func countFailed(items []BatchItem) int {
	n := 0
	for _, it := range items {
		if it.Error != "" {
			n++
		}
	}
	return n
}
