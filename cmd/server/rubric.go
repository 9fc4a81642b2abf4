package main

import (
	"context"
	"fmt"

	"github.com/linnemanlabs/go-core/log"

	vc "github.com/linnemanlabs/counsel/internal/cfg"
	"github.com/linnemanlabs/counsel/internal/postgres"
	"github.com/linnemanlabs/counsel/internal/rubric"
	"github.com/linnemanlabs/counsel/internal/rubric/pgsource"
)

// loadRubric resolves the configured rubric source: a PostgreSQL row, a
// YAML file, or the embedded default. Any load error is fatal; the server
// never starts on a partial rubric.
func loadRubric(ctx context.Context, c *vc.Config, L log.Logger, observer postgres.QueryObserver) (*rubric.Rubric, error) {
	switch {
	case c.DatabaseURL != "":
		pool, err := postgres.NewPool(ctx, c.DatabaseURL, postgres.PoolOptions{
			Logger:   L,
			Observer: observer,
			MaxConns: 2,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		// rubric is read once, the pool is not needed afterwards
		defer pool.Close()

		store, err := pgsource.New(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("pgsource init: %w", err)
		}
		return load(ctx, store.Source(c.RubricName), L)

	case c.RubricPath != "":
		return load(ctx, rubric.FileSource{Path: c.RubricPath}, L)

	default:
		return load(ctx, rubric.DefaultSource(), L)
	}
}

func load(ctx context.Context, src rubric.Source, L log.Logger) (*rubric.Rubric, error) {
	rb, err := rubric.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	L.Info(ctx, "rubric loaded",
		"source", src.Name(),
		"version", rb.Version,
		"red_flags", len(rb.RedFlags),
		"question_templates", len(rb.QuestionTemplates),
		"safe_guardrails", len(rb.SafeGuardrails),
		"default_routing", string(rb.RoutingPolicy.Default),
		"confidence_threshold", rb.RoutingPolicy.ConfidenceThreshold,
	)
	return rb, nil
}
