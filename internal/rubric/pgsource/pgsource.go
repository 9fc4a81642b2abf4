// Package pgsource stores named rubric documents in PostgreSQL and serves
// them as rubric.Source values.
package pgsource

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

var tracer = otel.Tracer("github.com/linnemanlabs/counsel/internal/rubric/pgsource")

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no rubric is stored under a name.
var ErrNotFound = errors.New("rubric not found")

// Store persists rubric documents in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on pool and returns a ready Store. The caller owns
// the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	ctx, span := tracer.Start(ctx, "pgsource.New", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "CREATE"),
	))
	defer span.End()

	if _, err := pool.Exec(ctx, schema); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Get returns the stored document and its last update time.
func (s *Store) Get(ctx context.Context, name string) ([]byte, time.Time, error) {
	ctx, span := tracer.Start(ctx, "pgsource.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
		attribute.String("counsel.rubric.name", name),
	))
	defer span.End()

	var (
		doc       string
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT document, updated_at FROM rubrics WHERE name = $1`, name,
	).Scan(&doc, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, time.Time{}, fmt.Errorf("select rubric: %w", err)
	}
	return []byte(doc), updatedAt, nil
}

// Put validates doc and stores it under name, replacing any previous version.
// An invalid document is rejected with a *rubric.ConfigError before any
// database access.
func (s *Store) Put(ctx context.Context, name string, doc []byte) (*rubric.Rubric, error) {
	if name == "" {
		return nil, errors.New("rubric name is required")
	}
	r, err := rubric.Load(ctx, rubric.BytesSource{Label: name, Data: doc})
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "pgsource.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
		attribute.String("counsel.rubric.name", name),
	))
	defer span.End()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO rubrics (name, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET
			document   = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at`,
		name, string(doc),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("upsert rubric: %w", err)
	}
	return r, nil
}

// Source returns a rubric.Source reading the document stored under name.
func (s *Store) Source(name string) rubric.Source {
	return source{store: s, name: name}
}

type source struct {
	store *Store
	name  string
}

func (src source) Name() string { return "postgres:rubrics/" + src.name }

func (src source) Read(ctx context.Context) ([]byte, error) {
	doc, _, err := src.store.Get(ctx, src.name)
	return doc, err
}
