package postgres

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

// QueryObserver receives per-query timings (wired by main for Prometheus).
type QueryObserver interface {
	ObserveQuery(operation, outcome string, dur time.Duration)
}

// QueryObserverFunc adapts a plain function to QueryObserver.
type QueryObserverFunc func(operation, outcome string, dur time.Duration)

// ObserveQuery implements QueryObserver.
func (f QueryObserverFunc) ObserveQuery(operation, outcome string, dur time.Duration) {
	f(operation, outcome, dur)
}

type queryStateKey struct{}

// queryState is stashed in the context between TraceQueryStart and TraceQueryEnd.
type queryState struct {
	sql    string
	nargs  int
	start  time.Time
	caller string
}

// loggingTracer wraps another pgx.QueryTracer (otelpgx) and adds a
// structured log line and an observer callback for every query.
type loggingTracer struct {
	inner    pgx.QueryTracer
	logger   log.Logger
	observer QueryObserver
}

func newLoggingTracer(inner pgx.QueryTracer, logger log.Logger, observer QueryObserver) *loggingTracer {
	if logger == nil {
		logger = log.Nop()
	}
	return &loggingTracer{inner: inner, logger: logger, observer: observer}
}

func (t *loggingTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	st := &queryState{
		sql:    data.SQL,
		nargs:  len(data.Args),
		start:  time.Now(),
		caller: findDBCaller(),
	}

	// inner tracer opens the span first so the caller lands on the DB span
	if t.inner != nil {
		ctx = t.inner.TraceQueryStart(ctx, conn, data)
	}

	if span := trace.SpanFromContext(ctx); st.caller != "" && span.IsRecording() {
		span.SetAttributes(attribute.String("db.caller", st.caller))
	}

	return context.WithValue(ctx, queryStateKey{}, st)
}

func (t *loggingTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if t.inner != nil {
		t.inner.TraceQueryEnd(ctx, conn, data)
	}

	st, _ := ctx.Value(queryStateKey{}).(*queryState)
	if st == nil {
		st = &queryState{}
	}

	var dur time.Duration
	if !st.start.IsZero() {
		dur = time.Since(st.start)
	}

	op := operationName(data.CommandTag, st.sql)
	outcome := "ok"
	if data.Err != nil {
		outcome = "error"
	}
	if t.observer != nil {
		t.observer.ObserveQuery(op, outcome, dur)
	}

	fields := []any{
		"db.statement", compactSQL(st.sql),
		"db.args", st.nargs,
		"db.duration", dur.Seconds(),
		"db.operation.name", op,
	}
	if tag := strings.TrimSpace(data.CommandTag.String()); tag != "" {
		fields = append(fields, "pg.command_tag", tag, "db.rows", data.CommandTag.RowsAffected())
	}
	if st.caller != "" {
		fields = append(fields, "db.caller", st.caller)
	}

	if data.Err != nil {
		var pgErr *pgconn.PgError
		if errors.As(data.Err, &pgErr) {
			fields = append(fields,
				"db.error_code", pgErr.Code,
				"db.error_constraint", pgErr.ConstraintName,
			)
		}
		t.logger.Error(ctx, data.Err, "db query failed", fields...)
		return
	}
	t.logger.Info(ctx, "db query", fields...)
}

// operationName prefers the command tag verb and falls back to the first SQL keyword.
func operationName(tag pgconn.CommandTag, sql string) string {
	src := strings.TrimSpace(tag.String())
	if src == "" {
		src = strings.TrimSpace(sql)
	}
	if f := strings.Fields(src); len(f) > 0 {
		return strings.ToUpper(f[0])
	}
	return "UNKNOWN"
}

// compactSQL collapses whitespace so multi-line statements log on one line.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// findDBCaller walks the stack to the first application frame issuing the query.
func findDBCaller() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		fr, more := frames.Next()
		fn := fr.Function
		skip := fn == "" ||
			strings.HasPrefix(fn, "runtime.") ||
			strings.Contains(fn, "github.com/jackc/pgx/v5") ||
			strings.Contains(fn, "github.com/exaring/otelpgx") ||
			strings.Contains(fn, "github.com/linnemanlabs/counsel/internal/postgres.")
		if !skip {
			return shortenFuncName(fn)
		}
		if !more {
			return ""
		}
	}
}

func shortenFuncName(fn string) string {
	// trim package path
	if i := strings.LastIndex(fn, "/"); i >= 0 && i+1 < len(fn) {
		fn = fn[i+1:]
	}
	// trim package name, keep receiver + method
	if dot := strings.Index(fn, "."); dot >= 0 && dot+1 < len(fn) {
		fn = fn[dot+1:]
	}
	return fn
}
