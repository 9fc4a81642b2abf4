package triageapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/counsel/internal/triage"
)

// submitResponse flattens the triage result next to its request ID.
type submitResponse struct {
	ID string `json:"id"`
	*triage.Result
}

type batchRequest struct {
	Items []triage.Input `json:"items"`
}

type batchResponse struct {
	Items []triage.BatchItem `json:"items"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var in triage.Input
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", "")
		return
	}

	sr, err := a.svc.Submit(r.Context(), &in)
	if err != nil {
		a.writeSubmitError(w, r, err)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("counsel.triage.id", sr.ID),
		attribute.String("counsel.routing", string(sr.Result.Routing)),
		attribute.String("counsel.input_hash", sr.Result.InputHash),
	)

	w.Header().Set("X-Triage-Id", sr.ID)
	writeJSON(w, http.StatusOK, submitResponse{ID: sr.ID, Result: sr.Result})
}

func (a *API) handleTriageBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", "")
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.Int("counsel.batch.size", len(req.Items)),
	)

	items, err := a.svc.SubmitBatch(r.Context(), req.Items)
	if err != nil {
		a.writeSubmitError(w, r, err)
		return
	}
	if items == nil {
		items = []triage.BatchItem{}
	}
	writeJSON(w, http.StatusOK, batchResponse{Items: items})
}

func (a *API) handleGetRubric(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.RubricSummary())
}

func (a *API) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *triage.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error(), ve.Field)
		return
	}
	a.logger.Error(r.Context(), err, "triage failed")
	writeError(w, http.StatusInternalServerError, "internal error", "")
}
