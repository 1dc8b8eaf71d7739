package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/matst80/slask-instant/pkg/auth"
	"github.com/matst80/slask-instant/pkg/common"
	"github.com/matst80/slask-instant/pkg/messaging"
	"github.com/matst80/slask-instant/pkg/types"
)

type ChangeResult struct {
	Index    string `json:"index"`
	Upserted int    `json:"upserted"`
	Deleted  int    `json:"deleted"`
}

func authError(err error) error {
	if errors.Is(err, auth.ErrIndexNotAllowed) || errors.Is(err, auth.ErrWriteNotAllowed) {
		return common.NewHttpError(http.StatusForbidden, err)
	}
	return common.NewHttpError(http.StatusUnauthorized, err)
}

func (ws *WebServer) indexLabel(name string) string {
	if _, ok := ws.getIndex(name); ok {
		return name
	}
	return "unknown"
}

// Search answers GET requests with query parameters and POST requests with
// a json body. Every outcome is tracked for the session of the caller.
func (ws *WebServer) Search(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error {
	start := time.Now()
	sr, err := types.GetQueryFromRequest(r)
	if err != nil {
		return common.NewHttpError(http.StatusBadRequest, err)
	}
	if sr.Index == "" {
		return common.NewHttpError(http.StatusBadRequest, errors.New("missing index"))
	}
	label := ws.indexLabel(sr.Index)
	if ws.Keys != nil {
		if err = ws.Keys.Authorize(r, sr.Index); err != nil {
			noRequests.WithLabelValues(label, "denied").Inc()
			return authError(err)
		}
	}
	sessionId, _ := common.HandleSessionCookie(w, r)

	event := types.SearchEvent{
		SessionId: sessionId,
		Index:     sr.Index,
		Query:     sr.Query,
		Filters:   sr.Filters.String(),
		Page:      sr.Page,
	}
	payload, err := ws.Router.Search(r.Context(), sr)
	event.Time = time.Now()
	if err != nil {
		event.Event = types.EventSearchFailed
		event.Error = err.Error()
		ws.Tracking.TrackSearch(event)
		noRequests.WithLabelValues(label, "failed").Inc()
		switch {
		case errors.Is(err, types.ErrUnknownIndex):
			return common.NewHttpError(http.StatusNotFound, err)
		case types.IsNetworkFailure(err):
			return common.NewHttpError(http.StatusBadGateway, err)
		}
		return err
	}
	event.Event = types.EventSearchApplied
	event.NbHits = payload.NbHits
	ws.Tracking.TrackSearch(event)
	noRequests.WithLabelValues(label, "ok").Inc()
	requestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	w.Header().Set("Cache-Control", "private, stale-while-revalidate=120")
	w.Header().Set("X-Processing-Time", strconv.FormatInt(payload.ProcessingTimeMS, 10))
	return enc.Encode(payload)
}

// Indexes lists the index names, limited to the ones the key allows when
// keys are required.
func (ws *WebServer) Indexes(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error {
	names := ws.Router.Names()
	if ws.Keys != nil {
		claims, err := ws.Keys.FromRequest(r)
		if err != nil {
			return authError(err)
		}
		names = slices.DeleteFunc(names, func(name string) bool {
			return !claims.Allows(name)
		})
	}
	return enc.Encode(names)
}

// Changes applies a posted IndexChange. It requires a write key.
func (ws *WebServer) Changes(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error {
	if r.Method != http.MethodPost {
		return common.NewHttpError(http.StatusMethodNotAllowed, errors.New("use POST"))
	}
	change := messaging.IndexChange{}
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		return common.NewHttpError(http.StatusBadRequest, err)
	}
	if ws.Keys != nil {
		if err := ws.Keys.AuthorizeWrite(r, change.Index); err != nil {
			return authError(err)
		}
	}
	if err := ws.ApplyChange(change); err != nil {
		switch {
		case errors.Is(err, types.ErrUnknownIndex):
			return common.NewHttpError(http.StatusNotFound, err)
		case errors.Is(err, ErrReadOnlyIndex):
			return common.NewHttpError(http.StatusConflict, err)
		}
		return err
	}
	return enc.Encode(ChangeResult{
		Index:    change.Index,
		Upserted: len(change.Upserted),
		Deleted:  len(change.Deleted),
	})
}
