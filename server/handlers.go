package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/query"
	"github.com/vegasq/insight/schema"
)

type resultResponse struct {
	Result interface{} `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Warn(s.logger).Log("msg", "failed to write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error, kind string) {
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) addDataset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	kind, err := schema.ParseKind(vars["kind"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
		return
	}
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArchiveBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
		return
	}

	ds, err := s.loader.Load(r.Context(), id, kind, content)
	if err != nil {
		level.Info(s.logger).Log("msg", "dataset rejected", "id", id, "kind", kind, "request_id", RequestID(r.Context()), "err", err)
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
		return
	}
	ids, err := s.store.Add(r.Context(), ds)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
		return
	}
	s.metrics.datasetsAdded.Inc()
	s.writeJSON(w, http.StatusOK, resultResponse{Result: ids})
}

func (s *Server) removeDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.store.Remove(r.Context(), id)
	switch {
	case err == nil:
		s.metrics.datasetsRemoved.Inc()
		s.writeJSON(w, http.StatusOK, resultResponse{Result: id})
	case errors.Is(err, dataset.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err, "NotFoundError")
	default:
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
	}
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueryBytes))
	if err != nil {
		s.metrics.queries.WithLabelValues(statusError).Inc()
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
		return
	}

	res, err := s.engine.ExecuteJSON(r.Context(), body)
	s.metrics.queryDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		s.metrics.queries.WithLabelValues(statusSuccess).Inc()
		s.metrics.queryRows.Observe(float64(len(res.Rows)))
		rows := res.Rows
		if rows == nil {
			rows = []dataset.Row{}
		}
		s.writeJSON(w, http.StatusOK, resultResponse{Result: rows})
	case errors.Is(err, query.ErrResultTooLarge):
		s.metrics.queries.WithLabelValues(statusTooLarge).Inc()
		s.writeError(w, http.StatusBadRequest, err, query.KindTooLarge)
	case errors.Is(err, query.ErrInvalidQuery):
		s.metrics.queries.WithLabelValues(statusInvalid).Inc()
		s.writeError(w, http.StatusBadRequest, err, query.KindInvalid)
	default:
		s.metrics.queries.WithLabelValues(statusError).Inc()
		level.Error(s.logger).Log("msg", "query failed", "request_id", RequestID(r.Context()), "err", err)
		s.writeError(w, http.StatusInternalServerError, err, "")
	}
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		level.Error(s.logger).Log("msg", "list datasets failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err, "")
		return
	}
	if infos == nil {
		infos = []dataset.Info{}
	}
	s.writeJSON(w, http.StatusOK, resultResponse{Result: infos})
}
