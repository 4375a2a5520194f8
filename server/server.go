// Package server exposes dataset management and queries over HTTP.
//
//	PUT    /dataset/{id}/{kind}   add a dataset from a zip archive body
//	DELETE /dataset/{id}          remove a dataset
//	POST   /query                 run a JSON query document
//	GET    /datasets              list datasets
//	GET    /metrics               Prometheus metrics
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/ingest"
	"github.com/vegasq/insight/query"
)

// maxArchiveBytes bounds the body of a dataset upload.
const maxArchiveBytes = 256 << 20

// maxQueryBytes bounds the body of a query request.
const maxQueryBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	store   *dataset.Store
	loader  *ingest.Loader
	engine  *query.Engine
	metrics *metrics
	logger  log.Logger
	router  *mux.Router
}

// New builds a server over the given store. Metrics are registered with reg
// and served from reg at /metrics.
func New(store *dataset.Store, loader *ingest.Loader, engine *query.Engine, reg *prometheus.Registry, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		store:   store,
		loader:  loader,
		engine:  engine,
		metrics: newMetrics(reg),
		logger:  log.With(logger, "component", "server"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/dataset/{id}/{kind}", s.addDataset).Methods(http.MethodPut)
	r.HandleFunc("/dataset/{id}", s.removeDataset).Methods(http.MethodDelete)
	r.HandleFunc("/query", s.query).Methods(http.MethodPost)
	r.HandleFunc("/datasets", s.listDatasets).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.Use(accessLog(s.logger))
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		level.Info(s.logger).Log("msg", "server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	level.Info(s.logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}
