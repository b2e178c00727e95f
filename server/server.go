// Package server exposes the pipeline over a local HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/bleve"
	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/db"
	"github.com/tranvictor/addrscout/extractor"
	"github.com/tranvictor/addrscout/util/logging"
	"github.com/tranvictor/addrscout/util/metrics"
)

const maxBodyBytes = 16 << 20

// Pipeline is the part of the dispatcher the API drives.
type Pipeline interface {
	OnResourceLoaded(ctx context.Context, url, originURL string, body []byte) (extractor.Report, error)
	ResolveNames(ctx context.Context, host string) ([]common.AddressItem, error)
	DisplayList(ctx context.Context, host string) ([]common.AddressItem, error)
	Hosts(ctx context.Context) ([]string, error)
}

type NameSearcher interface {
	Search(query string) ([]bleve.AddressDesc, []int)
}

type Server struct {
	pipeline Pipeline
	index    NameSearcher
	logger   *zap.Logger
}

func New(pipeline Pipeline, index NameSearcher, logger *zap.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		index:    index,
		logger:   logging.OrNop(logger).Named("http"),
	}
}

type resourceRequest struct {
	URL    string `json:"url"`
	Origin string `json:"origin"`
	Body   string `json:"body"`
	Force  bool   `json:"force"`
}

type resourceResponse struct {
	Skipped bool `json:"skipped,omitempty"`
	extractor.Report
}

type originResponse struct {
	Host  string               `json:"host"`
	Items []common.AddressItem `json:"items"`
}

type searchHit struct {
	bleve.AddressDesc
	Score int `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/resources", s.handleResource)
	mux.HandleFunc("GET /v1/origins", s.handleHosts)
	mux.HandleFunc("GET /v1/origins/{host}", s.handleOrigin)
	mux.HandleFunc("POST /v1/origins/{host}/resolve", s.handleResolve)
	mux.HandleFunc("GET /v1/names/search", s.handleSearch)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}
	if !req.Force && !extractor.IsScannable(req.URL) {
		s.writeJSON(w, http.StatusOK, resourceResponse{
			Skipped: true,
			Report:  extractor.Report{URL: req.URL, Origin: common.HostFromURL(req.Origin)},
		})
		return
	}
	report, err := s.pipeline.OnResourceLoaded(r.Context(), req.URL, req.Origin, []byte(req.Body))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resourceResponse{Report: report})
}

func (s *Server) handleHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := s.pipeline.Hosts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if hosts == nil {
		hosts = []string{}
	}
	s.writeJSON(w, http.StatusOK, hosts)
}

// handleOrigin returns the display list, narrowed by the optional q filter.
func (s *Server) handleOrigin(w http.ResponseWriter, r *http.Request) {
	host := common.HostFromURL(r.PathValue("host"))
	items, err := s.pipeline.DisplayList(r.Context(), host)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		items, _ = db.Filter(items, q)
	}
	s.writeJSON(w, http.StatusOK, originResponse{Host: host, Items: nonNil(items)})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	host := common.HostFromURL(r.PathValue("host"))
	items, err := s.pipeline.ResolveNames(r.Context(), host)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, originResponse{Host: host, Items: nonNil(items)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("q is required"))
		return
	}
	results, scores := s.index.Search(q)
	hits := make([]searchHit, 0, len(results))
	for i, res := range results {
		hits = append(hits, searchHit{AddressDesc: res, Score: scores[i]})
	}
	s.writeJSON(w, http.StatusOK, hits)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func nonNil(items []common.AddressItem) []common.AddressItem {
	if items == nil {
		return []common.AddressItem{}
	}
	return items
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
