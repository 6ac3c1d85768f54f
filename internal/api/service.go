package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netlistend/pkg/netstate"
	"github.com/dmdmdm-nz/netlistend/pkg/version"
)

// Service represents the HTTP server for the API
type Service struct {
	address  string
	port     int
	observer *netstate.Observer

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func NewService(host string, port int, observer *netstate.Observer) *Service {
	return &Service{
		address:  host,
		port:     port,
		observer: observer,
	}
}

// Start serves the API until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.address, s.port)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("Starting netlistend API service at %s", addr)
	defer log.Info("Stopping netlistend API service")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state := s.observer.Query()
		w.Header().Add("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		err := enc.Encode(StatusResponse{
			Available: bool(state),
			State:     state.String(),
			Version:   version.Version,
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode status: %v", err), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/ws/state", func(w http.ResponseWriter, r *http.Request) {
		if minVersion := r.URL.Query().Get("min_version"); minVersion != "" {
			ok, err := version.Satisfies(minVersion)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid min_version: %v", err), http.StatusBadRequest)
				return
			}
			if !ok {
				http.Error(w, fmt.Sprintf("server version %s is older than %s", version.Version, minVersion), http.StatusUpgradeRequired)
				return
			}
		}

		StreamState(s, w, r)
	})
	return mux
}
