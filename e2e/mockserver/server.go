// Package mockserver provides a mock Binance futures klines server for testing.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/barsim/internal/types"
)

const (
	defaultKlinesLimit = 500
	maxKlinesLimit     = 1500
)

// KlinesRequest records the query of one klines request.
type KlinesRequest struct {
	Symbol    string
	Interval  string
	Limit     int
	StartTime int64
	EndTime   int64
}

// Failure makes the klines endpoint answer with a fixed status from the given request onwards.
type Failure struct {
	StatusCode int
	Body       string
	// AfterRequests is the number of requests served normally first.
	AfterRequests int
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Bars served per symbol. They are sorted by time on start.
	Bars []types.Bar
	// Interval is the bar duration used for the close time column.
	Interval time.Duration
}

// MockBinanceServer serves GET /fapi/v1/klines from a fixed set of bars.
type MockBinanceServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	bars     map[string][]types.Bar
	interval time.Duration
	requests []KlinesRequest
	failure  *Failure
}

// NewMockBinanceServer creates a new mock server.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	server := &MockBinanceServer{
		bars:     make(map[string][]types.Bar),
		interval: config.Interval,
	}

	if server.interval == 0 {
		server.interval = 24 * time.Hour
	}

	server.SetBars(config.Bars)

	return server
}

// SetBars replaces the served bars.
func (s *MockBinanceServer) SetBars(bars []types.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bars = make(map[string][]types.Bar)
	for _, bar := range bars {
		s.bars[bar.Symbol] = append(s.bars[bar.Symbol], bar)
	}

	for symbol := range s.bars {
		sort.SliceStable(s.bars[symbol], func(i, j int) bool {
			return s.bars[symbol][i].Time.Before(s.bars[symbol][j].Time)
		})
	}
}

// SetFailure makes subsequent requests fail. A nil failure restores normal behaviour.
func (s *MockBinanceServer) SetFailure(failure *Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failure = failure
}

// Requests returns the klines requests received so far.
func (s *MockBinanceServer) Requests() []KlinesRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]KlinesRequest, len(s.requests))
	copy(out, s.requests)

	return out
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/fapi/v1/klines", s.handleKlines).Methods(http.MethodGet)
	router.HandleFunc("/fapi/v1/ping", s.handlePing).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBinanceServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *MockBinanceServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	return "http://" + s.Address()
}

func (s *MockBinanceServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte("{}"))
}

// handleKlines handles GET /fapi/v1/klines
func (s *MockBinanceServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	request := KlinesRequest{
		Symbol:   query.Get("symbol"),
		Interval: query.Get("interval"),
		Limit:    defaultKlinesLimit,
	}

	if request.Symbol == "" || request.Interval == "" {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter was not sent")

		return
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, -1100, "Illegal characters found in parameter 'limit'")

			return
		}

		request.Limit = min(limit, maxKlinesLimit)
	}

	if v := query.Get("startTime"); v != "" {
		request.StartTime, _ = strconv.ParseInt(v, 10, 64)
	}

	if v := query.Get("endTime"); v != "" {
		request.EndTime, _ = strconv.ParseInt(v, 10, 64)
	}

	s.mu.Lock()
	served := len(s.requests)
	s.requests = append(s.requests, request)
	failure := s.failure
	bars := s.bars[request.Symbol]
	s.mu.Unlock()

	if failure != nil && served >= failure.AfterRequests {
		http.Error(w, failure.Body, failure.StatusCode)

		return
	}

	var klines [][]any

	for _, bar := range bars {
		openTime := bar.Time.UnixMilli()
		if openTime < request.StartTime {
			continue
		}

		if request.EndTime > 0 && openTime > request.EndTime {
			break
		}

		klines = append(klines, toKline(bar, s.interval))
		if len(klines) == request.Limit {
			break
		}
	}

	if klines == nil {
		klines = [][]any{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(klines)
}

// toKline converts a bar to the Binance kline format: [openTime, open, high, low, close, volume, closeTime, ...]
func toKline(bar types.Bar, interval time.Duration) []any {
	closeTime := bar.Time.Add(interval).UnixMilli() - 1

	return []any{
		bar.Time.UnixMilli(),
		formatFloat(bar.Open),
		formatFloat(bar.High),
		formatFloat(bar.Low),
		formatFloat(bar.Close),
		formatFloat(bar.Volume),
		closeTime,
		formatFloat(bar.Volume * bar.Close),
		100,
		formatFloat(bar.Volume / 2),
		formatFloat(bar.Volume * bar.Close / 2),
		"0",
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func writeError(w http.ResponseWriter, status int, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
