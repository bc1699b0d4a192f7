package main

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/Open-S2/s2-pmtiles/s2pmtiles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

var tilePathPattern = regexp.MustCompile(`^/(\d+)/(\d+)/(\d+)\.[a-zA-Z0-9]+$`)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "s2pmtiles",
		Name:      "requests_total",
	}, []string{"status"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "s2pmtiles",
		Name:      "request_duration_seconds",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// Server serves a single archive's tiles over HTTP, plus Prometheus
// metrics at /metrics; it has no metadata endpoint. Reader
// is single-threaded (SPEC_FULL §5), so readerMu serializes every call
// into it across concurrent requests -- bootstrap's one-time header/root
// fetch and the directory LRU's map/list mutation are otherwise unsafe
// for concurrent callers.
type Server struct {
	reader   *s2pmtiles.Reader
	readerMu sync.Mutex
	logger   *log.Logger
	mux      http.Handler
}

// NewServer opens location (a file path, file://, http(s)://, or cloud
// bucket URL) and builds a Server with a bounded directory cache of
// cacheSize directories and the given CORS allow-origin value (empty
// disables CORS headers).
func NewServer(location string, logger *log.Logger, cacheSize int, corsOrigin string) (*Server, error) {
	ctx := context.Background()
	rangeReader, err := s2pmtiles.OpenRangeReader(ctx, location)
	if err != nil {
		return nil, err
	}
	codec, err := s2pmtiles.NewStandardCodec(0)
	if err != nil {
		return nil, err
	}
	reader := s2pmtiles.NewReader(rangeReader, codec, cacheSize)

	s := &Server{reader: reader, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleTile)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	if corsOrigin != "" {
		handler = cors.New(cors.Options{AllowedOrigins: []string{corsOrigin}}).Handler(mux)
	}
	s.mux = handler
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		requestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}()

	match := tilePathPattern.FindStringSubmatch(r.URL.Path)
	if match == nil {
		status = http.StatusNotFound
		http.NotFound(w, r)
		return
	}
	z, _ := strconv.Atoi(match[1])
	x, _ := strconv.Atoi(match[2])
	y, _ := strconv.Atoi(match[3])

	s.readerMu.Lock()
	data, ok, err := s.reader.GetTile(uint8(z), uint32(x), uint32(y))
	s.readerMu.Unlock()
	if err != nil {
		status = http.StatusInternalServerError
		s.logger.Printf("error serving %s: %v", r.URL.Path, err)
		http.Error(w, "internal error", status)
		return
	}
	if !ok {
		status = http.StatusNotFound
		http.NotFound(w, r)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(data)
}
