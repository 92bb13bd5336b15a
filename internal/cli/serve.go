package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/geoknoesis/rdf-canon/cache"
	"github.com/geoknoesis/rdf-canon/rdf"
)

const (
	defaultAddr     = "127.0.0.1:8080"
	defaultCacheTTL = 24 * time.Hour
	maxRequestBody  = 16 << 20
	shutdownTimeout = 10 * time.Second
	headerRequestID = "X-Request-ID"
	headerCache     = "X-Cache"
	headerHash      = "X-Canonical-Hash"
	contentNQuads   = "application/n-quads"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		cacheTTL time.Duration
		limits   rdf.DecodeOptions
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve canonicalization over HTTP",
		Long: `serve exposes POST /v1/canonicalize, which accepts N-Quads and returns the canonical
N-Quads. The algorithm query parameter selects the variant per request; a configured
--hash-algorithm still applies to it. Results are cached in memory, or in Redis when
--redis-url is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			settings := c.config.Serve
			if cmd.Flags().Changed("addr") || settings.Addr == "" {
				settings.Addr = addr
			}
			if cmd.Flags().Changed("redis-url") {
				settings.RedisURL = redisURL
			}
			if cmd.Flags().Changed("max-quads") || settings.MaxQuads == 0 {
				settings.MaxQuads = limits.MaxQuads
			}
			if cmd.Flags().Changed("max-line-bytes") || settings.MaxLineBytes == 0 {
				settings.MaxLineBytes = limits.MaxLineBytes
			}
			ttl := cacheTTL
			if !cmd.Flags().Changed("cache-ttl") && settings.CacheTTL != "" {
				parsed, err := time.ParseDuration(settings.CacheTTL)
				if err != nil {
					return fmt.Errorf("invalid cache ttl %q: %w", settings.CacheTTL, err)
				}
				ttl = parsed
			}

			opts, err := c.config.canonOptions(logger)
			if err != nil {
				return err
			}
			store, err := openCache(settings.RedisURL)
			if err != nil {
				return err
			}
			canon := cache.NewCanonicalizer(store, ttl, logger)
			defer canon.Close()

			srv := &http.Server{
				Addr:              settings.Addr,
				Handler:           newRouter(canon, opts, settings.decodeOptions(), logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(ctx, srv, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for a shared cache (default in-memory)")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", defaultCacheTTL, "lifetime of cached results (0 keeps them forever)")
	cmd.Flags().IntVar(&limits.MaxQuads, "max-quads", 0, "reject requests with more quads (0 for no limit)")
	cmd.Flags().IntVar(&limits.MaxLineBytes, "max-line-bytes", rdf.DefaultMaxLineBytes, "reject requests with longer lines (-1 for no limit)")
	return cmd
}

func (s ServeConfig) decodeOptions() rdf.DecodeOptions {
	return rdf.DecodeOptions{MaxQuads: s.MaxQuads, MaxLineBytes: s.MaxLineBytes}
}

func openCache(redisURL string) (cache.Cache, error) {
	if redisURL == "" {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(cache.RedisOptions{URL: redisURL})
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	return rc, nil
}

// runServer serves until ctx is canceled, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type apiError struct {
	Error string        `json:"error"`
	Code  rdf.ErrorCode `json:"code"`
}

func newRouter(canon *cache.Canonicalizer, opts []rdf.CanonOption, limits rdf.DecodeOptions, logger *log.Logger) http.Handler {
	h := &handler{canon: canon, opts: opts, limits: limits, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok\n")
	})
	r.Post("/v1/canonicalize", h.canonicalize)
	return r
}

// requestID tags each request with the caller's X-Request-ID or a fresh UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

type handler struct {
	canon  *cache.Canonicalizer
	opts   []rdf.CanonOption
	limits rdf.DecodeOptions
	logger *log.Logger
}

func (h *handler) canonicalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, err := requestOptions(h.opts, r.URL.Query().Get("algorithm"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	quads, err := rdf.ParseNQuadsWithOptions(ctx, body, h.limits)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	start := time.Now()
	canonical, hit, err := h.canon.Canonicalize(ctx, quads, opts...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Debug("request served",
		"request_id", w.Header().Get(headerRequestID),
		"quads", len(quads),
		"cache_hit", hit,
		"elapsed", time.Since(start).Round(time.Microsecond))

	w.Header().Set("Content-Type", contentNQuads)
	w.Header().Set(headerHash, cache.Hash([]byte(canonical)))
	if hit {
		w.Header().Set(headerCache, "HIT")
	} else {
		w.Header().Set(headerCache, "MISS")
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, canonical)
}

// requestOptions applies the per-request algorithm over the configured options. Other
// settings, including a hash override, are kept.
func requestOptions(base []rdf.CanonOption, algorithm string) ([]rdf.CanonOption, error) {
	opts := append([]rdf.CanonOption(nil), base...)
	if algorithm == "" {
		return opts, nil
	}
	alg, err := rdf.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	return append(opts, rdf.OptAlgorithm(alg)), nil
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", w.Header().Get(headerRequestID), "err", err)
	} else {
		h.logger.Debug("request rejected", "request_id", w.Header().Get(headerRequestID), "status", status, "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{Error: err.Error(), Code: rdf.Code(err)})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch rdf.Code(err) {
	case rdf.ErrCodeLineTooLong, rdf.ErrCodeQuadLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case rdf.ErrCodeParseError, rdf.ErrCodeMalformedInput, rdf.ErrCodeUnknownAlgorithm,
		rdf.ErrCodeUnknownHashAlgorithm, rdf.ErrCodeUnknownOutputFormat:
		return http.StatusBadRequest
	case rdf.ErrCodeBudgetExceeded:
		return http.StatusUnprocessableEntity
	case rdf.ErrCodeContextCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
