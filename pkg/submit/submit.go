// Package submit serves the HTTP submission endpoint.
package submit

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

const shutdownTimeout = 5 * time.Second

// Submitter accepts a submission without waiting for it to be processed.
type Submitter interface {
	Submit(pseudo, link string) error
}

// NewRouter returns the gin engine serving POST /submit and GET /healthz.
func NewRouter(s Submitter, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	h := handler{submitter: s, logger: logger, sanitizer: bluemonday.StrictPolicy()}
	r.POST("/submit", h.submit)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

type handler struct {
	submitter Submitter
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
}

// submit always acknowledges. The body is {"pseudo": ..., "lien": ...};
// missing, malformed or non-string fields become empty strings. The pseudo
// comes from a web form and is reduced to plain text before it is relayed.
func (h handler) submit(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.DebugContext(c.Request.Context(), "submission body not JSON", "error", err)
	}
	pseudo, _ := body["pseudo"].(string) //nolint:errcheck // absent fields pass through empty
	link, _ := body["lien"].(string)     //nolint:errcheck // absent fields pass through empty
	pseudo = h.plain(pseudo)

	h.logger.InfoContext(c.Request.Context(), "submission received", "pseudo", pseudo, "link", link)
	if err := h.submitter.Submit(pseudo, link); err != nil {
		h.logger.WarnContext(c.Request.Context(), "submission dropped", "pseudo", pseudo, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// plain strips markup from s; entities escaped by the policy are decoded again.
func (h handler) plain(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(h.sanitizer.Sanitize(s)))
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client", c.ClientIP(),
			"elapsed", time.Since(start).Round(time.Microsecond))
	}
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.InfoContext(ctx, "http server stopped")
	return nil
}
