package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusnav/campus-navigator-go/internal/buildinfo"
	"github.com/campusnav/campus-navigator-go/internal/composer"
	"github.com/campusnav/campus-navigator-go/internal/config"
)

// WelcomeMessage is served at the root path.
const WelcomeMessage = "Welcome to the Campus Navigator API."

const (
	maxQueryRunes = 500
	maxBodyBytes  = 8 << 10
)

type queryRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"` // accepted for client compatibility, unused
}

func (a *Application) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(requestIDMiddleware())
	r.Use(securityHeadersMiddleware())
	r.Use(corsMiddleware(a.cfg.Server.CORSOrigins))
	r.Use(loggingMiddleware(a.logger))

	r.GET("/", a.welcome)
	r.GET("/livez", a.livenessCheck)
	r.HEAD("/livez", a.livenessCheck)
	r.GET("/readyz", a.readinessCheck)
	r.HEAD("/readyz", a.readinessCheck)
	r.GET("/metrics",
		metricsAuthMiddleware(a.cfg.Metrics, a.metrics),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/config", a.clientConfig)
	api.POST("/query", rateLimitMiddleware(a.limiter, a.metrics), a.handleQuery)

	return r
}

func (a *Application) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": WelcomeMessage})
}

// clientConfig hands the map frontend its Maps key. The field name is the
// one the frontend reads.
func (a *Application) clientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Maps_api_key": a.cfg.Server.MapsAPIKey})
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "version": buildinfo.Release()})
}

func (a *Application) readinessCheck(c *gin.Context) {
	status := a.readiness.Status()
	if !status.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "dataset": status})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()
	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "dataset": status})
}

func (a *Application) handleQuery(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "Request body must be JSON like {\"query\": \"where is the library?\"}."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "Request body is too large."
		}
		a.badRequest(c, msg)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		a.badRequest(c, "The query must not be empty.")
		return
	}
	if utf8.RuneCountInString(query) > maxQueryRunes {
		a.badRequest(c, "The query is too long.")
		return
	}

	result := a.resolver.Resolve(c.Request.Context(), query)
	c.JSON(http.StatusOK, result)
}

func (a *Application) badRequest(c *gin.Context, msg string) {
	a.metrics.RecordHTTPError("bad_request", c.FullPath())
	c.JSON(http.StatusBadRequest, composer.Result{Type: composer.TypeError, Message: msg})
}
