package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusnav/campus-navigator-go/internal/config"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
)

// metricsAuthMiddleware guards /metrics with Basic Auth when cfg.AuthEnabled
// is set and passes everything through otherwise.
func metricsAuthMiddleware(cfg config.MetricsConfig, m *metrics.Metrics) gin.HandlerFunc {
	if !cfg.AuthEnabled {
		return func(c *gin.Context) { c.Next() }
	}

	wantUser, wantPass := []byte(cfg.Username), []byte(cfg.Password)
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		// Both comparisons run unconditionally.
		userOK := subtle.ConstantTimeCompare([]byte(user), wantUser)
		passOK := subtle.ConstantTimeCompare([]byte(pass), wantPass)
		if !ok || userOK&passOK != 1 {
			m.RecordHTTPError("unauthorized", "/metrics")
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
