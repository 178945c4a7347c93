package webserver

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	cookieSessionID = "cart_session"
	cookieMaxAge    = 60 * 60 * 48

	ctxKeySessionID = "session_id"
	ctxKeyRequestID = "request_id"
	ctxKeyLog       = "log"
)

// ensureSession assigns every visitor a stable session id cookie.
func ensureSession(c *gin.Context) {
	sessionID, err := c.Cookie(cookieSessionID)
	if err != nil || sessionID == "" {
		u, _ := uuid.NewRandom()
		sessionID = u.String()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieSessionID, sessionID, cookieMaxAge, "/", "", false, true)
	}
	c.Set(ctxKeySessionID, sessionID)
	c.Next()
}

// sameOrigin rejects state-changing requests sent from another site, so the
// auth cookie cannot be used for cross-site form posts.
func sameOrigin(c *gin.Context) {
	if c.GetHeader("Sec-Fetch-Site") == "cross-site" {
		forbidCrossSite(c, "sec-fetch-site")
		return
	}
	if origin := c.GetHeader("Origin"); origin != "" {
		u, err := url.Parse(origin)
		if err != nil || u.Host != c.Request.Host {
			forbidCrossSite(c, origin)
			return
		}
	}
	c.Next()
}

func forbidCrossSite(c *gin.Context, origin string) {
	logFrom(c).WithField("origin", origin).Warn("cross-site request rejected")
	c.AbortWithStatus(http.StatusForbidden)
}

// requestLogger stores a request scoped logger in the gin context and logs
// request completion.
func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, _ := uuid.NewRandom()
		start := time.Now()
		entry := log.WithFields(logrus.Fields{
			"http.req.path":   c.Request.URL.Path,
			"http.req.method": c.Request.Method,
			"http.req.id":     requestID.String(),
		})
		if s := c.GetString(ctxKeySessionID); s != "" {
			entry = entry.WithField("session", s)
		}
		c.Set(ctxKeyRequestID, requestID.String())
		c.Set(ctxKeyLog, entry)

		entry.Debug("request started")
		c.Next()
		entry.WithFields(logrus.Fields{
			"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
			"http.resp.status":  c.Writer.Status(),
			"http.resp.bytes":   c.Writer.Size(),
		}).Debug("request complete")
	}
}

func logFrom(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(ctxKeyLog); ok {
		if log, ok := v.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxKeySessionID)
}
