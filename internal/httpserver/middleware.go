package httpserver

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/metrics"
)

const (
	requestIDHeader      = "X-Request-Id"
	idempotencyKeyHeader = "Idempotency-Key"

	requestIDLengthLimit = 128

	loggerKey = "storefront.logger"
)

var (
	reqSeq    int64
	reqPrefix string
)

func init() {
	var buf [12]byte
	var b64 string
	for len(b64) < 10 {
		_, _ = rand.Read(buf[:])
		b64 = base64.StdEncoding.EncodeToString(buf[:])
		b64 = strings.NewReplacer("+", "", "/", "").Replace(b64)
	}
	reqPrefix = b64[0:10]
}

// requestID honours an incoming X-Request-Id or mints a process-unique one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqSeq, 1))
		} else if len(id) > requestIDLengthLimit {
			id = id[:requestIDLengthLimit]
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(base logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := base.WithFields(logrus.Fields{
			"req_id": c.GetString(requestIDHeader),
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		c.Set(loggerKey, log)

		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"bytes":      c.Writer.Size(),
			"latency_ms": time.Since(start).Milliseconds(),
			"remoteaddr": c.ClientIP(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("completed")
			return
		}
		entry.Info("completed")
	}
}

// requestLogger returns the request-scoped logger set by accessLog.
func requestLogger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if log, ok := v.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}

func recoverPanic(c *gin.Context, recovered any) {
	requestLogger(c).WithField("panic", recovered).Error("handler panicked")
	respondError(c, fmt.Errorf("panic: %v", recovered))
	c.Abort()
}

func instrument(m *metrics.ServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		handler = c.Request.Method + " " + handler
		m.Requests.WithLabelValues(handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// authenticate resolves the bearer token and stores the caller on the request context.
func authenticate(resolver identityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, fmt.Errorf("%w: no token provided", domain.ErrUnauthorized))
			c.Abort()
			return
		}

		who, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(loggerKey, requestLogger(c).WithField("user_id", who.UserID))
		c.Request = c.Request.WithContext(domain.WithIdentity(c.Request.Context(), who))
		c.Next()
	}
}

func caller(c *gin.Context) domain.Identity {
	who, _ := domain.IdentityFrom(c.Request.Context())
	return who
}
