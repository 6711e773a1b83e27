package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"umrah-desk/api"
	"umrah-desk/workflow"
)

const (
	headerOrganization = "X-Organization-ID"
	headerRequestID    = "X-Request-ID"

	keyRequestID = "request_id"
	keySession   = "session"
)

type session struct {
	rc       api.RequestContext
	operator workflow.Operator
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString(keyRequestID),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// requireSession builds the backend request context from the caller's
// bearer token and organization header. The token is forwarded as is; the
// backend decides whether it is valid.
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		org, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(headerOrganization)), 10, 64)
		if err != nil || org <= 0 {
			abort(c, http.StatusBadRequest, "organization_required", headerOrganization+" header must carry the organization id", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))

		s := session{rc: api.RequestContext{OrganizationID: org, Token: token}}
		if identity, err := api.ParseToken(token); err == nil {
			s.operator = workflow.Operator{ID: identity.UserID}
		}
		c.Set(keySession, s)
		c.Next()
	}
}

func sessionOf(c *gin.Context) session {
	s, _ := c.Get(keySession)
	out, _ := s.(session)
	return out
}
