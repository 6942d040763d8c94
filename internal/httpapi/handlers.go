package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadcall-api/internal/agents"
	"leadcall-api/internal/dispatch"
	"leadcall-api/internal/lead"
	"leadcall-api/internal/ratelimit"
	"leadcall-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds the inbound form body.
const maxBodyBytes = 64 << 10

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, run the gate pipeline, return JSON.
//
// Pipeline invariant: a request is never dispatched unless it passed
// validation, both rate-limit gates (IP then phone), and agent resolution,
// in that order. Any stage short-circuits with its own status code.
type Handlers struct {
	Enums      lead.Enums
	Limiter    *ratelimit.Limiter
	Resolver   *agents.Resolver
	Dispatcher dispatch.CallDispatcher
}

// HandleCall is the single call-dispatch endpoint.
//
// Responses:
//   - 200 {"success": true, "result": <upstream body>}
//   - 400 {"errors": {field: message}}
//   - 429 {"error": message} naming the gate and its window
//   - 500 {"error": message} for configuration, upstream, or unexpected failures
func (h Handlers) HandleCall(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Limiter == nil || h.Resolver == nil || h.Dispatcher == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call pipeline not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": gin.H{"body": "could not read request body"}})
		return
	}

	req, fieldErrs := lead.Validate(body, h.Enums)
	if fieldErrs != nil {
		// Validation failures must leave no trace in the rate-limit stores.
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
		return
	}

	ip := clientIP(c)
	rej, err := h.Limiter.Check(c.Request.Context(), ip, req.Phone)
	if err != nil {
		log.Error("rate limit check failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
		return
	}
	if rej != nil {
		log.Warn("rate limited", "gate", string(rej.Gate), "retry_after_s", int(rej.RetryAfter.Seconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitMessage(rej)})
		return
	}

	directive, err := h.Resolver.Resolve(req.Niche, req.Voice)
	if err != nil {
		if errors.Is(err, agents.ErrAgentNotConfigured) {
			// Operator error, not client error: valid enums, no agent wired.
			log.Error("agent configuration missing", "niche", req.Niche, "voice", req.Voice)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "no agent is configured for the selected niche and voice"})
			return
		}
		log.Error("agent resolution failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent resolution failed"})
		return
	}

	receipt, err := h.Dispatcher.PlaceCall(c.Request.Context(), dispatch.CallOrder{Lead: req, Directive: directive})
	if err != nil {
		var ue *dispatch.UpstreamError
		if errors.As(err, &ue) {
			log.Error("upstream rejected call", "status", ue.Status, "body", ue.Body)
		} else {
			log.Error("dispatch failed", "err", err)
		}
		// One attempt only; the consumed rate-limit slots stand.
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "the call could not be placed, please try again later"})
		return
	}

	log.Info("call dispatched", "dispatcher", h.Dispatcher.Name(), "niche", req.Niche, "voice", req.Voice)
	c.JSON(http.StatusOK, gin.H{"success": true, "result": receipt.Body})
}

// clientIP resolves the caller's IP for the IP gate: forwarded-for header
// first, then real-IP, then the shared "unknown" bucket for clients with
// neither (all unidentifiable clients rate-limit each other).
func clientIP(c *gin.Context) string {
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		return strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
	}
	if v := c.GetHeader("X-Real-Ip"); v != "" {
		return strings.TrimSpace(v)
	}
	return "unknown"
}

func rateLimitMessage(rej *ratelimit.Rejection) string {
	switch rej.Gate {
	case ratelimit.GatePhone:
		return fmt.Sprintf("this phone number was called recently, wait %s before requesting another call", formatWindow(rej.Window))
	default:
		return fmt.Sprintf("too many requests from your address, wait %s between call requests", formatWindow(rej.Window))
	}
}

func formatWindow(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
