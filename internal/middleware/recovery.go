package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"feedbackboard/internal/observability"
	contextutils "feedbackboard/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	msgInternal    = "服务器内部错误"
	msgUnavailable = "服务暂时不可用，请稍后再试"
)

// Recovery turns a panic into a 500 with the board's error body and logs the
// stack trace through logger
func Recovery(logger *observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			panicErr, ok := rec.(error)
			if !ok {
				panicErr = fmt.Errorf("panic: %v", rec)
			}
			appErr := contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInternalError,
				contextutils.SeverityFatal,
				msgInternal,
				"A panic occurred while processing the request",
				panicErr,
			)

			stack := string(debug.Stack())
			logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
				"http.method": c.Request.Method,
				"http.path":   c.Request.URL.Path,
				"stack":       stack,
			})

			if gin.Mode() == gin.DebugMode {
				appErr.Details = appErr.Details + "\nStack trace: " + stack
			}

			_ = c.Error(appErr)
			c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToJSON())
		}()

		c.Next()
	}
}

// BreakerConfig configures CircuitBreaker
type BreakerConfig struct {
	// Threshold is the number of consecutive 5xx responses that opens the circuit.
	Threshold int
	// Cooldown is how long an open circuit rejects requests before letting one through.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker settings used by the server
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	}
}

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// circuitBreaker tracks consecutive server failures
type circuitBreaker struct {
	mu          sync.Mutex
	state       circuitState
	failures    int
	lastFailure time.Time
	cfg         BreakerConfig
	now         func() time.Time
}

func newCircuitBreaker(cfg BreakerConfig) *circuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &circuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitOpen:
		if cb.now().Sub(cb.lastFailure) > cb.cfg.Cooldown {
			cb.state = circuitHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *circuitBreaker) record(status int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if status < http.StatusInternalServerError {
		cb.failures = 0
		cb.state = circuitClosed
		return
	}

	cb.failures++
	cb.lastFailure = cb.now()
	if cb.state == circuitHalfOpen || cb.failures >= cb.cfg.Threshold {
		cb.state = circuitOpen
	}
}

// CircuitBreaker answers 503 without calling the handler once Threshold
// consecutive requests failed with a 5xx, until Cooldown has passed
func CircuitBreaker(cfg BreakerConfig) gin.HandlerFunc {
	return newCircuitBreaker(cfg).handler()
}

func (cb *circuitBreaker) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cb.allow() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":     msgUnavailable,
				"code":      string(contextutils.ErrorCodeServiceUnavailable),
				"retryable": true,
			})
			return
		}

		c.Next()
		cb.record(c.Writer.Status())
	}
}
