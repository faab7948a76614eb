package platforms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lytix-Labs/lytix-go/llogger"
)

// GinRequestDuration is RequestDuration for gin. Register it before the
// routes so handlers see the scope through c.Request.Context(). A panic
// that passes through it, for instance on its way to gin.Recovery(), still
// produces the event.
//
//	r := gin.New()
//	r.Use(platforms.GinRequestDuration(), platforms.GinErrors())
func GinRequestDuration(opts ...Option) gin.HandlerFunc {
	o := buildOptions(opts)

	return func(c *gin.Context) {
		start := time.Now()

		_ = inScope(c.Request.Context(), o.logger, func(ctx context.Context) error {
			c.Request = c.Request.WithContext(ctx)
			defer onServed(c.Writer.Status, c.Writer.Written, func(status int) {
				reportDuration(ctx, o.logger, c.Request, status, time.Since(start))
			})
			c.Next()
			return nil
		})
	}
}

// GinErrors reports what goes wrong in later handlers: a panic becomes a
// reported LError and a 500, every error attached with c.Error is reported,
// and a non-2xx response sends the same LError event as RequestErrors.
func GinErrors(opts ...Option) gin.HandlerFunc {
	o := buildOptions(opts)

	return func(c *gin.Context) {
		_ = inScope(c.Request.Context(), o.logger, func(ctx context.Context) error {
			c.Request = c.Request.WithContext(ctx)
			md := llogger.Metadata{"path": c.Request.URL.Path, "method": c.Request.Method}

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				_ = o.logger.ReportError(ctx, fmt.Sprint(v), md)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
				reportFailedRequest(ctx, o.logger, c.Request, http.StatusInternalServerError)
			}()

			c.Next()

			for _, e := range c.Errors {
				_ = o.logger.ReportError(ctx, e.Error(), md)
			}
			if len(c.Errors) > 0 && !c.Writer.Written() {
				c.JSON(http.StatusInternalServerError, gin.H{"error": c.Errors.Last().Error()})
			}

			reportFailedRequest(ctx, o.logger, c.Request, c.Writer.Status())
			return nil
		})
	}
}
