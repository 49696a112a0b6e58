package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/http/dto"
	"basegraph.app/suggestbox/internal/model"
)

const principalContextKey = "principal"

// PrincipalExtractor decodes the caller identity from request headers.
type PrincipalExtractor interface {
	Extract(h http.Header) (model.Principal, error)
}

// RequirePrincipal aborts with 401 unless the identity header decodes to a
// principal, which is then stored on the gin context and in the log fields.
func RequirePrincipal(extractor PrincipalExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := extractor.Extract(c.Request.Header)
		if err != nil {
			slog.InfoContext(c.Request.Context(), "request without a valid principal", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Message: "not authenticated",
				Code:    model.ErrorKindUnauthenticated,
			})
			return
		}

		c.Set(principalContextKey, p)
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{UserID: &p.UserID})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
