package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
)

const contextKeyIDPrefix = "param_id:"

// RequireIDParam rejects requests whose path parameter name is not a positive integer
func RequireIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(name), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+name)
			return
		}

		c.Set(contextKeyIDPrefix+name, id)
		c.Next()
	}
}

// GetIDParam returns the path parameter validated by RequireIDParam, parsing
// it directly when the middleware did not run.
func GetIDParam(c *gin.Context, name string) (uint64, bool) {
	if v, exists := c.Get(contextKeyIDPrefix + name); exists {
		id, ok := v.(uint64)
		return id, ok
	}

	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
