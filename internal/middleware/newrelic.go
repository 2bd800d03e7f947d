package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// TapAttributesMiddleware tags the New Relic transaction started by nrgin with
// the device and idempotency key, so a disputed fare can be traced to one request.
// It must run after nrgin.Middleware and after device authentication.
func TapAttributesMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if deviceID, ok := DeviceID(c); ok {
			txn.AddAttribute("device_id", deviceID)
		}
		if key := c.GetHeader(idempotencyHeader); key != "" {
			txn.AddAttribute("idempotency_key", key)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
