package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/utils"
)

// PurchaseSecurityHeaders keeps payment pages out of caches and frames.
func PurchaseSecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// PurchaseRateLimiter allows a resident one payment attempt every two
// seconds with a small burst.
func PurchaseRateLimiter() gin.HandlerFunc {
	rl := NewUserRateLimiter(2*time.Second, 3)
	rl.message = "Please wait before making another payment request"
	return rl.RateLimit()
}

// LogPurchaseRequest logs the outcome of purchase requests without the
// request body, which carries card numbers.
func LogPurchaseRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}
		if id, ok := c.Get(ContextUserID); ok {
			fields["user_id"] = id
		}
		utils.InfoLogger.WithFields(fields).Info("Purchase request")
	}
}
