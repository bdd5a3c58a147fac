package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/utils"
)

// StatusChangeLogger records every attempt to move an order, including the
// rejected ones that never reach the status log table.
func StatusChangeLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := logrus.Fields{
			"order_id": c.Param("order_id"),
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"role":     c.GetString(ContextRole),
		}
		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("Order status request accepted")
		} else {
			utils.InfoLogger.WithFields(fields).Warn("Order status request rejected")
		}
	}
}
