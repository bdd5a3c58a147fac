package utils

import (
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	// Next tells the client which step to go back to, e.g. "plans".
	Next string `json:"next,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondErrorNext is RespondError with a recovery hint for the client.
func RespondErrorNext(c *gin.Context, code int, err error, next string) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Next:    next,
	})
}
