package utils

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

func envelope(status int, message string) gin.H {
	return gin.H{
		"status":  status,
		"message": message,
	}
}

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	body := envelope(status, message)
	body["data"] = data
	c.JSON(status, body)
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	body := envelope(status, message)
	body["error"] = err.Error()
	c.JSON(status, body)
}

// WriteJSONError writes the error envelope on a plain http.ResponseWriter,
// for handlers that run outside gin such as the standalone live channel listener
func WriteJSONError(w http.ResponseWriter, status int, err error, message string) {
	body := envelope(status, message)
	body["error"] = err.Error()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		Warn("Failed to write error response", map[string]any{"error": encErr.Error()})
	}
}
