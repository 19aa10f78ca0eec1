package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// JSONResponse is the envelope every endpoint answers with.
type JSONResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Code       string      `json:"code,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Success:   code >= 200 && code < 300,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// RespondList writes a page of results together with its pagination block.
func RespondList(c *gin.Context, message string, data interface{}, p Pagination) {
	c.JSON(http.StatusOK, JSONResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &p,
		Timestamp:  time.Now().UTC(),
	})
}

// RespondError is the single place errors are turned into HTTP responses.
func RespondError(c *gin.Context, err error) {
	appErr := ToAppError(err)

	resp := JSONResponse{
		Success:   false,
		Message:   appErr.Message,
		Code:      appErr.Code,
		Errors:    appErr.Errors,
		Timestamp: time.Now().UTC(),
	}
	if appErr.Err != nil && gin.Mode() != gin.ReleaseMode {
		resp.Detail = appErr.Err.Error()
	}

	entry := Log.WithFields(map[string]interface{}{
		"status": appErr.Status,
		"code":   appErr.Code,
		"path":   c.Request.URL.Path,
	})
	if appErr.Status >= http.StatusInternalServerError {
		entry.WithError(appErr.Err).Error(appErr.Message)
	} else {
		entry.Debug(appErr.Message)
	}

	c.AbortWithStatusJSON(appErr.Status, resp)
}
