package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"visaverse/internal/apperror"
)

// writeError maps a failure to its HTTP response. Upstream and I/O details
// stay in the log; clients only see fallback.
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	log := h.logger.WithFields(logrus.Fields{
		"route":      c.FullPath(),
		"request_id": c.GetString(requestIDKey),
	}).WithError(err)

	appErr, ok := apperror.As(err)
	if !ok {
		log.Error("unclassified failure")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback})
		return
	}

	switch appErr.Kind {
	case apperror.KindValidation, apperror.KindExtractionFailed, apperror.KindNoExtractableText:
		log.WithField("code", appErr.Code).Info("request rejected")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": appErr.Message})
	case apperror.KindQuotaExceeded:
		log.Warn("upstream daily quota reached")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"error":      appErr.Message,
			"retryAfter": appErr.RetryAfter,
		})
	case apperror.KindUpstreamCallFailed, apperror.KindIO:
		log.WithFields(logrus.Fields{"code": appErr.Code, "status": appErr.Status}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback})
	default:
		log.Error("unknown failure kind")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback})
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}
