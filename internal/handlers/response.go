package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"timetable-service/internal/service"
)

// Every JSON response uses the {success, data, message} envelope the UI
// consumes.
func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, gin.H{"success": true, "data": data, "message": message})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondErr maps service errors onto the envelope. Conflicts carry the full
// description list so the caller can show every violation at once; write
// races surface here with the same shape as stale-read conflicts.
func respondErr(c *gin.Context, err error) {
	var ce *service.ConflictError
	switch {
	case errors.As(err, &ce):
		message := "Conflict detected"
		if ce.Entry > 0 {
			message = fmt.Sprintf("Conflict detected for entry %d", ce.Entry)
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": message,
			"data":    gin.H{"conflicts": ce.Conflicts},
		})
	case errors.Is(err, service.ErrConflict):
		respondFail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondFail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondFail(c, http.StatusBadRequest, err.Error())
	default:
		respondFail(c, http.StatusInternalServerError, "Server error")
	}
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q", hex)
	}
	return id, nil
}
