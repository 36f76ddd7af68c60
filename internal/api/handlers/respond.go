// internal/api/handlers/respond.go
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps a domain error onto a status code. A conflict carries the donation's
// actual status so the client can reconcile its view.
func respondError(c *gin.Context, err error) {
	var te *donation.TransitionError
	switch {
	case errors.As(err, &te):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "currentStatus": te.Current})
	case errors.Is(err, donation.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, donation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, donation.ErrConflict), errors.Is(err, donation.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, donation.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, donation.ErrStoreFailure), errors.Is(err, donation.ErrPhotosDisabled):
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// originFromQuery reads the optional lat/lon pair used to rank listings.
func originFromQuery(c *gin.Context) (*models.Coordinate, bool) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return nil, true
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must both be numbers"})
		return nil, false
	}
	return &models.Coordinate{Latitude: lat, Longitude: lon}, true
}
