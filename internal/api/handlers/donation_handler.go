// internal/api/handlers/donation_handler.go
package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"food-rescue-api-server/internal/api/middleware"
	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 10 << 20

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type DonationHandler struct {
	Coordinator *donation.Coordinator
}

// CreateDonationPayload is the body of POST /donations.
type CreateDonationPayload struct {
	FoodName    string     `json:"foodName" binding:"required"`
	Variety     string     `json:"variety" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Quantity    float64    `json:"quantity" binding:"required,gt=0"`
	Unit        string     `json:"unit" binding:"required"`
	Description string     `json:"description"`
	Expiry      *time.Time `json:"expiry"`
}

// CreateDonation đăng một suất thực phẩm mới của nhà hàng đang đăng nhập.
func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var payload CreateDonationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.Coordinator.Create(c.Request.Context(), c.GetString(middleware.ActorIDKey), donation.CreateRequest{
		Attributes: models.DonationAttributes{
			FoodName:    payload.FoodName,
			Variety:     payload.Variety,
			Category:    payload.Category,
			Quantity:    models.Quantity{Value: payload.Quantity, Unit: payload.Unit},
			Description: payload.Description,
		},
		Expiry: payload.Expiry,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// GetMyDonations lists the calling restaurant's donations.
func (h *DonationHandler) GetMyDonations(c *gin.Context) {
	ds, err := h.Coordinator.ListBySource(c.Request.Context(), c.GetString(middleware.ActorIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// GetAcceptedByMe lists what the calling NGO accepted.
func (h *DonationHandler) GetAcceptedByMe(c *gin.Context) {
	ds, err := h.Coordinator.ListByBroker(c.Request.Context(), c.GetString(middleware.ActorIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// GetAvailable lists Available donations for NGOs, ranked by distance when lat/lon are given.
func (h *DonationHandler) GetAvailable(c *gin.Context) {
	origin, ok := originFromQuery(c)
	if !ok {
		return
	}
	filter := donation.AvailableFilter{
		Variety:  c.Query("variety"),
		Category: c.Query("category"),
	}
	if q := c.Query("minQuantity"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minQuantity must be a number"})
			return
		}
		filter.MinQuantity = v
	}

	listings, err := h.Coordinator.ListAvailable(c.Request.Context(), filter, origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// GetAccepted lists Accepted donations waiting for a volunteer.
func (h *DonationHandler) GetAccepted(c *gin.Context) {
	origin, ok := originFromQuery(c)
	if !ok {
		return
	}
	listings, err := h.Coordinator.ListAccepted(c.Request.Context(), origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// GetForVolunteers is the volunteer dashboard: accepted and in-transit donations.
func (h *DonationHandler) GetForVolunteers(c *gin.Context) {
	listings, err := h.Coordinator.ListForCarriers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// AcceptDonation: NGO nhận suất ăn. Ai nhanh hơn sẽ thắng, người đến sau nhận 409.
func (h *DonationHandler) AcceptDonation(c *gin.Context) {
	d, err := h.Coordinator.Accept(c.Request.Context(), c.Param("id"), c.GetString(middleware.ActorIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// PickupDonation assigns the calling volunteer.
func (h *DonationHandler) PickupDonation(c *gin.Context) {
	d, err := h.Coordinator.Pickup(c.Request.Context(), c.Param("id"), c.GetString(middleware.ActorIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DonationHandler) DeliverDonation(c *gin.Context) {
	d, err := h.Coordinator.Deliver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DonationHandler) DeleteDonation(c *gin.Context) {
	if err := h.Coordinator.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Donation deleted successfully"})
}

func (h *DonationHandler) GetDonation(c *gin.Context) {
	d, err := h.Coordinator.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetDonationDetails returns the donation with the locations the live map needs.
func (h *DonationHandler) GetDonationDetails(c *gin.Context) {
	details, err := h.Coordinator.Details(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UploadPhoto nhận ảnh qua multipart form (field "photo") và lưu lên S3.
func (h *DonationHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoSize)
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required in 'photo' field"})
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !photoExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo must be a jpg, png or webp image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	d, err := h.Coordinator.AttachPhoto(c.Request.Context(), c.Param("id"), c.GetString(middleware.ActorIDKey), file, ext)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
