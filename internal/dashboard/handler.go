package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-booking/internal/logger"
	"venue-booking/internal/utils"
)

type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/dashboard/owners/:ownerId", h.OwnerDashboard)
	r.GET("/dashboard/renters/:email", h.RenterDashboard)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, utils.SuccessResponse("dashboard service is healthy", nil))
}

func (h *Handler) OwnerDashboard(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "owner_id is required"))
		return
	}

	dash, err := h.service.ForOwner(ownerID)
	if err != nil {
		h.logger.Error("DASHBOARD", "Failed to build owner dashboard: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to build dashboard", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Owner dashboard", dash))
}

func (h *Handler) RenterDashboard(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "email is required"))
		return
	}

	dash, err := h.service.ForRenter(email)
	if err != nil {
		h.logger.Error("DASHBOARD", "Failed to build renter dashboard: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to build dashboard", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Renter dashboard", dash))
}
