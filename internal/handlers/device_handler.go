package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/humidhub/internal/domains/device"
	"github.com/xpanvictor/humidhub/pkg/Logger"
)

// DeviceHandler handles device registry HTTP requests
type DeviceHandler struct {
	deviceService device.DeviceService
	logger        *Logger.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService device.DeviceService, logger *Logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
		logger:        logger,
	}
}

// ListDevices handles listing a user's devices
// @Summary List devices
// @Description List a user's devices in registration order
// @Tags Devices
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} user.Device "Devices"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{userId}/devices [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceService.List(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, h.logger, "list devices", err)
		return
	}

	c.JSON(http.StatusOK, devices)
}

// AddDevice handles registering a device
// @Summary Add device
// @Description Register a device for a user and announce it on project/newDevice
// @Tags Devices
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body device.AddDeviceRequest true "Device data"
// @Success 201 {object} SuccessResponse "Device created"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 409 {object} ErrorResponse "Device already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{userId}/devices [post]
func (h *DeviceHandler) AddDevice(c *gin.Context) {
	var req device.AddDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if _, err := h.deviceService.Add(c.Request.Context(), c.Param("userId"), req); err != nil {
		writeError(c, h.logger, "add device", err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "Device created successfully."})
}

// GetDevice handles getting one device with its derived status
// @Summary Get device status
// @Description Get a device with its age and estimated battery level
// @Tags Devices
// @Produce json
// @Param userId path string true "User ID"
// @Param deviceId path string true "Device ID"
// @Success 200 {object} device.Status "Device status"
// @Failure 404 {object} ErrorResponse "User or device not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{userId}/devices/{deviceId} [get]
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	status, err := h.deviceService.Get(c.Request.Context(), c.Param("userId"), c.Param("deviceId"))
	if err != nil {
		writeError(c, h.logger, "get device", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// UpdateHumidity handles setting a device's humidity
// @Summary Update humidity
// @Description Set a device's humidity and announce it on project/newHumidity
// @Tags Devices
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param deviceId path string true "Device ID"
// @Param request body device.UpdateHumidityRequest true "New humidity"
// @Success 200 {object} SuccessResponse "Humidity updated"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 404 {object} ErrorResponse "User or device not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{userId}/devices/{deviceId} [put]
func (h *DeviceHandler) UpdateHumidity(c *gin.Context) {
	var req device.UpdateHumidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if _, err := h.deviceService.UpdateHumidity(c.Request.Context(), c.Param("userId"), c.Param("deviceId"), req); err != nil {
		writeError(c, h.logger, "update humidity", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Device humidity updated successfully."})
}

// PublishHumidity handles broadcasting a reading without storing it
// @Summary Publish humidity
// @Description Publish deviceId:humidity on project/newHumidity
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body device.PublishHumidityRequest true "Reading"
// @Success 200 {object} SuccessResponse "Published"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 500 {object} ErrorResponse "Publish failed"
// @Router /publish-humidity [post]
func (h *DeviceHandler) PublishHumidity(c *gin.Context) {
	var req device.PublishHumidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.deviceService.PublishHumidity(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to publish humidity"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Humidity published successfully"})
}
