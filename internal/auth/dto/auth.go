package dto

type RegisterDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

type DeviceResponse struct {
	Message string `json:"message"`
	Devices int    `json:"devices"`
}
