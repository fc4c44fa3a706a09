// Package utils holds the response envelope shared by the booking API and
// the dashboard service, so both surfaces answer in the same shape.
package utils

import "time"

// APIResponse is the envelope for every JSON reply. Data carries the
// venue, booking, or payment payload on success; Error carries the detail
// string on failure. Timestamp is the server-side time the reply was built,
// which lets the renter-facing frontend order polling results.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ErrorResponse reports a failed operation. The message is the human-facing
// summary; detail is the underlying error text for the caller's logs.
func ErrorResponse(message, detail string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     detail,
		Timestamp: time.Now(),
	}
}
