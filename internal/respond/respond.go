// Package respond defines the single JSON envelope used by every handler,
// so the gateway can validate relayed responses against one shape.
package respond

import "github.com/labstack/echo/v4"

// Envelope is the uniform response body.  Success responses carry Data and
// optionally Message; failures carry Error and optionally Message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK writes a success envelope.
func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// OKMsg writes a success envelope with a human-readable message.
func OKMsg(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// Fail writes a failure envelope.  errText is the short machine-matchable
// label ("Bad Request", "Unauthorized"); message carries detail.
func Fail(c echo.Context, status int, errText, message string) error {
	return c.JSON(status, Envelope{Success: false, Error: errText, Message: message})
}
