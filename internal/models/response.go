package models

// Response is the JSON envelope every endpoint returns.
// Success responses carry Data; failures carry Error and Code.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data any) *Response {
	return &Response{Success: true, Data: data}
}

// NewErrorResponse builds a failure envelope from message and status code.
func NewErrorResponse(message string, code int) *Response {
	return &Response{Success: false, Error: message, Code: code}
}
