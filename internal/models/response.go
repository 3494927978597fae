package models

// APIResponse is the envelope wrapping every successful response body.
type APIResponse struct {
	SuccessCode int    `json:"successCode"`
	Data        any    `json:"data"`
	Message     string `json:"message"`
	Success     bool   `json:"success"`
}

// NewAPIResponse builds an envelope. Success is derived from the status code.
func NewAPIResponse(status int, data any, message string) APIResponse {
	return APIResponse{SuccessCode: status, Data: data, Message: message, Success: status < 400}
}

// APIError is the body of every failed response.
type APIError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
}
