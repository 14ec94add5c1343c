package dto

import "time"

// ErrorResponse is the JSON envelope for every failed request.
//
// Only Message is serialized, as {"error": "<message>"}; ErrorDetails and
// Timestamp are kept for logging.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Message      string    `json:"error" example:"Missing parameters"`
	ErrorDetails string    `json:"-"`
	Timestamp    time.Time `json:"-"`
}

// NewErrorResponse builds an ErrorResponse; err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
