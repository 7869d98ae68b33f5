package errors

// ErrorResponse is the JSON body sent to clients for a failed request.
// Only the message crosses the boundary; codes stay server-side.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}
