package handlers

// Response wrapper types for Swagger documentation

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// UserIDResponse is returned by signup and login
type UserIDResponse struct {
	UserID  string `json:"userId" example:"550e8400-e29b-41d4-a716-446655440000"`
	Message string `json:"message" example:"User created successfully."`
}
