// Package response defines the JSON envelope shared by all API endpoints.
package response

// ErrorDetail carries the human-readable failure message.
type ErrorDetail struct {
	Message string `json:"message"`
}

// Pagination describes the position of a list response within the full
// collection.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type Response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Data       any          `json:"data,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

func Success(msg string, data ...any) Response {
	resp := Response{
		Success: true,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func SuccessPage(data any, p Pagination) Response {
	return Response{
		Success:    true,
		Data:       data,
		Pagination: &p,
	}
}

func Error(msg string) Response {
	return Response{
		Success: false,
		Error:   &ErrorDetail{Message: msg},
	}
}

var (
	EmptyRequestBodyResponse = Error("Request body is empty. Please provide necessary data.")
	BadRequestResponse       = Error("Invalid request body.")
	ResourceNotFoundResponse = Error("The requested resource was not found.")
	ServerErrorResponse      = Error("An internal server error occurred. Please try again later.")
)
