package models

// CreateTodoRequest represents the request body for creating a todo
type CreateTodoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// UpdateTodoRequest is a merge patch: omitted or null fields keep their stored value
type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// ListTodosQuery holds the raw list query parameters. Page and limit stay
// strings so that malformed numbers fall back to defaults instead of failing
// the request; Completed is nil when the parameter is absent.
type ListTodosQuery struct {
	Page      string  `form:"page"`
	Limit     string  `form:"limit"`
	Completed *string `form:"completed"`
	SortBy    string  `form:"sortBy"`
}
