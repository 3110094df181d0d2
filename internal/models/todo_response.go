package models

import "todo-be/internal/entities"

// ListTodosResponse is one page of the caller's todos
type ListTodosResponse struct {
	Data       []*entities.Todo `json:"data"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
}
