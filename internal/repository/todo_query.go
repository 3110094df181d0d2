package repository

import (
	"fmt"
	"strings"
)

// SortField is a column the todo list may be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
	SortByCompleted SortField = "completed"
)

// Sort is an ordering that has already passed the allow-list.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is used when sortBy is absent or names an unknown field.
var DefaultSort = Sort{Field: SortByCreatedAt, Desc: true}

// ParseSort reads a "field:direction" value. Unknown fields fall back to
// DefaultSort; direction is descending only for the exact string "desc".
func ParseSort(raw string) Sort {
	if raw == "" {
		return DefaultSort
	}

	field, dir, _ := strings.Cut(raw, ":")

	switch SortField(field) {
	case SortByCreatedAt, SortByTitle, SortByCompleted:
		return Sort{Field: SortField(field), Desc: dir == "desc"}
	default:
		return DefaultSort
	}
}

// String renders the sort in the same "field:direction" form ParseSort accepts.
func (s Sort) String() string {
	if s.Desc {
		return string(s.Field) + ":desc"
	}
	return string(s.Field) + ":asc"
}

// orderBy maps a Sort onto literal SQL. Caller text never reaches the query:
// anything outside the switch resolves to the default ordering.
func (s Sort) orderBy() string {
	var column string
	switch s.Field {
	case SortByCreatedAt:
		column = "created_at"
	case SortByTitle:
		column = "title"
	case SortByCompleted:
		column = "completed"
	default:
		return "created_at DESC, id ASC"
	}

	if s.Desc {
		return column + " DESC, id ASC"
	}
	return column + " ASC, id ASC"
}

// ListParams describes one page of a user's todos.
type ListParams struct {
	UserID    string
	Completed *bool
	Sort      Sort
	Limit     int
	Offset    int
}

// whereClause returns the predicates shared by the count and the data query
// together with their bound arguments.
func (p ListParams) whereClause() (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{p.UserID}

	if p.Completed != nil {
		args = append(args, *p.Completed)
		conditions = append(conditions, fmt.Sprintf("completed = $%d", len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (p ListParams) countQuery() (string, []any) {
	where, args := p.whereClause()
	return "SELECT COUNT(*) FROM todos " + where, args
}

func (p ListParams) dataQuery() (string, []any) {
	where, args := p.whereClause()

	args = append(args, p.Limit, p.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM todos %s ORDER BY %s LIMIT $%d OFFSET $%d",
		todoColumns, where, p.Sort.orderBy(), len(args)-1, len(args),
	)

	return query, args
}
