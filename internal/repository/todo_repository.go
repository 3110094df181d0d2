package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-be/internal/database"
	"todo-be/internal/entities"
)

//go:generate mockgen -source=todo_repository.go -destination=mocks/todo_repository_mock.go -package=mocks

// TodoRepository defines the interface for todo database operations
type TodoRepository interface {
	Create(ctx context.Context, userID, title, description string) (*entities.Todo, error)
	FindByID(ctx context.Context, id, userID string) (*entities.Todo, error)
	GetOwnerID(ctx context.Context, id string) (string, error)
	Update(ctx context.Context, id string, patch TodoPatch) (*entities.Todo, error)
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, params ListParams) ([]*entities.Todo, int, error)
}

// TodoPatch holds the fields of a merge update. Nil fields keep their stored value.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

type todoRepository struct {
	db database.DBTX
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db database.DBTX) TodoRepository {
	return &todoRepository{db: db}
}

const todoColumns = "id, user_id, title, description, completed, created_at, updated_at"

const (
	sqlInsertTodo = `
		INSERT INTO todos (user_id, title, description)
		VALUES ($1, $2, $3)
		RETURNING ` + todoColumns

	sqlFindTodo = `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1 AND user_id = $2`

	sqlTodoOwner = `SELECT user_id FROM todos WHERE id = $1`

	sqlUpdateTodo = `
		UPDATE todos
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			completed = COALESCE($3, completed),
			updated_at = NOW()
		WHERE id = $4
		RETURNING ` + todoColumns

	sqlDeleteTodo = `DELETE FROM todos WHERE id = $1 AND user_id = $2`
)

// Create inserts a todo owned by userID; completed starts as false.
func (r *todoRepository) Create(ctx context.Context, userID, title, description string) (*entities.Todo, error) {
	todo, err := scanTodo(r.db.QueryRowContext(ctx, sqlInsertTodo, userID, title, description))
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

// FindByID returns the todo only if it belongs to userID.
func (r *todoRepository) FindByID(ctx context.Context, id, userID string) (*entities.Todo, error) {
	todo, err := scanTodo(r.db.QueryRowContext(ctx, sqlFindTodo, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return todo, nil
}

// GetOwnerID returns the user_id of the todo regardless of who is asking.
func (r *todoRepository) GetOwnerID(ctx context.Context, id string) (string, error) {
	var ownerID string
	err := r.db.QueryRowContext(ctx, sqlTodoOwner, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find todo owner: %w", err)
	}
	return ownerID, nil
}

// Update merges patch into the stored row and refreshes updated_at.
// Ownership must be checked by the caller.
func (r *todoRepository) Update(ctx context.Context, id string, patch TodoPatch) (*entities.Todo, error) {
	row := r.db.QueryRowContext(ctx, sqlUpdateTodo, patch.Title, patch.Description, patch.Completed, id)

	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

// Delete removes the todo only when both id and owner match, in one statement.
func (r *todoRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, sqlDeleteTodo, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns one page of todos plus the total number matching the same filter.
func (r *todoRepository) List(ctx context.Context, params ListParams) ([]*entities.Todo, int, error) {
	countQuery, countArgs := params.countQuery()

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	dataQuery, dataArgs := params.dataQuery()

	rows, err := r.db.QueryContext(ctx, dataQuery, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*entities.Todo, 0, params.Limit)
	for rows.Next() {
		var todo entities.Todo
		if err := rows.Scan(
			&todo.ID,
			&todo.UserID,
			&todo.Title,
			&todo.Description,
			&todo.Completed,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, &todo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, total, nil
}

func scanTodo(row *sql.Row) (*entities.Todo, error) {
	var todo entities.Todo
	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Description,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}
