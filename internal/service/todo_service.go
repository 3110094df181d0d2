package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"todo-be/internal/cache"
	"todo-be/internal/entities"
	"todo-be/internal/models"
	"todo-be/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	maxPage      = 1_000_000
)

// TodoService defines the interface for todo business logic
type TodoService interface {
	Create(ctx context.Context, userID string, req *models.CreateTodoRequest) (*entities.Todo, error)
	Get(ctx context.Context, id, userID string) (*entities.Todo, error)
	Update(ctx context.Context, id, userID string, req *models.UpdateTodoRequest) (*entities.Todo, error)
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, userID string, q models.ListTodosQuery) (*models.ListTodosResponse, error)
}

type todoService struct {
	repo      repository.TodoRepository
	listCache *cache.TodoListCache
	log       *slog.Logger
}

// NewTodoService creates a new todo service. listCache may be nil.
func NewTodoService(repo repository.TodoRepository, listCache *cache.TodoListCache, log *slog.Logger) TodoService {
	return &todoService{
		repo:      repo,
		listCache: listCache,
		log:       log,
	}
}

// Create stores a new todo owned by userID
func (s *todoService) Create(ctx context.Context, userID string, req *models.CreateTodoRequest) (*entities.Todo, error) {
	const op = "service.CreateTodo"

	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrValidation
	}

	todo, err := s.repo.Create(ctx, userID, req.Title, req.Description)
	if err != nil {
		s.log.Error("failed to create todo", slog.String("op", op), slog.Any("error", err))
		return nil, ErrInternal
	}

	s.invalidate(ctx, userID)

	return todo, nil
}

// Get returns a single todo of the caller. Foreign todos look absent.
func (s *todoService) Get(ctx context.Context, id, userID string) (*entities.Todo, error) {
	const op = "service.GetTodo"

	if !isValidID(id) {
		return nil, ErrNotFound
	}

	todo, err := s.repo.FindByID(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to get todo", slog.String("op", op), slog.Any("error", err))
		return nil, ErrInternal
	}

	return todo, nil
}

// Update applies a merge patch. A missing todo is ErrNotFound, a todo owned
// by somebody else is ErrForbidden.
func (s *todoService) Update(ctx context.Context, id, userID string, req *models.UpdateTodoRequest) (*entities.Todo, error) {
	const op = "service.UpdateTodo"

	log := s.log.With(slog.String("op", op), slog.String("todo_id", id))

	if !isValidID(id) {
		return nil, ErrNotFound
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, ErrValidation
	}

	ownerID, err := s.repo.GetOwnerID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error("failed to fetch todo owner", slog.Any("error", err))
		return nil, ErrInternal
	}

	// user_id never changes after creation, so the check cannot go stale
	// before the write below.
	if ownerID != userID {
		log.Warn("update of foreign todo rejected", slog.String("user_id", userID))
		return nil, ErrForbidden
	}

	todo, err := s.repo.Update(ctx, id, repository.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error("failed to update todo", slog.Any("error", err))
		return nil, ErrInternal
	}

	s.invalidate(ctx, userID)

	return todo, nil
}

// Delete removes the todo if the caller owns it. Nonexistent and foreign ids
// both yield ErrNotFound.
func (s *todoService) Delete(ctx context.Context, id, userID string) error {
	const op = "service.DeleteTodo"

	if !isValidID(id) {
		return ErrNotFound
	}

	err := s.repo.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to delete todo", slog.String("op", op), slog.Any("error", err))
		return ErrInternal
	}

	s.invalidate(ctx, userID)

	return nil
}

// List returns one page of the caller's todos
func (s *todoService) List(ctx context.Context, userID string, q models.ListTodosQuery) (*models.ListTodosResponse, error) {
	const op = "service.ListTodos"

	log := s.log.With(slog.String("op", op))

	page, limit := parsePagination(q.Page, q.Limit)

	params := repository.ListParams{
		UserID: userID,
		Sort:   repository.ParseSort(q.SortBy),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if q.Completed != nil {
		completed := *q.Completed == "true"
		params.Completed = &completed
	}

	variant := listVariant(page, limit, params)

	generation, cached := s.cachedPage(ctx, log, userID, variant)
	if cached != nil {
		return cached, nil
	}

	todos, total, err := s.repo.List(ctx, params)
	if err != nil {
		log.Error("failed to list todos", slog.Any("error", err))
		return nil, ErrInternal
	}

	resp := &models.ListTodosResponse{
		Data:       todos,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}

	if generation != "" {
		if err := s.listCache.Put(ctx, userID, generation, variant, resp); err != nil {
			log.Warn("failed to cache todo page", slog.Any("error", err))
		}
	}

	return resp, nil
}

// cachedPage returns a cached page if there is one. Otherwise it returns the
// generation the page may be stored under, or "" when caching is unavailable.
func (s *todoService) cachedPage(ctx context.Context, log *slog.Logger, userID, variant string) (string, *models.ListTodosResponse) {
	if s.listCache == nil {
		return "", nil
	}

	var resp models.ListTodosResponse
	generation, err := s.listCache.Get(ctx, userID, variant, &resp)
	switch {
	case err == nil:
		if resp.Data == nil {
			resp.Data = []*entities.Todo{}
		}
		return "", &resp
	case errors.Is(err, cache.ErrCacheMiss):
		return generation, nil
	default:
		log.Warn("todo list cache unavailable", slog.Any("error", err))
		return "", nil
	}
}

func (s *todoService) invalidate(ctx context.Context, userID string) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate todo list cache", slog.String("user_id", userID), slog.Any("error", err))
	}
}

// parsePagination applies defaults to absent or non-numeric values and clamps
// the rest into a sane range.
func parsePagination(pageRaw, limitRaw string) (int, int) {
	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 1 {
		page = defaultPage
	}
	if page > maxPage {
		page = maxPage
	}

	limit, err := strconv.Atoi(limitRaw)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit
}

func listVariant(page, limit int, params repository.ListParams) string {
	completed := "any"
	if params.Completed != nil {
		completed = strconv.FormatBool(*params.Completed)
	}
	return fmt.Sprintf("%d:%d:%s:%s", page, limit, completed, params.Sort)
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
