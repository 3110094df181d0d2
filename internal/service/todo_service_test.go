package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"todo-be/internal/cache"
	"todo-be/internal/entities"
	"todo-be/internal/models"
	"todo-be/internal/repository"
	"todo-be/internal/repository/mocks"
)

const (
	ownerID    = "11111111-1111-1111-1111-111111111111"
	strangerID = "22222222-2222-2222-2222-222222222222"
	todoID     = "33333333-3333-3333-3333-333333333333"
)

func newTodoService(t *testing.T, listCache *cache.TodoListCache) (TodoService, *mocks.MockTodoRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTodoRepository(ctrl)
	return NewTodoService(repo, listCache, discardLogger()), repo
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTodoService_Create(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().Create(ctx, ownerID, "Buy milk", "").
		Return(&entities.Todo{ID: todoID, UserID: ownerID, Title: "Buy milk"}, nil)

	todo, err := svc.Create(ctx, ownerID, &models.CreateTodoRequest{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, todoID, todo.ID)
	assert.False(t, todo.Completed)
}

func TestTodoService_Create_BlankTitle(t *testing.T) {
	svc, _ := newTodoService(t, nil)

	_, err := svc.Create(context.Background(), ownerID, &models.CreateTodoRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTodoService_Get(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().FindByID(ctx, todoID, strangerID).Return(nil, repository.ErrNotFound)

	_, err := svc.Get(ctx, todoID, strangerID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTodoService_MalformedIDIsNotFound(t *testing.T) {
	// gomock fails the test on any repository call.
	svc, _ := newTodoService(t, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid", ownerID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "42", ownerID, &models.UpdateTodoRequest{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, "'; DROP TABLE todos; --", ownerID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTodoService_Update_PartialPatch(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().GetOwnerID(ctx, todoID).Return(ownerID, nil)
	repo.EXPECT().Update(ctx, todoID, repository.TodoPatch{Completed: boolPtr(true)}).
		Return(&entities.Todo{ID: todoID, UserID: ownerID, Title: "A", Description: "B", Completed: true}, nil)

	todo, err := svc.Update(ctx, todoID, ownerID, &models.UpdateTodoRequest{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "A", todo.Title)
	assert.Equal(t, "B", todo.Description)
	assert.True(t, todo.Completed)
}

func TestTodoService_Update_ForeignTodo(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().GetOwnerID(ctx, todoID).Return(ownerID, nil)

	_, err := svc.Update(ctx, todoID, strangerID, &models.UpdateTodoRequest{Title: strPtr("mine now")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTodoService_Update_Missing(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().GetOwnerID(ctx, todoID).Return("", repository.ErrNotFound)

	_, err := svc.Update(ctx, todoID, ownerID, &models.UpdateTodoRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTodoService_Update_BlankTitle(t *testing.T) {
	svc, _ := newTodoService(t, nil)

	_, err := svc.Update(context.Background(), todoID, ownerID, &models.UpdateTodoRequest{Title: strPtr("")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTodoService_Delete(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().Delete(ctx, todoID, ownerID).Return(nil)
	repo.EXPECT().Delete(ctx, todoID, strangerID).Return(repository.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, todoID, ownerID))
	assert.ErrorIs(t, svc.Delete(ctx, todoID, strangerID), ErrNotFound)
}

func TestTodoService_Delete_StoreFailure(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().Delete(ctx, todoID, ownerID).Return(errors.New("conn reset"))

	assert.ErrorIs(t, svc.Delete(ctx, todoID, ownerID), ErrInternal)
}

func TestTodoService_List_Pagination(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().List(ctx, repository.ListParams{
		UserID: ownerID,
		Sort:   repository.DefaultSort,
		Limit:  5,
		Offset: 5,
	}).Return(make([]*entities.Todo, 5), 12, nil)

	resp, err := svc.List(ctx, ownerID, models.ListTodosQuery{Page: "2", Limit: "5"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.Limit)
	assert.Equal(t, 12, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Data, 5)
}

func TestTodoService_List_FilterAndSort(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().List(ctx, repository.ListParams{
		UserID:    ownerID,
		Completed: boolPtr(false),
		Sort:      repository.Sort{Field: repository.SortByTitle},
		Limit:     10,
		Offset:    0,
	}).Return([]*entities.Todo{}, 0, nil)

	resp, err := svc.List(ctx, ownerID, models.ListTodosQuery{Completed: strPtr("yes"), SortBy: "title:asc"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalPages)
	assert.NotNil(t, resp.Data)
}

func TestTodoService_List_UnknownSortFallsBack(t *testing.T) {
	svc, repo := newTodoService(t, nil)
	ctx := context.Background()

	repo.EXPECT().List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params repository.ListParams) ([]*entities.Todo, int, error) {
			assert.Equal(t, repository.DefaultSort, params.Sort)
			return []*entities.Todo{}, 0, nil
		})

	_, err := svc.List(ctx, ownerID, models.ListTodosQuery{SortBy: "id; DROP TABLE todos:desc"})
	require.NoError(t, err)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"absent", "", "", 1, 10},
		{"explicit", "3", "25", 3, 25},
		{"zero", "0", "0", 1, 10},
		{"negative", "-4", "-1", 1, 10},
		{"garbage", "abc", "1e3", 1, 10},
		{"limit above max", "1", "500", 1, 100},
		{"huge page", "99999999999", "10", maxPage, 10},
		{"page above max", "2000000", "10", maxPage, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := parsePagination(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

// memoryCache is an in-process cache.Cache.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(b), exp)
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	v, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(v), dest)
}

func (m *memoryCache) Close() error { return nil }

func TestTodoService_List_CachedUntilMutation(t *testing.T) {
	listCache := cache.NewTodoListCache(newMemoryCache(), time.Minute)
	svc, repo := newTodoService(t, listCache)
	ctx := context.Background()
	query := models.ListTodosQuery{Page: "1", Limit: "10"}

	first := []*entities.Todo{{ID: todoID, UserID: ownerID, Title: "one"}}
	repo.EXPECT().List(ctx, gomock.Any()).Return(first, 1, nil).Times(1)

	resp, err := svc.List(ctx, ownerID, query)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	// Served from the cache: List above allows a single call only.
	resp, err = svc.List(ctx, ownerID, query)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "one", resp.Data[0].Title)

	repo.EXPECT().Delete(ctx, todoID, ownerID).Return(nil)
	require.NoError(t, svc.Delete(ctx, todoID, ownerID))

	repo.EXPECT().List(ctx, gomock.Any()).Return([]*entities.Todo{}, 0, nil)

	resp, err = svc.List(ctx, ownerID, query)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Data)
}
