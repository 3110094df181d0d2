package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-be/internal/middleware"
	"todo-be/internal/models"
	"todo-be/internal/service"
)

type TodoController struct {
	todoService service.TodoService
}

func NewTodoController(todoService service.TodoService) *TodoController {
	return &TodoController{
		todoService: todoService,
	}
}

// Create handles POST /api/todos
func (tc *TodoController) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	todo, err := tc.todoService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, todo)
}

// List handles GET /api/todos
func (tc *TodoController) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var query models.ListTodosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := tc.todoService.List(c.Request.Context(), userID, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/todos/:id
func (tc *TodoController) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	todo, err := tc.todoService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

// Update handles PUT /api/todos/:id
func (tc *TodoController) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	todo, err := tc.todoService.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, todo)
}

// Delete handles DELETE /api/todos/:id
func (tc *TodoController) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := tc.todoService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// currentUser reads the id set by the auth middleware. Routes mounted
// without it answer 401.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
