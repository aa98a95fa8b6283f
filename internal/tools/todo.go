package tools

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/watson-stark/internal/models"
)

func (r *Registry) createTodo(ctx context.Context, args Args, user User) (any, error) {
	task, err := args.RequireString("task")
	if err != nil {
		return nil, err
	}

	todo, err := r.deps.Todos.Create(ctx, models.TodoInput{
		UserID:   user.ID,
		UserName: user.Name,
		TodoText: task,
		Priority: args.String("priority"),
	})
	if err != nil {
		return nil, err
	}

	return TodoCreated{
		Success:  true,
		Message:  "Todo created: " + task,
		Priority: todo.Priority,
	}, nil
}

func (r *Registry) listTodos(ctx context.Context, args Args, user User) (any, error) {
	todos, err := r.deps.Todos.List(ctx, user.ID, args.Bool("include_completed"))
	if err != nil {
		return nil, err
	}

	items := make([]TodoItem, len(todos))
	for i, t := range todos {
		items[i] = TodoItem{
			Number:    i + 1,
			Task:      t.TodoText,
			Priority:  t.Priority,
			Completed: t.Completed,
		}
	}
	return TodoList{Success: true, Count: len(items), Todos: items}, nil
}

// completeTodo resolves the 1-based index against the same ordering
// list_todos shows for active todos.
func (r *Registry) completeTodo(ctx context.Context, args Args, user User) (any, error) {
	index, ok := args.Int("todo_index")
	if !ok {
		return nil, fmt.Errorf("todo_index must be a whole number")
	}

	todos, err := r.deps.Todos.List(ctx, user.ID, false)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(todos) {
		return Rejection{
			Success: false,
			Message: fmt.Sprintf("Invalid todo number. You have %d active todos.", len(todos)),
		}, nil
	}

	todo := todos[index-1]
	id, err := models.RecordIDString(todo.ID)
	if err != nil {
		return nil, err
	}
	if _, err := r.deps.Todos.Complete(ctx, id); err != nil {
		return nil, err
	}

	return TodoCompleted{
		Success: true,
		Message: "Completed: " + todo.TodoText,
		Task:    todo.TodoText,
	}, nil
}
