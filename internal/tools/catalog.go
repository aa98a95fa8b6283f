package tools

import "github.com/raphaelgruber/watson-stark/internal/llm"

// Tool names exposed to the model.
const (
	ToolCreateTodo      = "create_todo"
	ToolListTodos       = "list_todos"
	ToolCompleteTodo    = "complete_todo"
	ToolCreateReminder  = "create_reminder"
	ToolListReminders   = "list_reminders"
	ToolSearchKnowledge = "search_knowledge"
	ToolAddKnowledge    = "add_knowledge"
	ToolWebSearch       = "web_search"
)

func object(properties map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values, "description": description}
}

func baseCatalog() []llm.ToolSchema {
	return []llm.ToolSchema{
		{
			Name:        ToolCreateTodo,
			Description: "Creates a new todo item for the user. Use this when the user wants to add a task or something they need to do.",
			Parameters: object(map[string]any{
				"task":     prop("string", "The todo task description"),
				"priority": enumProp("Priority level of the task. Default is medium.", "low", "medium", "high"),
			}, "task"),
		},
		{
			Name:        ToolListTodos,
			Description: "Gets the user's current todo list. Use this when the user asks what they need to do or wants to see their tasks.",
			Parameters: object(map[string]any{
				"include_completed": prop("boolean", "Whether to include completed todos. Default is false."),
			}),
		},
		{
			Name:        ToolCompleteTodo,
			Description: "Marks a todo as completed. Use this when the user indicates they've finished a task.",
			Parameters: object(map[string]any{
				"todo_index": prop("number", "The index/number of the todo to complete (1-based, so first todo is 1)"),
			}, "todo_index"),
		},
		{
			Name:        ToolCreateReminder,
			Description: "Creates a reminder for the user at a specific time in the future. Use this when the user wants to be reminded about something.",
			Parameters: object(map[string]any{
				"message":    prop("string", "What to remind the user about"),
				"time_value": prop("number", "Numeric value for the time (e.g., 5, 30, 2)"),
				"time_unit":  enumProp("Unit of time for the reminder", "minutes", "hours", "days"),
			}, "message", "time_value", "time_unit"),
		},
		{
			Name:        ToolListReminders,
			Description: "Gets the user's active reminders. Use this when the user asks about their reminders or what they have scheduled.",
			Parameters:  object(map[string]any{}),
		},
		{
			Name:        ToolSearchKnowledge,
			Description: "Searches the knowledge base for information the user has previously told you. Use this when the user asks about something they mentioned before or wants to recall stored information.",
			Parameters: object(map[string]any{
				"query": prop("string", "What to search for in the knowledge base"),
			}, "query"),
		},
		{
			Name:        ToolAddKnowledge,
			Description: "Adds information to the knowledge base for future reference. Use this when the user shares information they want you to remember (preferences, facts, important details).",
			Parameters: object(map[string]any{
				"category": prop("string", "Category of the knowledge (e.g., 'personal', 'work', 'preferences', 'contacts')"),
				"topic":    prop("string", "Topic or title of the knowledge entry"),
				"content":  prop("string", "The actual information to store"),
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tags for easier searching (optional)",
				},
			}, "category", "topic", "content"),
		},
	}
}

func webSearchSchema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        ToolWebSearch,
		Description: "Looks up current information on the web. Use this for news or facts that change over time.",
		Parameters: object(map[string]any{
			"query": prop("string", "What to search the web for"),
		}, "query"),
	}
}
