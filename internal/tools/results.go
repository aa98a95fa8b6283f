package tools

import "time"

// Failure is returned for unknown tools and handler errors.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func failure(msg string) Failure {
	return Failure{Success: false, Error: msg}
}

// Rejection is returned when a request is understood but cannot be applied.
type Rejection struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TodoCreated struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

type TodoItem struct {
	Number    int    `json:"number"`
	Task      string `json:"task"`
	Priority  string `json:"priority"`
	Completed bool   `json:"completed"`
}

type TodoList struct {
	Success bool       `json:"success"`
	Count   int        `json:"count"`
	Todos   []TodoItem `json:"todos"`
}

type TodoCompleted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Task    string `json:"task"`
}

type ReminderCreated struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	ReminderTime string  `json:"reminderTime"`
	TimeValue    float64 `json:"timeValue"`
	TimeUnit     string  `json:"timeUnit"`
}

type ReminderItem struct {
	Number  int    `json:"number"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

type ReminderList struct {
	Success   bool           `json:"success"`
	Count     int            `json:"count"`
	Reminders []ReminderItem `json:"reminders"`
}

type KnowledgeItem struct {
	Topic    string   `json:"topic"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type KnowledgeResults struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Results []KnowledgeItem `json:"results"`
}

type KnowledgeAdded struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
}

type WebSearchResult struct {
	Success bool   `json:"success"`
	Query   string `json:"query"`
	Message string `json:"message"`
}

// displayTimeLayout renders instants for chat replies.
const displayTimeLayout = "1/2/2006, 3:04:05 PM"

func displayTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(displayTimeLayout)
}
