package domain

import (
	"strings"
	"time"
)

// Todo is a task as the server reports it. The client never changes one
// locally; every edit round-trips through the server.
type Todo struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Todo) Status() string {
	if t.Completed {
		return "done"
	}
	return "open"
}

// NormalizeTitle trims a title and reports whether anything is left.
func NormalizeTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	return title, title != ""
}
