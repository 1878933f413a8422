package store

import "time"

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// DateLayout is the calendar-date format used for due and creation dates.
const DateLayout = "2006-01-02"

type Idea struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	Assignee    string   `json:"assignee"`
	Upvotes     int      `json:"upvotes"`
	Comments    int      `json:"comments"`
	DueDate     string   `json:"dueDate"`
	CreatedAt   string   `json:"createdAt"`
}

// IdeaInput carries the caller-supplied fields of a new idea. Zero values are
// replaced by defaults.
type IdeaInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	Assignee    string   `json:"assignee"`
	DueDate     string   `json:"dueDate"`
}

// IdeaPatch is a shallow partial update: nil fields are left untouched.
type IdeaPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
	Upvotes     *int      `json:"upvotes,omitempty"`
	Comments    *int      `json:"comments,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
}

type Like struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"ideaId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Apply merges the non-nil fields of the patch into idea.
func (p IdeaPatch) Apply(idea *Idea) {
	if p.Title != nil {
		idea.Title = *p.Title
	}
	if p.Description != nil {
		idea.Description = *p.Description
	}
	if p.Priority != nil {
		idea.Priority = *p.Priority
	}
	if p.Status != nil {
		idea.Status = *p.Status
	}
	if p.Tags != nil {
		idea.Tags = normalizeTags(*p.Tags)
	}
	if p.Assignee != nil {
		idea.Assignee = *p.Assignee
	}
	if p.Upvotes != nil {
		idea.Upvotes = *p.Upvotes
	}
	if p.Comments != nil {
		idea.Comments = *p.Comments
	}
	if p.DueDate != nil {
		idea.DueDate = *p.DueDate
	}
}

// newIdea fills defaults for a freshly created idea.
func newIdea(id string, in IdeaInput, now time.Time) Idea {
	today := now.Format(DateLayout)
	idea := Idea{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		Tags:        normalizeTags(in.Tags),
		Assignee:    in.Assignee,
		DueDate:     in.DueDate,
		CreatedAt:   today,
	}
	if idea.Priority == "" {
		idea.Priority = PriorityMedium
	}
	if idea.Status == "" {
		idea.Status = StatusPending
	}
	if idea.DueDate == "" {
		idea.DueDate = today
	}
	return idea
}

// normalizeTags drops blanks and duplicates while keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
