package audit

import "time"

// Entry is a recorded audit event joined with the acting user.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta"`
	At         time.Time      `json:"at"`
}

// ListFilters narrows audit queries.
type ListFilters struct {
	Action string
	Limit  int
}
