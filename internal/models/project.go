package models

import "time"

// Project is owned by the user who created it. Code is the short unique
// prefix that namespaces bug codes (e.g. "P-7" -> bugs "P-7-1", "P-7-2").
type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Phase belongs to exactly one project and inherits its visibility scope.
type Phase struct {
	ID        int        `json:"id"`
	ProjectID int        `json:"project_id"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
