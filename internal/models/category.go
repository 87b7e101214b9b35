package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Category struct {
	ID          gocql.UUID `json:"id,omitempty"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
