package models

import (
	"time"

	"github.com/gocql/gocql"
)

type FavoriteItem struct {
	UserID  string     `json:"user_id" db:"user_id"`
	ItemID  gocql.UUID `json:"item_id" db:"item_id"`
	AddedAt time.Time  `json:"added_at" db:"added_at"`
}

type Favorites struct {
	UserID string `json:"user_id"`
	Items  []Item `json:"items"`
}
