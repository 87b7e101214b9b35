package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Purchase struct {
	ID        gocql.UUID `json:"id" db:"purchase_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	ItemID    gocql.UUID `json:"item_id" db:"item_id"`
	Quantity  int        `json:"quantity" db:"quantity"`
	UnitPrice float64    `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
