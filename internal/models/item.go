package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Item struct {
	ID          gocql.UUID `json:"id" db:"item_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	Stock       int        `json:"stock" db:"stock"`
	Size        string     `json:"size" db:"size"`
	Condition   string     `json:"condition" db:"condition"`
	CategoryID  gocql.UUID `json:"category_id" db:"category_id"`
	ImageURLs   []string   `json:"image_urls" db:"image_urls"`
	SellerID    string     `json:"seller_id" db:"seller_id"`
	IsPublished bool       `json:"is_published" db:"is_published"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
