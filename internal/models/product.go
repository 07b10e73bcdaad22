package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a locally mirrored catalog item. SKU carries the remote
// identifier and is the stable join key across syncs.
type Product struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU         string    `json:"sku" gorm:"unique;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2)"`
	Status      string    `json:"status" gorm:"default:draft"`
	StockStatus string    `json:"stock_status" gorm:"default:instock"`
	CategoryID  *string   `json:"category_id" gorm:"type:uuid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	StockStatusInStock    = "instock"
	StockStatusOutOfStock = "outofstock"
)

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
