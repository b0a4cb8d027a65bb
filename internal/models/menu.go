package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Menu approval states. Catalog management itself lives outside this
// service; the status field is read-only here.
const (
	MenuStatusPending  = "P"
	MenuStatusApproved = "A"
	MenuStatusRejected = "R"
)

type Restaurant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Menu is a candidate record from the restaurant catalog. Price is a whole
// currency unit, matching the integer budget arithmetic in the ledger.
type Menu struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID   *uuid.UUID       `gorm:"type:uuid" json:"restaurant_id,omitempty"`
	RestaurantName string           `gorm:"size:200" json:"restaurant_name"`
	Name           string           `gorm:"size:200;not null" json:"name"`
	Description    string           `gorm:"type:text" json:"description"`
	Price          int              `gorm:"not null;default:0" json:"price"`
	Ingredients    []MenuIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
	Status         string           `gorm:"size:1;default:'P'" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (m *Menu) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MenuIngredient is one named record in a menu's ingredient list.
type MenuIngredient struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	MenuID uuid.UUID `gorm:"type:uuid;not null;index" json:"menu_id"`
	Name   string    `gorm:"size:100;not null" json:"name"`
}
