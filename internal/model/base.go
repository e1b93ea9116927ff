package model

import (
	"time"
)

// BaseModel carries the numeric ID and audit timestamps shared by the exchange tables.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
