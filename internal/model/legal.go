package model

import "time"

const LegalTerms = "terms"

type LegalContent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"type"`
	Content   string    `gorm:"type:text" json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LegalContent) TableName() string {
	return "legal_content"
}
