package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin grants moderation capability. UID is the external identity of the admin account.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UID          string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"uid"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"type:varchar(255)" json:"-"`
	TokenVersion string    `gorm:"type:varchar(64);default:''" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Admin) TableName() string {
	return "system_admins"
}

func (a *Admin) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	a.Password = hashed
	return nil
}

func (a *Admin) CheckPassword(password string) bool {
	if a.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
}
