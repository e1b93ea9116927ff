package model

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AccountStatus string

const (
	AccountActive      AccountStatus = "active"
	AccountBlacklisted AccountStatus = "blacklisted"
)

// Pharmacy is the identity and public profile of a member pharmacy.
// pharmacy_id is assigned at registration, never by the database.
type Pharmacy struct {
	PharmacyID    int64         `gorm:"primaryKey;autoIncrement:false" json:"pharmacy_id"`
	Name          string        `gorm:"column:pharmacy_name;type:varchar(255)" json:"pharmacy_name"`
	Email         string        `gorm:"type:varchar(255);index" json:"email"`
	Phone         string        `gorm:"type:varchar(30)" json:"phone"`
	City          string        `gorm:"type:varchar(100);index" json:"city"`
	Address       string        `gorm:"type:text" json:"address"`
	LicenseNo     string        `gorm:"type:varchar(50)" json:"license_no"`
	Telegram      string        `gorm:"type:varchar(100)" json:"telegram"`
	ProfilePic    string        `gorm:"type:text" json:"profile_pic,omitempty"`
	AccountStatus AccountStatus `gorm:"type:varchar(20);default:'active'" json:"account_status"`
	LastLogin     *time.Time    `json:"last_login,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Pharmacy) TableName() string {
	return "pharmacies"
}

// IsBlacklisted treats an empty status as active, matching rows created before the column existed.
func (p *Pharmacy) IsBlacklisted() bool {
	return p.AccountStatus == AccountBlacklisted
}

// ToggledStatus returns the status a blacklist toggle moves the account to.
func (p *Pharmacy) ToggledStatus() AccountStatus {
	if p.IsBlacklisted() {
		return AccountActive
	}
	return AccountBlacklisted
}

// PharmacyProfile is the cached profile the web client keeps under "pharmacy_profile".
type PharmacyProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Address    string `json:"address"`
	Phone      string `json:"phone,omitempty"`
	Telegram   string `json:"telegram,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

func (p *Pharmacy) ToProfile() PharmacyProfile {
	return PharmacyProfile{
		ID:         formatID(p.PharmacyID),
		Name:       p.Name,
		City:       p.City,
		Address:    p.Address,
		Phone:      p.Phone,
		Telegram:   p.Telegram,
		ProfilePic: p.ProfilePic,
	}
}

// FallbackProfile is used when a credential exists but its profile row does not.
func FallbackProfile(pharmacyID int64) PharmacyProfile {
	return PharmacyProfile{
		ID:   formatID(pharmacyID),
		Name: "Pharmacy User",
		City: "Cairo",
	}
}

// Credential is the login record of a pharmacy, kept apart from its identity row.
type Credential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"`
	PharmacyID   int64     `gorm:"uniqueIndex;not null" json:"pharmacy_id"`
	TokenVersion string    `gorm:"type:varchar(64);default:''" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Credential) TableName() string {
	return "credentials"
}

// SetPassword hashes and sets the credential password
func (c *Credential) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	c.Password = hashed
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (c *Credential) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password)) == nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var nonDigits = regexp.MustCompile(`\D`)

// DigitsOnly strips everything but 0-9, used for phone, license and barcode fields.
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}
