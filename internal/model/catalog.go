package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogDrug is a row of the curated drug reference ("master").
type CatalogDrug struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Barcode      string          `gorm:"type:varchar(64);index" json:"barcode"`
	EnglishName  string          `gorm:"type:varchar(255);index" json:"name_en"`
	ArabicName   string          `gorm:"type:varchar(255);index" json:"name_ar"`
	Brand        string          `gorm:"type:varchar(255)" json:"brand"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"price"`
	Manufacturer string          `gorm:"type:varchar(255)" json:"manufacturer,omitempty"`
	Category     string          `gorm:"type:varchar(100)" json:"category,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (CatalogDrug) TableName() string {
	return "master"
}

// PendingItem is a drug proposed by a pharmacy and waiting for moderation.
// Price and barcode are kept exactly as typed; they are sanitized on approval.
type PendingItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ArabicName    string    `gorm:"type:varchar(255)" json:"arabic_name"`
	EnglishName   string    `gorm:"type:varchar(255)" json:"english_name"`
	Barcode       string    `gorm:"type:varchar(64)" json:"barcode"`
	Brand         string    `gorm:"type:varchar(255)" json:"brand"`
	Price         string    `gorm:"type:varchar(64)" json:"price"`
	FinalCategory string    `gorm:"type:varchar(100)" json:"final_category"`
	AddedBy       int64     `gorm:"index" json:"added_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PendingItem) TableName() string {
	return "pending_items"
}

var (
	nonPrice      = regexp.MustCompile(`[^0-9.]`)
	leadingNumber = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)`)
)

// SanitizePrice drops every character that is not a digit or a dot and reads the
// leading number, so "120 EGP" becomes 120 and "12.50 EGP." becomes 12.5.
// An empty price is 0.
func SanitizePrice(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	num := leadingNumber.FindString(nonPrice.ReplaceAllString(raw, ""))
	num = strings.TrimSuffix(num, ".")
	if num == "" {
		return decimal.Zero, ErrInvalidPrice
	}
	price, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	return price, nil
}

// SanitizeBarcode removes all whitespace from a submitted barcode.
func SanitizeBarcode(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

// ToCatalogDrug builds the catalog row an approval inserts.
func (p *PendingItem) ToCatalogDrug() (CatalogDrug, error) {
	price, err := SanitizePrice(p.Price)
	if err != nil {
		return CatalogDrug{}, err
	}
	return CatalogDrug{
		Barcode:     SanitizeBarcode(p.Barcode),
		EnglishName: strings.TrimSpace(p.EnglishName),
		ArabicName:  strings.TrimSpace(p.ArabicName),
		Brand:       strings.TrimSpace(p.Brand),
		Price:       price,
		Category:    p.FinalCategory,
	}, nil
}
