package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	KindOffer   ItemKind = "offer"
	KindRequest ItemKind = "request"
)

// ParseItemKind accepts the singular and plural forms used in routes.
func ParseItemKind(s string) (ItemKind, error) {
	switch s {
	case "offer", "offers":
		return KindOffer, nil
	case "request", "requests":
		return KindRequest, nil
	}
	return "", ErrInvalidItemKind
}

// InventoryItem is the behaviour shared by offers and requests while they are open.
type InventoryItem interface {
	Kind() ItemKind
	ItemID() uint
	OwnerID() int64
	Available() int
	// ArchiveSnapshot records qty units of the item under action, attributed to the owner.
	ArchiveSnapshot(qty int, action ActionType) ArchiveRecord
}

// Offer is a priced listing of surplus stock.
type Offer struct {
	BaseModel
	PharmacyID   int64           `gorm:"not null;index" json:"pharmacy_id"`
	DrugID       uint            `json:"drug_id"`
	EnglishName  string          `gorm:"type:varchar(255)" json:"english_name"`
	ArabicName   string          `gorm:"type:varchar(255)" json:"arabic_name"`
	Barcode      string          `gorm:"type:varchar(64);index" json:"barcode"`
	Manufacturer string          `gorm:"type:varchar(255)" json:"manufacturer,omitempty"`
	ExpiryDate   string          `gorm:"type:varchar(10)" json:"expiry_date"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Discount     int             `gorm:"default:0" json:"discount"`

	Pharmacy *Pharmacy `gorm:"foreignKey:PharmacyID;references:PharmacyID" json:"pharmacy,omitempty"`
}

func (Offer) TableName() string {
	return "inventory_offers"
}

func (o *Offer) Kind() ItemKind { return KindOffer }
func (o *Offer) ItemID() uint { return o.ID }
func (o *Offer) OwnerID() int64 { return o.PharmacyID }
func (o *Offer) Available() int { return o.Quantity }

func (o *Offer) ArchiveSnapshot(qty int, action ActionType) ArchiveRecord {
	return ArchiveRecord{
		PharmacyID:  o.PharmacyID,
		ItemID:      o.ID,
		ItemKind:    KindOffer,
		ArabicName:  o.ArabicName,
		EnglishName: o.EnglishName,
		Barcode:     o.Barcode,
		Quantity:    qty,
		Price:       o.Price,
		Discount:    o.Discount,
		ActionType:  action,
	}
}

// Value is price times quantity, used for the dashboard's stock valuation.
func (o *Offer) Value() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// Request is a wanted posting. It carries no price, discount or expiry.
type Request struct {
	BaseModel
	PharmacyID  int64  `gorm:"not null;index" json:"pharmacy_id"`
	DrugID      uint   `json:"drug_id"`
	EnglishName string `gorm:"type:varchar(255)" json:"english_name"`
	ArabicName  string `gorm:"type:varchar(255)" json:"arabic_name"`
	Barcode     string `gorm:"type:varchar(64);index" json:"barcode"`
	Quantity    int    `gorm:"not null" json:"quantity"`

	Pharmacy *Pharmacy `gorm:"foreignKey:PharmacyID;references:PharmacyID" json:"pharmacy,omitempty"`
}

func (Request) TableName() string {
	return "inventory_requests"
}

func (r *Request) Kind() ItemKind { return KindRequest }
func (r *Request) ItemID() uint { return r.ID }
func (r *Request) OwnerID() int64 { return r.PharmacyID }
func (r *Request) Available() int { return r.Quantity }

func (r *Request) ArchiveSnapshot(qty int, action ActionType) ArchiveRecord {
	return ArchiveRecord{
		PharmacyID:  r.PharmacyID,
		ItemID:      r.ID,
		ItemKind:    KindRequest,
		ArabicName:  r.ArabicName,
		EnglishName: r.EnglishName,
		Barcode:     r.Barcode,
		Quantity:    qty,
		Price:       decimal.Zero,
		ActionType:  action,
	}
}

// PlanConsumption computes what taking qty units out of available leaves behind.
// An item whose remaining quantity reaches zero is retired.
func PlanConsumption(available, qty int) (remaining int, retire bool, err error) {
	if qty < 1 {
		return available, false, ErrInvalidQuantity
	}
	if qty > available {
		return available, false, ErrInsufficientQuantity
	}
	remaining = available - qty
	return remaining, remaining == 0, nil
}

// IsNearExpiry reports whether an expiry ("2006-01" or "2006-01-02") is less than 90 days away.
// A month-only expiry is taken as the first day of that month.
func IsNearExpiry(expiry string, now time.Time) bool {
	t, ok := ParseExpiry(expiry)
	if !ok {
		return false
	}
	return t.Sub(now) < 90*24*time.Hour
}

func ParseExpiry(expiry string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, expiry); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
