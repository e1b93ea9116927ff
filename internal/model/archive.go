package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActionType string

const (
	ActionInternalSale   ActionType = "Internal Sale"
	ActionTransfer       ActionType = "Transfer"
	ActionSaleAr         ActionType = "بيع"
	ActionInternalSaleAr ActionType = "بيع داخلي"
	ActionTransferAr     ActionType = "تحويل"

	ActionPurchased     ActionType = "Purchased"
	ActionTransferred   ActionType = "Transferred"
	ActionPurchasedAr   ActionType = "تم الشراء"
	ActionTransferredAr ActionType = "تم التحويل"

	ActionMarketplaceSale          ActionType = "Marketplace Sale"
	ActionMarketplaceRequestFilled ActionType = "Marketplace Request Filled"
)

var ownerActions = map[ItemKind][]ActionType{
	KindOffer:   {ActionInternalSale, ActionTransfer, ActionInternalSaleAr, ActionTransferAr, ActionSaleAr},
	KindRequest: {ActionPurchased, ActionTransferred, ActionPurchasedAr, ActionTransferredAr},
}

// OwnerActions lists the labels an owner may pick when retiring stock of the given kind.
func OwnerActions(kind ItemKind) []ActionType {
	return append([]ActionType(nil), ownerActions[kind]...)
}

func ValidOwnerAction(kind ItemKind, action ActionType) bool {
	for _, a := range ownerActions[kind] {
		if a == action {
			return true
		}
	}
	return false
}

// MarketplaceAction is the label recorded when a counterparty consumes a listing.
func MarketplaceAction(kind ItemKind) ActionType {
	if kind == KindRequest {
		return ActionMarketplaceRequestFilled
	}
	return ActionMarketplaceSale
}

// OfferSaleActions are the owner labels counted as sold offer stock on the dashboard.
func OfferSaleActions() []ActionType {
	return OwnerActions(KindOffer)
}

func IsOfferSale(a ActionType) bool {
	return ValidOwnerAction(KindOffer, a)
}

// IsRequestCompletion reports whether an archived action closed one of the owner's requests.
func IsRequestCompletion(a ActionType) bool {
	return ValidOwnerAction(KindRequest, a)
}

// ArchiveRecord is an append-only entry of retired or traded stock.
// PharmacyID is always the pharmacy that listed the item.
type ArchiveRecord struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PharmacyID     int64           `gorm:"not null;index" json:"pharmacy_id"`
	ItemID         uint            `gorm:"index" json:"item_id"`
	ItemKind       ItemKind        `gorm:"type:varchar(10)" json:"item_kind"`
	ArabicName     string          `gorm:"type:varchar(255)" json:"arabic_name"`
	EnglishName    string          `gorm:"type:varchar(255)" json:"english_name"`
	Barcode        string          `gorm:"type:varchar(64)" json:"barcode"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"price"`
	Discount       int             `gorm:"default:0" json:"discount"`
	ActionType     ActionType      `gorm:"type:varchar(64);not null" json:"action_type"`
	CounterpartyID *int64          `json:"counterparty_id,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}

func (ArchiveRecord) TableName() string {
	return "sales_archive"
}
