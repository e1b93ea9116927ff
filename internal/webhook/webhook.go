package webhook

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Workflow endpoint names, appended to the configured base URL.
const (
	EndpointAddOffer    = "add-offer"
	EndpointAddRequest  = "add-request"
	EndpointRegister    = "register"
	EndpointSaveProfile = "save-profile"
)

var (
	ErrDuplicate = errors.New("this email is already registered")
	ErrRejected  = errors.New("workflow rejected the request")
)

// Dispatcher performs the write paths owned by the external workflows.
type Dispatcher interface {
	AddOffer(ctx context.Context, p OfferPayload) error
	AddRequest(ctx context.Context, p RequestPayload) error
	Register(ctx context.Context, p RegisterPayload) error
	SaveProfile(ctx context.Context, p ProfilePayload) error
}

type OfferPayload struct {
	PharmacyID   int64           `json:"pharmacy_id"`
	DrugID       uint            `json:"drug_id"`
	EnglishName  string          `json:"english_name"`
	ArabicName   string          `json:"arabic_name"`
	Manufacturer string          `json:"manufacturer"`
	Barcode      string          `json:"barcode"`
	ExpiryDate   string          `json:"expiry_date"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Discount     int             `json:"discount"`
}

type RequestPayload struct {
	PharmacyID  int64  `json:"pharmacy_id"`
	DrugID      uint   `json:"drug_id"`
	EnglishName string `json:"english_name"`
	ArabicName  string `json:"arabic_name"`
	Barcode     string `json:"barcode"`
	Quantity    int    `json:"quantity"`
}

// RegisterPayload carries a bcrypt hash, never the plain password.
type RegisterPayload struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	PharmacyID   int64  `json:"pharmacy_id"`
}

// ProfilePayload sends phone and license as numbers, 0 when no digits were given.
type ProfilePayload struct {
	PharmacyID int64  `json:"pharmacy_id"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Address    string `json:"address"`
	Phone      int64  `json:"phone"`
	LicenseNo  int64  `json:"license_no"`
	Telegram   string `json:"telegram"`
}

type envelope struct {
	Payload interface{} `json:"payload"`
}
