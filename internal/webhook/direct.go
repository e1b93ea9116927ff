package webhook

import (
	"context"
	"strconv"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"

	"github.com/pkg/errors"
)

// DirectWriter performs the workflow effects straight on the tables.
// It is used when no workflow base URL is configured.
type DirectWriter struct {
	pharmacies  repository.PharmacyRepository
	credentials repository.CredentialRepository
	inventory   repository.InventoryRepository
}

func NewDirectWriter(p repository.PharmacyRepository, c repository.CredentialRepository, i repository.InventoryRepository) *DirectWriter {
	return &DirectWriter{pharmacies: p, credentials: c, inventory: i}
}

func (w *DirectWriter) AddOffer(ctx context.Context, p OfferPayload) error {
	return w.inventory.CreateOffer(ctx, &model.Offer{
		PharmacyID:   p.PharmacyID,
		DrugID:       p.DrugID,
		EnglishName:  p.EnglishName,
		ArabicName:   p.ArabicName,
		Barcode:      p.Barcode,
		Manufacturer: p.Manufacturer,
		ExpiryDate:   p.ExpiryDate,
		Quantity:     p.Quantity,
		Price:        p.Price,
		Discount:     p.Discount,
	})
}

func (w *DirectWriter) AddRequest(ctx context.Context, p RequestPayload) error {
	return w.inventory.CreateRequest(ctx, &model.Request{
		PharmacyID:  p.PharmacyID,
		DrugID:      p.DrugID,
		EnglishName: p.EnglishName,
		ArabicName:  p.ArabicName,
		Barcode:     p.Barcode,
		Quantity:    p.Quantity,
	})
}

func (w *DirectWriter) Register(ctx context.Context, p RegisterPayload) error {
	if _, err := w.credentials.FindByEmail(ctx, p.Email); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	err := w.credentials.Create(ctx, &model.Credential{
		Email:      p.Email,
		Password:   p.PasswordHash,
		PharmacyID: p.PharmacyID,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrDuplicate
	}
	return err
}

// SaveProfile creates the pharmacy row on first save and updates it afterwards.
func (w *DirectWriter) SaveProfile(ctx context.Context, p ProfilePayload) error {
	fields := map[string]interface{}{
		"pharmacy_name": p.Name,
		"city":          p.City,
		"address":       p.Address,
		"phone":         numberString(p.Phone),
		"license_no":    numberString(p.LicenseNo),
		"telegram":      p.Telegram,
	}
	err := w.pharmacies.UpdateFields(ctx, p.PharmacyID, fields)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return w.pharmacies.Create(ctx, &model.Pharmacy{
		PharmacyID:    p.PharmacyID,
		Name:          p.Name,
		Email:         p.Email,
		City:          p.City,
		Address:       p.Address,
		Phone:         numberString(p.Phone),
		LicenseNo:     numberString(p.LicenseNo),
		Telegram:      p.Telegram,
		AccountStatus: model.AccountActive,
	})
}

func numberString(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
