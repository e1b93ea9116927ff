package service

import (
	"context"
	"errors"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/webhook"
	"go-pharma-exchange/internal/ws"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type InventoryService interface {
	ListOffers(ctx context.Context, s model.Session) ([]model.Offer, error)
	ListRequests(ctx context.Context, s model.Session) ([]model.Request, error)
	CreateOffer(ctx context.Context, s model.Session, in OfferInput) error
	CreateRequest(ctx context.Context, s model.Session, in RequestInput) error
	EditOffer(ctx context.Context, s model.Session, id uint, in OfferEdit) (*model.Offer, error)
	EditRequest(ctx context.Context, s model.Session, id uint, in RequestEdit) (*model.Request, error)
	Restock(ctx context.Context, s model.Session, kind model.ItemKind, id uint, qty int) (int, error)
	FullCancel(ctx context.Context, s model.Session, kind model.ItemKind, id uint, action model.ActionType) (*repository.ConsumeResult, error)
	Deduct(ctx context.Context, s model.Session, kind model.ItemKind, id uint, qty int, action model.ActionType) (*repository.ConsumeResult, error)
}

type OfferInput struct {
	DrugID           uint            `json:"drug_id" validate:"required"`
	ExpiryDate       string          `json:"expiry_date" validate:"required,expiry"`
	Quantity         int             `json:"quantity" validate:"min=1"`
	Price            decimal.Decimal `json:"price" validate:"gt=0"`
	Discount         int             `json:"discount" validate:"min=0,max=100"`
	ConfirmDuplicate bool            `json:"confirm_duplicate"`
}

type RequestInput struct {
	DrugID   uint `json:"drug_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"min=1"`
}

type OfferEdit struct {
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
	Discount int             `json:"discount" validate:"min=0,max=100"`
}

type RequestEdit struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

type inventoryService struct {
	inventory  repository.InventoryRepository
	catalog    repository.CatalogRepository
	workflows  webhook.Dispatcher
	reputation cache.ReputationCache
	notify     Notifier
	log        *logrus.Logger
}

func NewInventoryService(
	inventory repository.InventoryRepository,
	catalog repository.CatalogRepository,
	workflows webhook.Dispatcher,
	reputation cache.ReputationCache,
	notify Notifier,
	log *logrus.Logger,
) InventoryService {
	return &inventoryService{
		inventory:  inventory,
		catalog:    catalog,
		workflows:  workflows,
		reputation: reputation,
		notify:     notifierOrNop(notify),
		log:        log,
	}
}

func (s *inventoryService) ListOffers(ctx context.Context, sess model.Session) ([]model.Offer, error) {
	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	return s.inventory.ListOffersByPharmacy(ctx, sess.PharmacyID)
}

func (s *inventoryService) ListRequests(ctx context.Context, sess model.Session) ([]model.Request, error) {
	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	return s.inventory.ListRequestsByPharmacy(ctx, sess.PharmacyID)
}

// selectDrug resolves a catalog selection. Only entries with a usable barcode can be listed.
func (s *inventoryService) selectDrug(ctx context.Context, id uint) (*model.CatalogDrug, string, error) {
	drug, err := s.catalog.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidSelection
	}
	if err != nil {
		return nil, "", err
	}
	barcode := model.DigitsOnly(drug.Barcode)
	if err := validator.Validate(&struct {
		Barcode string `validate:"barcode"`
	}{barcode}); err != nil {
		return nil, "", ErrInvalidSelection
	}
	return drug, barcode, nil
}

func (s *inventoryService) CreateOffer(ctx context.Context, sess model.Session, in OfferInput) error {
	ctx, span := tracer.Start(ctx, "Inventory.Service.CreateOffer")
	defer span.End()

	if !sess.IsPharmacy() {
		return ErrPharmacyOnly
	}
	if err := validator.Validate(&in); err != nil {
		return err
	}
	drug, barcode, err := s.selectDrug(ctx, in.DrugID)
	if err != nil {
		return err
	}

	if !in.ConfirmDuplicate {
		_, err := s.inventory.FindOfferDuplicate(ctx, sess.PharmacyID, barcode, in.ExpiryDate)
		if err == nil {
			return ErrDuplicateOffer
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return recordErr(span, err)
		}
	}

	payload := webhook.OfferPayload{
		PharmacyID:   sess.PharmacyID,
		DrugID:       drug.ID,
		EnglishName:  drug.EnglishName,
		ArabicName:   drug.ArabicName,
		Manufacturer: drug.Manufacturer,
		Barcode:      barcode,
		ExpiryDate:   in.ExpiryDate,
		Quantity:     in.Quantity,
		Price:        in.Price,
		Discount:     in.Discount,
	}
	if err := s.workflows.AddOffer(ctx, payload); err != nil {
		return recordErr(span, err)
	}

	s.publish(model.KindOffer, "created", payload)
	return nil
}

func (s *inventoryService) CreateRequest(ctx context.Context, sess model.Session, in RequestInput) error {
	ctx, span := tracer.Start(ctx, "Inventory.Service.CreateRequest")
	defer span.End()

	if !sess.IsPharmacy() {
		return ErrPharmacyOnly
	}
	if err := validator.Validate(&in); err != nil {
		return err
	}
	drug, barcode, err := s.selectDrug(ctx, in.DrugID)
	if err != nil {
		return err
	}

	payload := webhook.RequestPayload{
		PharmacyID:  sess.PharmacyID,
		DrugID:      drug.ID,
		EnglishName: drug.EnglishName,
		ArabicName:  drug.ArabicName,
		Barcode:     barcode,
		Quantity:    in.Quantity,
	}
	if err := s.workflows.AddRequest(ctx, payload); err != nil {
		return recordErr(span, err)
	}

	s.publish(model.KindRequest, "created", payload)
	return nil
}

func (s *inventoryService) EditOffer(ctx context.Context, sess model.Session, id uint, in OfferEdit) (*model.Offer, error) {
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}
	offer, err := s.inventory.FindOffer(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := ownedBy(sess)(offer); err != nil {
		return nil, err
	}

	if err := s.inventory.UpdateOffer(ctx, id, map[string]interface{}{
		"price":    in.Price,
		"discount": in.Discount,
	}); err != nil {
		return nil, notFound(err)
	}
	offer.Price = in.Price
	offer.Discount = in.Discount

	s.publish(model.KindOffer, "updated", offer)
	return offer, nil
}

func (s *inventoryService) EditRequest(ctx context.Context, sess model.Session, id uint, in RequestEdit) (*model.Request, error) {
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}
	request, err := s.inventory.FindRequest(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := ownedBy(sess)(request); err != nil {
		return nil, err
	}

	if err := s.inventory.UpdateRequest(ctx, id, map[string]interface{}{"quantity": in.Quantity}); err != nil {
		return nil, notFound(err)
	}
	request.Quantity = in.Quantity

	s.publish(model.KindRequest, "updated", request)
	return request, nil
}

// Restock adds units to an owned item. It is not an archival event.
func (s *inventoryService) Restock(ctx context.Context, sess model.Session, kind model.ItemKind, id uint, qty int) (int, error) {
	if !sess.IsPharmacy() {
		return 0, ErrPharmacyOnly
	}
	newQty, err := s.inventory.Restock(ctx, kind, id, qty, ownedBy(sess))
	if err != nil {
		return 0, notFound(err)
	}
	s.publish(kind, "restocked", map[string]interface{}{"id": id, "quantity": newQty})
	return newQty, nil
}

// FullCancel archives the whole remaining quantity under an owner label and deletes the item.
func (s *inventoryService) FullCancel(ctx context.Context, sess model.Session, kind model.ItemKind, id uint, action model.ActionType) (*repository.ConsumeResult, error) {
	return s.consumeOwned(ctx, sess, repository.ConsumeParams{
		Kind:   kind,
		ItemID: id,
		Full:   true,
		Action: action,
	})
}

// Deduct archives qty units under an owner label; the item is deleted when nothing remains.
func (s *inventoryService) Deduct(ctx context.Context, sess model.Session, kind model.ItemKind, id uint, qty int, action model.ActionType) (*repository.ConsumeResult, error) {
	return s.consumeOwned(ctx, sess, repository.ConsumeParams{
		Kind:     kind,
		ItemID:   id,
		Quantity: qty,
		Action:   action,
	})
}

func (s *inventoryService) consumeOwned(ctx context.Context, sess model.Session, p repository.ConsumeParams) (*repository.ConsumeResult, error) {
	ctx, span := tracer.Start(ctx, "Inventory.Service.Consume")
	defer span.End()

	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	if !model.ValidOwnerAction(p.Kind, p.Action) {
		return nil, model.ErrInvalidActionType
	}
	p.Authorize = ownedBy(sess)

	res, err := s.inventory.Consume(ctx, p)
	if err != nil {
		return nil, recordErr(span, notFound(err))
	}

	if err := s.reputation.Invalidate(ctx, sess.PharmacyID); err != nil {
		logger.LogError(s.log, "inventory", "Consume", "invalidate reputation", sess.PharmacyID, err)
	}
	s.publish(p.Kind, "archived", res)
	return res, nil
}

func (s *inventoryService) publish(kind model.ItemKind, action string, data interface{}) {
	s.notify.Publish(ws.Event{Type: EventInventoryUpdate, Action: string(kind) + "_" + action, Data: data})
}

// ownedBy authorizes an item for its listing pharmacy only.
func ownedBy(sess model.Session) func(model.InventoryItem) error {
	return func(item model.InventoryItem) error {
		if item.OwnerID() != sess.PharmacyID {
			return ErrForbidden
		}
		return nil
	}
}
