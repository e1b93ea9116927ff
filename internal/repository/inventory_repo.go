package repository

import (
	"context"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	ListOffersByPharmacy(ctx context.Context, pharmacyID int64) ([]model.Offer, error)
	ListRequestsByPharmacy(ctx context.Context, pharmacyID int64) ([]model.Request, error)
	// ListOpenOffers returns every open offer with its listing pharmacy, newest first. limit 0 means no limit.
	ListOpenOffers(ctx context.Context, limit int) ([]model.Offer, error)
	ListOpenRequests(ctx context.Context, limit int) ([]model.Request, error)

	FindOffer(ctx context.Context, id uint) (*model.Offer, error)
	FindRequest(ctx context.Context, id uint) (*model.Request, error)
	FindOfferDuplicate(ctx context.Context, pharmacyID int64, barcode, expiry string) (*model.Offer, error)

	CreateOffer(ctx context.Context, offer *model.Offer) error
	CreateRequest(ctx context.Context, request *model.Request) error
	UpdateOffer(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdateRequest(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteItem(ctx context.Context, kind model.ItemKind, id uint) error

	Restock(ctx context.Context, kind model.ItemKind, id uint, qty int, authorize func(model.InventoryItem) error) (int, error)
	Consume(ctx context.Context, p ConsumeParams) (*ConsumeResult, error)

	CountOffers(ctx context.Context, pharmacyID int64) (int64, error)
	CountRequests(ctx context.Context, pharmacyID int64) (int64, error)
	TopDrugs(ctx context.Context, kind model.ItemKind, limit int) ([]DrugCount, error)
}

// ConsumeParams describes one archival of stock. Full archives whatever quantity remains.
type ConsumeParams struct {
	Kind           model.ItemKind
	ItemID         uint
	Quantity       int
	Full           bool
	Action         model.ActionType
	CounterpartyID *int64
	// Authorize runs against the locked row before anything is written.
	Authorize func(model.InventoryItem) error
}

type ConsumeResult struct {
	Item      model.InventoryItem `json:"-"`
	Archive   model.ArchiveRecord `json:"archive"`
	Remaining int                 `json:"remaining"`
	Retired   bool                `json:"retired"`
}

type DrugCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) ListOffersByPharmacy(ctx context.Context, pharmacyID int64) ([]model.Offer, error) {
	var offers []model.Offer
	err := r.db.WithContext(ctx).Where("pharmacy_id = ?", pharmacyID).Order("created_at DESC").Find(&offers).Error
	return offers, translate(err, "list offers")
}

func (r *inventoryRepo) ListRequestsByPharmacy(ctx context.Context, pharmacyID int64) ([]model.Request, error) {
	var requests []model.Request
	err := r.db.WithContext(ctx).Where("pharmacy_id = ?", pharmacyID).Order("created_at DESC").Find(&requests).Error
	return requests, translate(err, "list requests")
}

func (r *inventoryRepo) ListOpenOffers(ctx context.Context, limit int) ([]model.Offer, error) {
	var offers []model.Offer
	q := r.db.WithContext(ctx).Preload("Pharmacy").Where("quantity > 0").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&offers).Error
	return offers, translate(err, "list open offers")
}

func (r *inventoryRepo) ListOpenRequests(ctx context.Context, limit int) ([]model.Request, error) {
	var requests []model.Request
	q := r.db.WithContext(ctx).Preload("Pharmacy").Where("quantity > 0").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&requests).Error
	return requests, translate(err, "list open requests")
}

func (r *inventoryRepo) FindOffer(ctx context.Context, id uint) (*model.Offer, error) {
	var offer model.Offer
	if err := r.db.WithContext(ctx).Preload("Pharmacy").First(&offer, id).Error; err != nil {
		return nil, translate(err, "find offer")
	}
	return &offer, nil
}

func (r *inventoryRepo) FindRequest(ctx context.Context, id uint) (*model.Request, error) {
	var request model.Request
	if err := r.db.WithContext(ctx).Preload("Pharmacy").First(&request, id).Error; err != nil {
		return nil, translate(err, "find request")
	}
	return &request, nil
}

func (r *inventoryRepo) FindOfferDuplicate(ctx context.Context, pharmacyID int64, barcode, expiry string) (*model.Offer, error) {
	var offer model.Offer
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND barcode = ? AND expiry_date = ?", pharmacyID, barcode, expiry).
		First(&offer).Error
	if err != nil {
		return nil, translate(err, "find duplicate offer")
	}
	return &offer, nil
}

func (r *inventoryRepo) CreateOffer(ctx context.Context, offer *model.Offer) error {
	return translate(r.db.WithContext(ctx).Create(offer).Error, "create offer")
}

func (r *inventoryRepo) CreateRequest(ctx context.Context, request *model.Request) error {
	return translate(r.db.WithContext(ctx).Create(request).Error, "create request")
}

func (r *inventoryRepo) UpdateOffer(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.update(ctx, &model.Offer{}, id, fields)
}

func (r *inventoryRepo) UpdateRequest(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.update(ctx, &model.Request{}, id, fields)
}

func (r *inventoryRepo) update(ctx context.Context, table interface{}, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(table).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "update item")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepo) DeleteItem(ctx context.Context, kind model.ItemKind, id uint) error {
	var table interface{}
	switch kind {
	case model.KindOffer:
		table = &model.Offer{}
	case model.KindRequest:
		table = &model.Request{}
	default:
		return model.ErrInvalidItemKind
	}
	res := r.db.WithContext(ctx).Delete(table, id)
	if res.Error != nil {
		return translate(res.Error, "delete item")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// lockItem loads an item with FOR UPDATE inside tx.
func lockItem(tx *gorm.DB, kind model.ItemKind, id uint) (model.InventoryItem, error) {
	locked := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	switch kind {
	case model.KindOffer:
		var offer model.Offer
		if err := locked.First(&offer, id).Error; err != nil {
			return nil, translate(err, "lock offer")
		}
		return &offer, nil
	case model.KindRequest:
		var request model.Request
		if err := locked.First(&request, id).Error; err != nil {
			return nil, translate(err, "lock request")
		}
		return &request, nil
	}
	return nil, model.ErrInvalidItemKind
}

func (r *inventoryRepo) Restock(ctx context.Context, kind model.ItemKind, id uint, qty int, authorize func(model.InventoryItem) error) (int, error) {
	if qty < 1 {
		return 0, model.ErrInvalidQuantity
	}
	var newQty int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, kind, id)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(item); err != nil {
				return err
			}
		}
		newQty = item.Available() + qty
		return translate(tx.Model(item).Update("quantity", newQty).Error, "restock item")
	})
	return newQty, err
}

// Consume archives part or all of an item and decrements or deletes the source row atomically.
func (r *inventoryRepo) Consume(ctx context.Context, p ConsumeParams) (*ConsumeResult, error) {
	var result ConsumeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, p.Kind, p.ItemID)
		if err != nil {
			return err
		}
		if p.Authorize != nil {
			if err := p.Authorize(item); err != nil {
				return err
			}
		}

		qty := p.Quantity
		if p.Full {
			qty = item.Available()
		}
		remaining, retire, err := model.PlanConsumption(item.Available(), qty)
		if err != nil {
			return err
		}

		record := item.ArchiveSnapshot(qty, p.Action)
		record.CounterpartyID = p.CounterpartyID
		if err := tx.Create(&record).Error; err != nil {
			return translate(err, "insert archive record")
		}

		if retire {
			if err := tx.Delete(item).Error; err != nil {
				return translate(err, "retire item")
			}
		} else if err := tx.Model(item).Update("quantity", remaining).Error; err != nil {
			return translate(err, "decrement item")
		}

		result = ConsumeResult{Item: item, Archive: record, Remaining: remaining, Retired: retire}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *inventoryRepo) CountOffers(ctx context.Context, pharmacyID int64) (int64, error) {
	return r.count(ctx, &model.Offer{}, pharmacyID)
}

func (r *inventoryRepo) CountRequests(ctx context.Context, pharmacyID int64) (int64, error) {
	return r.count(ctx, &model.Request{}, pharmacyID)
}

// count counts every row when pharmacyID is 0.
func (r *inventoryRepo) count(ctx context.Context, table interface{}, pharmacyID int64) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(table)
	if pharmacyID != 0 {
		q = q.Where("pharmacy_id = ?", pharmacyID)
	}
	err := q.Count(&n).Error
	return n, translate(err, "count items")
}

func (r *inventoryRepo) TopDrugs(ctx context.Context, kind model.ItemKind, limit int) ([]DrugCount, error) {
	var table interface{} = &model.Offer{}
	if kind == model.KindRequest {
		table = &model.Request{}
	}
	var results []DrugCount
	err := r.db.WithContext(ctx).Model(table).
		Select("english_name AS name, COUNT(*) AS count").
		Group("english_name").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error
	return results, translate(err, "top drugs")
}
