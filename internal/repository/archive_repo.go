package repository

import (
	"context"
	"time"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
)

type ArchiveRepository interface {
	// ListByPharmacy returns the pharmacy's archive since the given time, newest first. A zero since means all.
	ListByPharmacy(ctx context.Context, pharmacyID int64, since time.Time) ([]model.ArchiveRecord, error)
	Recent(ctx context.Context, pharmacyID int64, limit int) ([]model.ArchiveRecord, error)
	CountByPharmacy(ctx context.Context, pharmacyID int64) (int64, error)
	CountByPharmacies(ctx context.Context, ids []int64) (map[int64]int64, error)
	CountAll(ctx context.Context) (int64, error)
	SoldQuantity(ctx context.Context, pharmacyID int64, actions []model.ActionType, from, to time.Time) (int64, error)
	DailyCounts(ctx context.Context, pharmacyID int64, from, to time.Time) ([]DailyCount, error)
}

// DailyCount is one bar of the archive activity chart.
type DailyCount struct {
	Date     string `json:"date"`
	Count    int64  `json:"count"`
	Quantity int64  `json:"quantity"`
}

type archiveRepo struct {
	db *gorm.DB
}

func NewArchiveRepo(db *gorm.DB) ArchiveRepository {
	return &archiveRepo{db}
}

func (r *archiveRepo) ListByPharmacy(ctx context.Context, pharmacyID int64, since time.Time) ([]model.ArchiveRecord, error) {
	var records []model.ArchiveRecord
	q := r.db.WithContext(ctx).Where("pharmacy_id = ?", pharmacyID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Order("created_at DESC").Find(&records).Error
	return records, translate(err, "list archive")
}

func (r *archiveRepo) Recent(ctx context.Context, pharmacyID int64, limit int) ([]model.ArchiveRecord, error) {
	var records []model.ArchiveRecord
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, translate(err, "recent archive")
}

func (r *archiveRepo) CountByPharmacy(ctx context.Context, pharmacyID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ArchiveRecord{}).Where("pharmacy_id = ?", pharmacyID).Count(&n).Error
	return n, translate(err, "count archive")
}

func (r *archiveRepo) CountByPharmacies(ctx context.Context, ids []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	rows, err := r.db.WithContext(ctx).Model(&model.ArchiveRecord{}).
		Select("pharmacy_id, COUNT(*)").
		Where("pharmacy_id IN ?", ids).
		Group("pharmacy_id").
		Rows()
	if err != nil {
		return nil, translate(err, "count archive")
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, translate(err, "scan archive count")
		}
		counts[id] = n
	}
	return counts, translate(rows.Err(), "count archive")
}

func (r *archiveRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ArchiveRecord{}).Count(&n).Error
	return n, translate(err, "count archive")
}

func (r *archiveRepo) SoldQuantity(ctx context.Context, pharmacyID int64, actions []model.ActionType, from, to time.Time) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.ArchiveRecord{}).
		Where("pharmacy_id = ? AND action_type IN ?", pharmacyID, actions)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	err := q.Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error
	return total, translate(err, "sold quantity")
}

func (r *archiveRepo) DailyCounts(ctx context.Context, pharmacyID int64, from, to time.Time) ([]DailyCount, error) {
	var results []DailyCount

	rows, err := r.db.WithContext(ctx).Model(&model.ArchiveRecord{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COUNT(*) as count,
			COALESCE(SUM(quantity), 0) as quantity
		`).
		Where("pharmacy_id = ? AND created_at BETWEEN ? AND ?", pharmacyID, from, to).
		Group("DATE(created_at)").
		Order("DATE(created_at) ASC").
		Rows()
	if err != nil {
		return nil, translate(err, "daily archive counts")
	}
	defer rows.Close()

	for rows.Next() {
		var data DailyCount
		if err := rows.Scan(&data.Date, &data.Count, &data.Quantity); err != nil {
			return nil, translate(err, "scan daily count")
		}
		results = append(results, data)
	}
	return results, nil
}
