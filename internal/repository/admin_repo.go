package repository

import (
	"context"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	FindByID(ctx context.Context, id uint) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByUID(ctx context.Context, uid string) (*model.Admin, error)
	FindAll(ctx context.Context) ([]model.Admin, error)
	UpdateTokenVersion(ctx context.Context, id uint, version string) error
	Delete(ctx context.Context, id uint) error
}

type adminRepo struct {
	db *gorm.DB
}

func NewAdminRepo(db *gorm.DB) AdminRepository {
	return &adminRepo{db}
}

func (r *adminRepo) Create(ctx context.Context, admin *model.Admin) error {
	admin.Email = model.NormalizeEmail(admin.Email)
	return translate(r.db.WithContext(ctx).Create(admin).Error, "create admin")
}

func (r *adminRepo) FindByID(ctx context.Context, id uint) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, translate(err, "find admin")
	}
	return &admin, nil
}

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).First(&admin, "LOWER(email) = ?", model.NormalizeEmail(email)).Error; err != nil {
		return nil, translate(err, "find admin")
	}
	return &admin, nil
}

func (r *adminRepo) FindByUID(ctx context.Context, uid string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).First(&admin, "uid = ?", uid).Error; err != nil {
		return nil, translate(err, "find admin")
	}
	return &admin, nil
}

func (r *adminRepo) FindAll(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&admins).Error
	return admins, translate(err, "list admins")
}

func (r *adminRepo) UpdateTokenVersion(ctx context.Context, id uint, version string) error {
	err := r.db.WithContext(ctx).Model(&model.Admin{}).Where("id = ?", id).Update("token_version", version).Error
	return translate(err, "update token version")
}

func (r *adminRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Admin{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete admin")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
