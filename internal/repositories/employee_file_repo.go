package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qasimdev/sijill/internal/models"
	"github.com/qasimdev/sijill/internal/utils"
)

type EmployeeFileRepository interface {
	Insert(ctx context.Context, f *models.EmployeeFile) error
	GetByID(ctx context.Context, id uint) (*models.EmployeeFile, error)
	ListByEmployee(ctx context.Context, employeeID uint) ([]models.EmployeeFile, error)
	Delete(ctx context.Context, id uint) error
	DeleteAllForEmployee(ctx context.Context, employeeID uint) error
}

type employeeFileRepo struct {
	db *gorm.DB
}

func NewEmployeeFileRepo(db *gorm.DB) EmployeeFileRepository {
	return &employeeFileRepo{db: db}
}

func (r *employeeFileRepo) Insert(ctx context.Context, f *models.EmployeeFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *employeeFileRepo) GetByID(ctx context.Context, id uint) (*models.EmployeeFile, error) {
	var f models.EmployeeFile
	err := r.db.WithContext(ctx).Take(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &f, err
}

func (r *employeeFileRepo) ListByEmployee(ctx context.Context, employeeID uint) ([]models.EmployeeFile, error) {
	var out []models.EmployeeFile
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("uploaded_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *employeeFileRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.EmployeeFile{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *employeeFileRepo) DeleteAllForEmployee(ctx context.Context, employeeID uint) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Delete(&models.EmployeeFile{}).Error
}
