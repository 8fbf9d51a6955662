package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qasimdev/sijill/internal/models"
	"github.com/qasimdev/sijill/internal/utils"
)

type EmployeeRepository interface {
	Create(ctx context.Context, e *models.Employee) error
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, e *models.Employee) error
	SetCVFilename(ctx context.Context, id uint, filename string) error
	Search(ctx context.Context, q, specialty string) ([]models.Employee, error)
	Delete(ctx context.Context, id uint) error
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, e *models.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	err := r.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC, id ASC")
		}).
		Take(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}

func (r *employeeRepo) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *employeeRepo) Update(ctx context.Context, e *models.Employee) error {
	return r.db.WithContext(ctx).
		Model(&models.Employee{ID: e.ID}).
		Select("name", "specialty", "hire_date", "qualification",
			"courses", "experience", "certificates_text", "updated_at").
		Updates(e).Error
}

func (r *employeeRepo) SetCVFilename(ctx context.Context, id uint, filename string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Update("cv_filename", filename)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *employeeRepo) Search(ctx context.Context, q, specialty string) ([]models.Employee, error) {
	tx := r.db.WithContext(ctx).Model(&models.Employee{})
	if q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name LIKE ? OR qualification LIKE ?", like, like)
	}
	if specialty != "" {
		tx = tx.Where("specialty LIKE ?", "%"+specialty+"%")
	}

	var out []models.Employee
	err := tx.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *employeeRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
