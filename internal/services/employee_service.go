package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qasimdev/sijill/internal/models"
	"github.com/qasimdev/sijill/internal/repositories"
	"github.com/qasimdev/sijill/internal/utils"
)

type EmployeeService interface {
	Create(ctx context.Context, actor string, e *models.Employee) error
	Get(ctx context.Context, actor string, id uint) (*models.Employee, error)
	Update(ctx context.Context, actor string, e *models.Employee) error
	Search(ctx context.Context, actor string, q, specialty string) ([]models.Employee, error)
}

type employeeService struct {
	employees repositories.EmployeeRepository
}

func NewEmployeeService(employees repositories.EmployeeRepository) EmployeeService {
	return &employeeService{employees: employees}
}

func requireActor(op, actor string) error {
	if strings.TrimSpace(actor) == "" {
		return utils.E(utils.CodeUnauthenticated, op, "authentication required", nil)
	}
	return nil
}

func (s *employeeService) Create(ctx context.Context, actor string, e *models.Employee) error {
	const op = "EmployeeService.Create"

	if err := requireActor(op, actor); err != nil {
		return err
	}
	if e == nil || strings.TrimSpace(e.Name) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "employee name is required", nil)
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.employees.Create(ctx, e); err != nil {
		return utils.E(utils.CodeMetadataWriteFailed, op, "failed to create employee", err)
	}
	return nil
}

func (s *employeeService) Get(ctx context.Context, actor string, id uint) (*models.Employee, error) {
	const op = "EmployeeService.Get"

	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeEmployeeNotFound, op, "employee not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get employee", err)
	}
	return e, nil
}

func (s *employeeService) Update(ctx context.Context, actor string, e *models.Employee) error {
	const op = "EmployeeService.Update"

	if err := requireActor(op, actor); err != nil {
		return err
	}
	if e == nil || e.ID == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "employee id is required", nil)
	}
	if strings.TrimSpace(e.Name) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "employee name is required", nil)
	}

	exists, err := s.employees.Exists(ctx, e.ID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to check employee", err)
	}
	if !exists {
		return utils.E(utils.CodeEmployeeNotFound, op, "employee not found", nil)
	}

	e.UpdatedAt = time.Now().UTC()
	if err := s.employees.Update(ctx, e); err != nil {
		return utils.E(utils.CodeMetadataWriteFailed, op, "failed to update employee", err)
	}
	return nil
}

func (s *employeeService) Search(ctx context.Context, actor string, q, specialty string) ([]models.Employee, error) {
	const op = "EmployeeService.Search"

	if err := requireActor(op, actor); err != nil {
		return nil, err
	}

	out, err := s.employees.Search(ctx, strings.TrimSpace(q), strings.TrimSpace(specialty))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to search employees", err)
	}
	return out, nil
}
