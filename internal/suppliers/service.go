package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines supplier reference-data management.
type Service interface {
	Create(ctx context.Context, input UpsertInput) (*models.Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context, search string) ([]models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds a supplier service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// UpsertInput carries supplier fields for create and update.
type UpsertInput struct {
	Name          string
	Email         *string
	Phone         *string
	Address       *string
	ContactPerson *string
	TaxCode       *string
	BankAccount   *string
	BankName      *string
	Note          *string
}

// Create inserts a supplier; the name must be unique.
func (s *service) Create(ctx context.Context, input UpsertInput) (*models.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}

	supplier := models.Supplier{
		ID:            uuid.New(),
		Name:          name,
		Email:         input.Email,
		Phone:         input.Phone,
		Address:       input.Address,
		ContactPerson: input.ContactPerson,
		TaxCode:       input.TaxCode,
		BankAccount:   input.BankAccount,
		BankName:      input.BankName,
		Note:          input.Note,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByName(ctx, name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "supplier name already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check supplier name")
		}
		if err := repo.Create(ctx, &supplier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Get loads one supplier.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

// List returns suppliers ordered by name.
func (s *service) List(ctx context.Context, search string) ([]models.Supplier, error) {
	list, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return list, nil
}

// Update patches supplier fields; renaming onto an existing name conflicts.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}

	var updated models.Supplier
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		supplier, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}

		updates := map[string]any{}
		if name := strings.TrimSpace(input.Name); name != "" && name != supplier.Name {
			if _, err := repo.FindByName(ctx, name); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "supplier name already exists")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check supplier name")
			}
			updates["name"] = name
			supplier.Name = name
		}
		assign := func(column string, value *string, target **string) {
			if value != nil {
				updates[column] = *value
				*target = value
			}
		}
		assign("email", input.Email, &supplier.Email)
		assign("phone", input.Phone, &supplier.Phone)
		assign("address", input.Address, &supplier.Address)
		assign("contact_person", input.ContactPerson, &supplier.ContactPerson)
		assign("tax_code", input.TaxCode, &supplier.TaxCode)
		assign("bank_account", input.BankAccount, &supplier.BankAccount)
		assign("bank_name", input.BankName, &supplier.BankName)
		assign("note", input.Note, &supplier.Note)

		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
			}
		}
		updated = *supplier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a supplier. Ledger entries keep their supplier_id; history
// is never rewritten.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	return nil
}
