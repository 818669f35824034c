package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/internal/catalog"
	"github.com/furnistore/furnistore-backend/pkg/db/models"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines review writes and the derived product rating.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Review, error)
	Edit(ctx context.Context, input EditInput) (*models.Review, error)
	Delete(ctx context.Context, reviewID, actorID uuid.UUID) error
	ListByProduct(ctx context.Context, input ListInput) ([]models.Review, error)
}

type service struct {
	repo    *Repository
	catalog *catalog.Repository
	tx      txRunner
	metrics *metrics.CoreMetrics
}

// NewService builds a review service with the required dependencies.
func NewService(repo *Repository, catalogRepo *catalog.Repository, tx txRunner, core *metrics.CoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		tx:      tx,
		metrics: core,
	}, nil
}

func validateStar(star float64) error {
	if star < 1 || star > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "star must be between 1 and 5")
	}
	return nil
}

// RecordInput is one new review.
type RecordInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	OrderID   *uuid.UUID
	Star      float64
	Message   *string
	Img       []string
	Service   map[string]int
}

// Record inserts the review and refreshes the product average in the same
// transaction.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.Review, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := validateStar(input.Star); err != nil {
		return nil, err
	}

	review := models.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		OrderID:   input.OrderID,
		Star:      input.Star,
		Message:   input.Message,
		Img:       input.Img,
		Service:   input.Service,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.catalog.WithTx(tx).FindByID(ctx, input.ProductID); err != nil {
			return err
		}
		if err := repo.Create(ctx, &review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		if err := repo.RecomputeProductAverage(ctx, input.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReviewWritten()
	return &review, nil
}

// EditInput patches an existing review. Only the author may edit.
type EditInput struct {
	ReviewID uuid.UUID
	ActorID  uuid.UUID
	Star     *float64
	Message  *string
	Img      []string
	Service  map[string]int
}

// Edit updates the review and refreshes the product average when the star
// changed.
func (s *service) Edit(ctx context.Context, input EditInput) (*models.Review, error) {
	if input.ReviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Star != nil {
		if err := validateStar(*input.Star); err != nil {
			return nil, err
		}
	}

	var updated models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := repo.FindByID(ctx, input.ReviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}
		if review.UserID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another user")
		}

		updates := map[string]any{}
		starChanged := false
		if input.Star != nil && *input.Star != review.Star {
			updates["star"] = *input.Star
			review.Star = *input.Star
			starChanged = true
		}
		if input.Message != nil {
			updates["message"] = *input.Message
			review.Message = input.Message
		}
		if input.Img != nil {
			updates["img"] = input.Img
			review.Img = input.Img
		}
		if input.Service != nil {
			updates["service"] = input.Service
			review.Service = input.Service
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, review.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
			}
		}
		if starChanged {
			if err := repo.RecomputeProductAverage(ctx, review.ProductID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
			}
		}
		updated = *review
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReviewWritten()
	return &updated, nil
}

// Delete removes the review and refreshes the product average. Only the
// author may delete.
func (s *service) Delete(ctx context.Context, reviewID, actorID uuid.UUID) error {
	if reviewID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := repo.FindByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}
		if review.UserID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another user")
		}
		if err := repo.Delete(ctx, reviewID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		return repo.RecomputeProductAverage(ctx, review.ProductID)
	})
	if err != nil {
		return err
	}

	s.metrics.IncReviewWritten()
	return nil
}

// ListInput narrows the review listing.
type ListInput struct {
	ProductID  uuid.UUID
	SortKey    string
	Descending bool
}

// ListByProduct returns a product's reviews ordered by an allow-listed sort
// key; unknown keys are rejected rather than silently defaulted.
func (s *service) ListByProduct(ctx context.Context, input ListInput) ([]models.Review, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.SortKey == "" {
		input.SortKey = "created_at"
		input.Descending = true
	}
	if !IsAllowedSortKey(input.SortKey) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort key").
			WithDetails(map[string]any{"sort": input.SortKey})
	}

	list, err := s.repo.ListByProduct(ctx, input.ProductID, input.SortKey, input.Descending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}
