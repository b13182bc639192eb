package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/pkg/actor"
	"github.com/freshtrack/freshtrack-backend/pkg/database"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
	"github.com/freshtrack/freshtrack-backend/pkg/logger"
)

// CatalogService manages the reference data the movement flows depend on:
// items, units of measure and conversion mappings.
type CatalogService struct {
	db          *database.DB
	items       *repository.ItemRepository
	uoms        *repository.UOMRepository
	conversions *repository.ConversionRepository
	logger      *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	db *database.DB,
	items *repository.ItemRepository,
	uoms *repository.UOMRepository,
	conversions *repository.ConversionRepository,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		db:          db,
		items:       items,
		uoms:        uoms,
		conversions: conversions,
		logger:      log.WithComponent("catalog-service"),
	}
}

// ItemInput is the input for creating an item
type ItemInput struct {
	Name        string
	ItemCode    *string
	DefaultUnit *string
}

// ItemUpdate carries the editable fields of an item. Nil means "leave unchanged".
type ItemUpdate struct {
	Name        *string
	ItemCode    *string
	DefaultUnit *string
}

// CreateItem creates a new item. Names are unique.
func (s *CatalogService) CreateItem(ctx context.Context, in *ItemInput) (*repository.Item, error) {
	user := actor.FromContext(ctx)

	item := &repository.Item{
		Name:        in.Name,
		ItemCode:    in.ItemCode,
		DefaultUnit: in.DefaultUnit,
		CreatedBy:   user,
		UpdatedBy:   user,
	}
	if err := s.items.Create(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns an item by ID
func (s *CatalogService) GetItem(ctx context.Context, id string) (*repository.Item, error) {
	return s.items.GetByID(ctx, s.db, id)
}

// ListItems lists all items
func (s *CatalogService) ListItems(ctx context.Context) ([]*repository.Item, error) {
	return s.items.List(ctx, s.db)
}

// UpdateItem applies a partial edit to an item
func (s *CatalogService) UpdateItem(ctx context.Context, id string, upd *ItemUpdate) (*repository.Item, error) {
	user := actor.FromContext(ctx)

	var item *repository.Item
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		item, err = s.items.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			item.Name = *upd.Name
		}
		if upd.ItemCode != nil {
			item.ItemCode = upd.ItemCode
		}
		if upd.DefaultUnit != nil {
			item.DefaultUnit = upd.DefaultUnit
		}
		item.UpdatedBy = user

		return s.items.Update(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem deletes an item
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	return s.items.Delete(ctx, s.db, id)
}

// UoMInput is the input for creating a unit of measure
type UoMInput struct {
	Code        string
	Description *string
}

// CreateUoM creates a new unit of measure. Codes are unique.
func (s *CatalogService) CreateUoM(ctx context.Context, in *UoMInput) (*repository.UnitOfMeasure, error) {
	user := actor.FromContext(ctx)

	uom := &repository.UnitOfMeasure{
		Code:        in.Code,
		Description: in.Description,
		CreatedBy:   user,
		UpdatedBy:   user,
	}
	if err := s.uoms.Create(ctx, s.db, uom); err != nil {
		return nil, err
	}
	return uom, nil
}

// ListUoMs lists all units of measure
func (s *CatalogService) ListUoMs(ctx context.Context) ([]*repository.UnitOfMeasure, error) {
	return s.uoms.List(ctx, s.db)
}

// DeleteUoM deletes a unit of measure
func (s *CatalogService) DeleteUoM(ctx context.Context, id string) error {
	return s.uoms.Delete(ctx, s.db, id)
}

// ConversionInput is the input for creating a conversion mapping
type ConversionInput struct {
	ItemID     string
	SourceUnit string
	TargetUnit string
	Factor     float64
}

// CreateConversion creates a conversion mapping for an item. The factor must
// be non-zero so the reverse direction can be derived by inversion.
func (s *CatalogService) CreateConversion(ctx context.Context, in *ConversionInput) (*repository.ConversionMapping, error) {
	user := actor.FromContext(ctx)

	if in.Factor == 0 {
		return nil, errors.BadRequest("conversion factor must be non-zero")
	}
	if in.SourceUnit == in.TargetUnit {
		return nil, errors.BadRequest("source and target units must differ")
	}

	var conv *repository.ConversionMapping
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.items.GetByID(ctx, tx, in.ItemID); err != nil {
			return err
		}

		conv = &repository.ConversionMapping{
			ItemID:     in.ItemID,
			SourceUnit: in.SourceUnit,
			TargetUnit: in.TargetUnit,
			Factor:     in.Factor,
			CreatedBy:  user,
			UpdatedBy:  user,
		}
		return s.conversions.Create(ctx, tx, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversions lists conversion mappings, optionally filtered by item
func (s *CatalogService) ListConversions(ctx context.Context, itemID string) ([]*repository.ConversionMapping, error) {
	if itemID != "" {
		return s.conversions.ListByItem(ctx, s.db, itemID)
	}
	return s.conversions.List(ctx, s.db)
}

// UpdateConversionFactor updates the factor of a conversion mapping
func (s *CatalogService) UpdateConversionFactor(ctx context.Context, id string, factor float64) (*repository.ConversionMapping, error) {
	user := actor.FromContext(ctx)

	if factor == 0 {
		return nil, errors.BadRequest("conversion factor must be non-zero")
	}

	var conv *repository.ConversionMapping
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		conv, err = s.conversions.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		conv.Factor = factor
		conv.UpdatedBy = user
		return s.conversions.Update(ctx, tx, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// DeleteConversion deletes a conversion mapping
func (s *CatalogService) DeleteConversion(ctx context.Context, id string) error {
	return s.conversions.Delete(ctx, s.db, id)
}
