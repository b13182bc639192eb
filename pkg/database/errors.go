package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.InsufficientStock("batch quantity cannot go negative")

	case strings.Contains(constraint, "txn_type_valid"):
		return errors.Validation(map[string]string{
			"txn_type": "must be one of: IN, OUT, ADJUST",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: Pending, Partially Completed, Completed",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "orders_item_mart_date"):
		return "an order already exists for this item, mart, and date"
	case strings.Contains(constraint, "dispatch_batch_mart_date"):
		return "a dispatch entry already exists for this batch, mart, and date"
	case strings.Contains(constraint, "items_name"):
		return "an item with this name already exists"
	case strings.Contains(constraint, "uoms_code"):
		return "a unit of measure with this code already exists"
	case strings.Contains(constraint, "conversions_item_units"):
		return "a conversion mapping already exists for this item and unit pair"
	default:
		return "a record with these values already exists"
	}
}
