package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/freshtrack-backend/internal/inventory/repository"
	"github.com/freshtrack/freshtrack-backend/internal/inventory/service"
	"github.com/freshtrack/freshtrack-backend/pkg/errors"
)

func TestConversionResolver_SameUnit(t *testing.T) {
	mock, _ := newMockEnv(t)
	defer mock.Close()

	resolver := service.NewConversionResolver(repository.NewConversionRepository())

	factor, err := resolver.Factor(context.Background(), mock.DB, "item-1", "KG", "KG")
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor)

	mock.ExpectationsWereMet(t)
}

func TestConversionResolver_DirectMapping(t *testing.T) {
	mock, _ := newMockEnv(t)
	defer mock.Close()

	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "KG", "EA").
		WillReturnRows(conversionRow("conv-1", "item-1", "KG", "EA", 5))

	resolver := service.NewConversionResolver(repository.NewConversionRepository())

	factor, err := resolver.Factor(context.Background(), mock.DB, "item-1", "KG", "EA")
	require.NoError(t, err)
	assert.Equal(t, 5.0, factor)

	mock.ExpectationsWereMet(t)
}

func TestConversionResolver_ReverseMappingInverted(t *testing.T) {
	mock, _ := newMockEnv(t)
	defer mock.Close()

	// No EA->KG mapping stored, only KG->EA with factor 5. Converting 10 EA
	// must yield 2 KG, i.e. a derived factor of 0.2.
	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "EA", "KG").
		WillReturnError(sql.ErrNoRows)
	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "KG", "EA").
		WillReturnRows(conversionRow("conv-1", "item-1", "KG", "EA", 5))

	resolver := service.NewConversionResolver(repository.NewConversionRepository())

	factor, err := resolver.Factor(context.Background(), mock.DB, "item-1", "EA", "KG")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, factor, 1e-12)

	mock.ExpectationsWereMet(t)
}

func TestConversionResolver_Unavailable(t *testing.T) {
	mock, _ := newMockEnv(t)
	defer mock.Close()

	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "BOX", "KG").
		WillReturnError(sql.ErrNoRows)
	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "KG", "BOX").
		WillReturnError(sql.ErrNoRows)

	resolver := service.NewConversionResolver(repository.NewConversionRepository())

	_, err := resolver.Factor(context.Background(), mock.DB, "item-1", "BOX", "KG")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConversionUnavailable))

	mock.ExpectationsWereMet(t)
}

func TestConversionResolver_ZeroReverseFactorRejected(t *testing.T) {
	mock, _ := newMockEnv(t)
	defer mock.Close()

	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "EA", "KG").
		WillReturnError(sql.ErrNoRows)
	mock.Mock.ExpectQuery("SELECT \\* FROM item_conversions").
		WithArgs("item-1", "KG", "EA").
		WillReturnRows(conversionRow("conv-1", "item-1", "KG", "EA", 0))

	resolver := service.NewConversionResolver(repository.NewConversionRepository())

	_, err := resolver.Factor(context.Background(), mock.DB, "item-1", "EA", "KG")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConversionUnavailable))

	mock.ExpectationsWereMet(t)
}
