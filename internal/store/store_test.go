package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/coatworks/internal/catalog"
	"github.com/Simplici0/coatworks/internal/db"
	"github.com/Simplici0/coatworks/internal/measure"
	"github.com/Simplici0/coatworks/internal/migrations"
	"github.com/Simplici0/coatworks/internal/pricing"
	"github.com/Simplici0/coatworks/internal/quotation"
)

func newStoreTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, migrations.Up(database))
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// fixedClock hands out times one minute apart, starting at start.
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func sampleSnapshot(customer string, kind quotation.Kind) quotation.DocumentSnapshot {
	return quotation.DocumentSnapshot{
		Header: quotation.Header{
			Kind:          kind,
			CustomerName:  customer,
			ContactNumber: "9800000000",
			Address:       "12 Mill Road",
			QuoteDate:     "2024-03-01",
			ValidUntil:    "2024-03-31",
			Remarks:       "deliver before noon",
		},
		Lines: []quotation.LineSnapshot{{
			ProductID:       2,
			ProductName:     "Section 40x40",
			ProductType:     catalog.MainTypeRegular,
			CalculationType: catalog.CalculationSqFeet,
			Quantity:        74,
			UnitPrice:       120,
			TaxPercentage:   measure.Float(18),
			Price:           123.45,
			FinalPrice:      999.99,
			Measurements: []measure.Row{{
				Input:   measure.Input{Feet: measure.Float(10), Inch: measure.Float(6), Nos: measure.Int(2)},
				Derived: measure.Derived{RunningFeet: 21, SqFeet: 73.5, Weight: 10.5},
			}},
		}},
		Totals: pricing.Totals{Price: 123.45, Tax: 22.22, FinalPrice: 999.99},
	}
}

func TestCreateAndGetReturnSnapshotAsSaved(t *testing.T) {
	ctx := context.Background()
	s := New(newStoreTestDB(t))

	created, err := s.Create(ctx, sampleSnapshot("Acme", quotation.KindQuotation))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Len(t, created.Reference, 36)
	assert.Equal(t, quotation.StatusQuote, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CustomerName)
	assert.Equal(t, "deliver before noon", got.Remarks)
	assert.Nil(t, got.CustomerID)
	require.Len(t, got.Lines, 1)
	// stored values come back without recalculation
	assert.Equal(t, 123.45, got.Lines[0].Price)
	assert.Equal(t, 999.99, got.Totals.FinalPrice)
	require.Len(t, got.Lines[0].Measurements, 1)
	assert.Equal(t, 21.0, got.Lines[0].Measurements[0].RunningFeet)
	assert.Equal(t, 6.0, *got.Lines[0].Measurements[0].Inch)
}

func TestUpdateKeepsReference(t *testing.T) {
	ctx := context.Background()
	s := New(newStoreTestDB(t))
	created, err := s.Create(ctx, sampleSnapshot("Acme", quotation.KindQuotation))
	require.NoError(t, err)

	changed := sampleSnapshot("Acme Glazing", quotation.KindQuotation)
	customerID := int64(7)
	changed.CustomerID = &customerID
	changed.Totals.FinalPrice = 10
	changed.Reference = "ignored"

	updated, err := s.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, created.Reference, updated.Reference)
	assert.Equal(t, "Acme Glazing", updated.CustomerName)
	require.NotNil(t, updated.CustomerID)
	assert.Equal(t, int64(7), *updated.CustomerID)
	assert.Equal(t, 10.0, updated.Totals.FinalPrice)

	_, err = s.Update(ctx, 999, changed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	ctx := context.Background()
	s := New(newStoreTestDB(t)).WithClock(fixedClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

	for _, name := range []string{"Primera", "Segunda", "Tercera"} {
		_, err := s.Create(ctx, sampleSnapshot(name, quotation.KindQuotation))
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, sampleSnapshot("Supplier Co", quotation.KindPurchase))
	require.NoError(t, err)

	quotes, err := s.List(ctx, ListParams{Kind: quotation.KindQuotation})
	require.NoError(t, err)
	require.Equal(t, 3, quotes.Total)
	require.Len(t, quotes.Items, 3)
	assert.Equal(t, "Tercera", quotes.Items[0].CustomerName)
	assert.Equal(t, "Segunda", quotes.Items[1].CustomerName)
	assert.Equal(t, "Primera", quotes.Items[2].CustomerName)
	assert.Equal(t, 999.99, quotes.Items[0].FinalPrice)

	searched, err := s.List(ctx, ListParams{Query: "segu"})
	require.NoError(t, err)
	require.Len(t, searched.Items, 1)
	assert.Equal(t, "Segunda", searched.Items[0].CustomerName)

	paged, err := s.List(ctx, ListParams{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, paged.Total)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, "Primera", paged.Items[0].CustomerName)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New(newStoreTestDB(t))
	created, err := s.Create(ctx, sampleSnapshot("Acme", quotation.KindQuotation))
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, created.ID, quotation.StatusAccepted))
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, quotation.StatusAccepted, got.Status)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, created.ID), ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, created.ID, quotation.StatusDeclined), ErrNotFound)
}

func TestListClampsPageSize(t *testing.T) {
	ctx := context.Background()
	s := New(newStoreTestDB(t))
	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, sampleSnapshot("Acme", quotation.KindQuotation))
		require.NoError(t, err)
	}

	capped, err := s.List(ctx, ListParams{PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPerPage, capped.PerPage)
	assert.Len(t, capped.Items, 3)

	fallback, err := s.List(ctx, ListParams{PerPage: 0})
	require.NoError(t, err)
	assert.Equal(t, defaultPerPage, fallback.PerPage)
}
