package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/flexprice/billrun/internal/errors"
	"github.com/flexprice/billrun/internal/types"
)

func testItem(amount string, currency string) *LineItem {
	return &LineItem{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
		SubscriptionID: "sub-1",
		Type:           types.InvoiceItemTypeRecurring,
		PlanName:       "shotgun-monthly",
		StartDate:      types.MustParseDate("2012-01-16"),
		Amount:         decimal.RequireFromString(amount),
		Currency:       currency,
	}
}

func TestNewDraft(t *testing.T) {
	items := []*LineItem{testItem("10", "USD"), testItem("5.50", "USD")}

	inv, err := NewDraft("acct-1", types.MustParseDate("2012-02-16"), types.MustParseDate("2012-02-16"), items)
	require.NoError(t, err)

	assert.Equal(t, types.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.NotEmpty(t, inv.ID)
	assert.NotEmpty(t, inv.InvoiceNumber)
	assert.True(t, inv.Total().Equal(decimal.RequireFromString("15.50")), "got %s", inv.Total())

	// Items are stamped with the invoice and account ids.
	for _, item := range inv.LineItems {
		assert.Equal(t, inv.ID, item.InvoiceID)
		assert.Equal(t, "acct-1", item.AccountID)
	}
}

func TestNewDraftEmptyItems(t *testing.T) {
	_, err := NewDraft("acct-1", types.MustParseDate("2012-02-16"), types.MustParseDate("2012-02-16"), nil)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestNewDraftMixedCurrencies(t *testing.T) {
	items := []*LineItem{testItem("10", "USD"), testItem("5", "EUR")}

	_, err := NewDraft("acct-1", types.MustParseDate("2012-02-16"), types.MustParseDate("2012-02-16"), items)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	// A failed draft leaves no candidate stamped.
	for _, item := range items {
		assert.Empty(t, item.InvoiceID)
		assert.Empty(t, item.AccountID)
	}
}

func TestNewDraftInvalidItemLeavesCandidatesUntouched(t *testing.T) {
	good := testItem("10", "USD")
	bad := testItem("-5", "USD")

	_, err := NewDraft("acct-1", types.MustParseDate("2012-02-16"), types.MustParseDate("2012-02-16"), []*LineItem{good, bad})
	require.Error(t, err)
	assert.Empty(t, good.InvoiceID)
	assert.Empty(t, good.AccountID)
}

func TestLineItemValidate(t *testing.T) {
	valid := testItem("10", "USD")
	require.NoError(t, valid.Validate())

	negative := testItem("-10", "USD")
	assert.Error(t, negative.Validate())

	// Adjustments are the only item types allowed to carry credits.
	adjustment := testItem("-10", "USD")
	adjustment.Type = types.InvoiceItemTypeItemAdj
	assert.NoError(t, adjustment.Validate())

	usage := testItem("10", "USD")
	usage.Type = types.InvoiceItemTypeUsage
	assert.Error(t, usage.Validate())
	usage.UsageName = "api-calls"
	assert.NoError(t, usage.Validate())

	inverted := testItem("10", "USD")
	end := types.MustParseDate("2012-01-01")
	inverted.EndDate = &end
	assert.Error(t, inverted.Validate())
}

func TestCoversSameUsageRange(t *testing.T) {
	start := types.MustParseDate("2012-01-16")
	end := types.MustParseDate("2012-02-16")
	item := &LineItem{
		SubscriptionID: "sub-1",
		Type:           types.InvoiceItemTypeUsage,
		UsageName:      "api-calls",
		StartDate:      start,
		EndDate:        &end,
	}

	assert.True(t, item.CoversSameUsageRange("sub-1", "api-calls", start, &end))
	assert.False(t, item.CoversSameUsageRange("sub-2", "api-calls", start, &end))
	assert.False(t, item.CoversSameUsageRange("sub-1", "bandwidth", start, &end))

	otherEnd := types.MustParseDate("2012-03-16")
	assert.False(t, item.CoversSameUsageRange("sub-1", "api-calls", start, &otherEnd))
	assert.False(t, item.CoversSameUsageRange("sub-1", "api-calls", start, nil))

	recurring := &LineItem{
		SubscriptionID: "sub-1",
		Type:           types.InvoiceItemTypeRecurring,
		StartDate:      start,
		EndDate:        &end,
	}
	assert.False(t, recurring.CoversSameUsageRange("sub-1", "api-calls", start, &end))
}
