package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

func TestGlAccountLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateGlAccount(ctx, ledger.GlAccount{
		GlAccountTypeID:  "BANK_ACCOUNT",
		GlAccountClassID: ledger.ClassCash,
		AccountCode:      "1100",
		AccountName:      "Main Bank",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.GlAccountID)

	got, err := s.GetGlAccount(ctx, created.GlAccountID)
	require.NoError(t, err)
	assert.Equal(t, "Main Bank", got.AccountName)

	got.AccountName = "Operating Bank"
	updated, err := s.UpdateGlAccount(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Operating Bank", updated.AccountName)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = s.GetGlAccount(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListGlAccountsScopedToOrganization(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.CreateGlAccount(ctx, ledger.GlAccount{GlAccountTypeID: "SALES", GlAccountClassID: ledger.ClassRevenue, AccountCode: "4000", AccountName: "Sales"})
	require.NoError(t, err)
	b, err := s.CreateGlAccount(ctx, ledger.GlAccount{GlAccountTypeID: "COGS_ACCOUNT", GlAccountClassID: ledger.ClassExpense, AccountCode: "5000", AccountName: "COGS"})
	require.NoError(t, err)

	require.NoError(t, s.AssignGlAccountToOrganization(ctx, ledger.GlAccountOrganization{
		GlAccountID: a.GlAccountID, OrganizationPartyID: "Company", FromDate: time.Now(),
	}))

	scoped, err := s.ListGlAccounts(ctx, "Company")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, a.GlAccountID, scoped[0].GlAccountID)

	all, err := s.ListGlAccounts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_ = b
}

func TestSeededLookupRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	types, err := s.ListGlAccountTypes(ctx)
	require.NoError(t, err)
	byID := map[string]string{}
	for _, ty := range types {
		byID[ty.GlAccountTypeID] = ty.Description
	}
	assert.Equal(t, "Accounts Receivable", byID["ACCTS_REC"])
	assert.Equal(t, "Accounts Payable", byID["ACCTS_PAY"])

	classes, err := s.ListGlAccountClasses(ctx)
	require.NoError(t, err)
	for _, c := range classes {
		switch c.GlAccountClassID {
		case ledger.ClassAsset, ledger.ClassCash, ledger.ClassExpense:
			assert.True(t, c.IsDebit, c.GlAccountClassID)
		default:
			assert.False(t, c.IsDebit, c.GlAccountClassID)
		}
	}
}

func TestCreateTransactionAssignsEntrySequence(t *testing.T) {
	s := New()
	ctx := context.Background()

	trans, err := s.CreateTransaction(ctx, ledger.AcctgTrans{
		OrganizationPartyID: "Company",
		AcctgTransTypeID:    "INTERNAL_ACCTG_TRANS",
		GlFiscalTypeID:      ledger.FiscalTypeActual,
		TransactionDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}, []ledger.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: ledger.Debit, Amount: decimal.NewFromInt(100)},
		{GlAccountID: "4000", DebitCreditFlag: ledger.Credit, Amount: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	entries, err := s.ListEntries(ctx, trans.AcctgTransID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].SeqID)
	assert.Equal(t, 2, entries[1].SeqID)
	assert.Equal(t, trans.AcctgTransID, entries[0].AcctgTransID)
}

func TestListTransactionsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	mk := func(org string, day int, posted bool) {
		trans := ledger.AcctgTrans{
			OrganizationPartyID: org,
			GlFiscalTypeID:      ledger.FiscalTypeActual,
			TransactionDate:     time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
			IsPosted:            posted,
		}
		_, err := s.CreateTransaction(ctx, trans, []ledger.AcctgTransEntry{
			{GlAccountID: "1100", DebitCreditFlag: ledger.Debit, Amount: decimal.NewFromInt(1)},
			{GlAccountID: "4000", DebitCreditFlag: ledger.Credit, Amount: decimal.NewFromInt(1)},
		})
		require.NoError(t, err)
	}
	mk("Company", 5, true)
	mk("Company", 20, false)
	mk("Other", 5, true)

	posted := true
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	thru := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	out, err := s.ListTransactions(ctx, storage.TransFilter{
		OrganizationPartyID: "Company",
		IsPosted:            &posted,
		FromDate:            &from,
		ThruDate:            &thru,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Company", out[0].OrganizationPartyID)
	assert.True(t, out[0].IsPosted)
}

func TestListLedgerLinesByAccount(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateTransaction(ctx, ledger.AcctgTrans{
		OrganizationPartyID: "Company",
		GlFiscalTypeID:      ledger.FiscalTypeActual,
		TransactionDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		IsPosted:            true,
	}, []ledger.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: ledger.Debit, Amount: decimal.NewFromInt(250)},
		{GlAccountID: "4000", DebitCreditFlag: ledger.Credit, Amount: decimal.NewFromInt(250)},
	})
	require.NoError(t, err)

	lines, err := s.ListLedgerLines(ctx, storage.EntryFilter{OrganizationPartyID: "Company", GlAccountID: "1100"})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "1100", lines[0].Entry.GlAccountID)
	assert.True(t, lines[0].IsPosted)
}

type closerFunc func(ctx context.Context, orgID, periodID string) error

func (f closerFunc) CloseFinancialTimePeriod(ctx context.Context, orgID, periodID string) error {
	return f(ctx, orgID, periodID)
}

func TestCloseTimePeriod(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreateTimePeriod(ctx, period.CustomTimePeriod{
		OrganizationPartyID: "Company",
		PeriodTypeID:        period.TypeFiscalMonth,
		PeriodNum:           1,
		FromDate:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ThruDate:            time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	closed, err := s.CloseTimePeriod(ctx, "Company", p.CustomTimePeriodID, closerFunc(func(context.Context, string, string) error {
		return nil
	}))
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	require.NotNil(t, closed.ClosedDate)
}

func TestCloseTimePeriodRollsBackOnCloserError(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreateTimePeriod(ctx, period.CustomTimePeriod{
		OrganizationPartyID: "Company",
		PeriodTypeID:        period.TypeFiscalMonth,
		PeriodNum:           2,
		FromDate:            time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		ThruDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	boom := errors.New("ledger close failed")
	_, err = s.CloseTimePeriod(ctx, "Company", p.CustomTimePeriodID, closerFunc(func(context.Context, string, string) error {
		return boom
	}))
	require.ErrorIs(t, err, boom)

	got, err := s.GetTimePeriod(ctx, p.CustomTimePeriodID)
	require.NoError(t, err)
	assert.False(t, got.IsClosed)
	assert.Nil(t, got.ClosedDate)
}

func TestMappingRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	m := mapping.Mapping{
		Kind:                mapping.KindParty,
		OrganizationPartyID: "Company10",
		PartyID:             "10000",
		RoleTypeID:          "CUSTOMER",
		GlAccountTypeID:     "ACCTS_REC",
		GlAccountID:         "1200",
	}
	_, err := s.SaveMapping(ctx, m)
	require.NoError(t, err)

	got, err := s.GetMapping(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "1200", got.GlAccountID)

	list, err := s.ListMappings(ctx, mapping.KindParty, "Company10")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteMapping(ctx, m))
	_, err = s.GetMapping(ctx, m)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteMappingMissingRowLeavesStoreUntouched(t *testing.T) {
	s := New()
	ctx := context.Background()

	existing := mapping.Mapping{
		Kind:                mapping.KindCreditCardType,
		OrganizationPartyID: "Company",
		CardType:            "VISA",
		GlAccountID:         "2100",
	}
	_, err := s.SaveMapping(ctx, existing)
	require.NoError(t, err)

	missing := mapping.Mapping{
		Kind:                mapping.KindParty,
		OrganizationPartyID: "Company10",
		PartyID:             "10000",
		RoleTypeID:          "CUSTOMER",
		GlAccountTypeID:     "ACCTS_REC",
	}
	err = s.DeleteMapping(ctx, missing)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "record not found")
	assert.Equal(t, 1, s.MappingCount())
}

func TestDeleteMappingRejectsEmptyKeyField(t *testing.T) {
	s := New()

	err := s.DeleteMapping(context.Background(), mapping.Mapping{
		Kind:                mapping.KindParty,
		OrganizationPartyID: "Company",
		PartyID:             "10000",
		// RoleTypeID missing
		GlAccountTypeID: "ACCTS_REC",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestWorkEffortAssocRequiresBothSides(t *testing.T) {
	s := New()
	ctx := context.Background()

	routing, err := s.CreateWorkEffort(ctx, manufacturing.WorkEffort{
		WorkEffortTypeID: manufacturing.TypeRouting,
		WorkEffortName:   "Assembly",
	})
	require.NoError(t, err)

	err = s.CreateWorkEffortAssoc(ctx, manufacturing.WorkEffortAssoc{
		WorkEffortIDFrom: routing.WorkEffortID,
		WorkEffortIDTo:   "missing",
		SequenceNum:      10,
	})
	assert.True(t, apperrors.IsNotFound(err))

	task, err := s.CreateWorkEffort(ctx, manufacturing.WorkEffort{
		WorkEffortTypeID: manufacturing.TypeRoutingTask,
		WorkEffortName:   "Weld",
	})
	require.NoError(t, err)

	require.NoError(t, s.CreateWorkEffortAssoc(ctx, manufacturing.WorkEffortAssoc{
		WorkEffortIDFrom: routing.WorkEffortID,
		WorkEffortIDTo:   task.WorkEffortID,
		SequenceNum:      10,
	}))

	assocs, err := s.ListWorkEffortAssocs(ctx, routing.WorkEffortID)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	assert.Equal(t, task.WorkEffortID, assocs[0].WorkEffortIDTo)
}

func TestBomDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.CreateBom(ctx, manufacturing.BillOfMaterial{
		ProductID:   "BIKE",
		ProductIDTo: "WHEEL",
		SequenceNum: 10,
		Quantity:    decimal.NewFromInt(2),
		FromDate:    from,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBom(ctx, "BIKE", "WHEEL", from))

	err = s.DeleteBom(ctx, "BIKE", "WHEEL", from)
	assert.True(t, apperrors.IsNotFound(err))
}
