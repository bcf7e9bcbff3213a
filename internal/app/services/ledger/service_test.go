package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/storage/memory"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

type capturePublisher struct {
	posted []domain.AcctgTrans
}

func (p *capturePublisher) PublishTransactionPosted(_ context.Context, trans domain.AcctgTrans, _ []domain.AcctgTransEntry) error {
	p.posted = append(p.posted, trans)
	return nil
}

func balancedEntries() []domain.AcctgTransEntry {
	return []domain.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: domain.Debit, Amount: decimal.NewFromInt(500)},
		{GlAccountID: "4000", DebitCreditFlag: domain.Credit, Amount: decimal.NewFromInt(500)},
	}
}

func TestPostBalancedTransaction(t *testing.T) {
	store := memory.New()
	pub := &capturePublisher{}
	svc := New(store, store, pub, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, balancedEntries())
	require.NoError(t, err)
	assert.False(t, draft.IsPosted)

	posted, err := svc.Post(ctx, "Company", draft.AcctgTransID)
	require.NoError(t, err)
	assert.True(t, posted.IsPosted)
	require.NotNil(t, posted.PostedDate)

	require.Len(t, pub.posted, 1)
	assert.Equal(t, draft.AcctgTransID, pub.posted[0].AcctgTransID)
}

func TestPostRejectsUnbalancedEntries(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, []domain.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: domain.Debit, Amount: decimal.NewFromInt(500)},
		{GlAccountID: "4000", DebitCreditFlag: domain.Credit, Amount: decimal.NewFromInt(300)},
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, "Company", draft.AcctgTransID)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	got, err := svc.Get(ctx, "Company", draft.AcctgTransID)
	require.NoError(t, err)
	assert.False(t, got.IsPosted)
}

func TestPostRejectsSingleEntry(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, []domain.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: domain.Debit, Amount: decimal.NewFromInt(500)},
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, "Company", draft.AcctgTransID)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPostRejectsClosedPeriod(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	p, err := store.CreateTimePeriod(ctx, period.CustomTimePeriod{
		OrganizationPartyID: "Company",
		PeriodTypeID:        period.TypeFiscalMonth,
		PeriodNum:           3,
		FromDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ThruDate:            time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = store.CloseTimePeriod(ctx, "Company", p.CustomTimePeriodID, nil)
	require.NoError(t, err)

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, balancedEntries())
	require.NoError(t, err)

	_, err = svc.Post(ctx, "Company", draft.AcctgTransID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestPostTwiceConflicts(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, balancedEntries())
	require.NoError(t, err)

	_, err = svc.Post(ctx, "Company", draft.AcctgTransID)
	require.NoError(t, err)

	_, err = svc.Post(ctx, "Company", draft.AcctgTransID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestGetScopedToOrganization(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, balancedEntries())
	require.NoError(t, err)

	_, err = svc.Get(ctx, "OtherCo", draft.AcctgTransID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCloseFinancialTimePeriodRejectsDrafts(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	p, err := store.CreateTimePeriod(ctx, period.CustomTimePeriod{
		OrganizationPartyID: "Company",
		PeriodTypeID:        period.TypeFiscalMonth,
		PeriodNum:           3,
		FromDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ThruDate:            time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	draft, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}, balancedEntries())
	require.NoError(t, err)

	err = svc.CloseFinancialTimePeriod(ctx, "Company", p.CustomTimePeriodID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Post(ctx, "Company", draft.AcctgTransID)
	require.NoError(t, err)
	require.NoError(t, svc.CloseFinancialTimePeriod(ctx, "Company", p.CustomTimePeriodID))
}

func TestTotalsSplitsPostedAndUnposted(t *testing.T) {
	store := memory.New()
	svc := New(store, store, nil, nil)
	ctx := context.Background()

	posted, err := svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}, balancedEntries())
	require.NoError(t, err)
	_, err = svc.Post(ctx, "Company", posted.AcctgTransID)
	require.NoError(t, err)

	_, err = svc.CreateDraft(ctx, domain.AcctgTrans{
		OrganizationPartyID: "Company",
		TransactionDate:     time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	}, []domain.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: domain.Debit, Amount: decimal.NewFromInt(80)},
		{GlAccountID: "4000", DebitCreditFlag: domain.Credit, Amount: decimal.NewFromInt(80)},
	})
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, "Company", nil, nil)
	require.NoError(t, err)

	assert.True(t, totals.Posted.GrandDebit.Equal(decimal.NewFromInt(500)))
	assert.True(t, totals.Posted.GrandCredit.Equal(decimal.NewFromInt(500)))
	assert.True(t, totals.Unposted.GrandDebit.Equal(decimal.NewFromInt(80)))
	assert.True(t, totals.Unposted.GrandCredit.Equal(decimal.NewFromInt(80)))
	require.Len(t, totals.Posted.Accounts, 2)
	assert.Equal(t, "1100", totals.Posted.Accounts[0].GlAccountID)
}
