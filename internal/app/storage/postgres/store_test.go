package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/platform/migrations"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestDeleteMappingCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM gl_account_mapping").
		WithArgs("party-gl-accounts|Company10|10000|CUSTOMER|ACCTS_REC").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.DeleteMapping(context.Background(), mapping.Mapping{
		Kind:                mapping.KindParty,
		OrganizationPartyID: "Company10",
		PartyID:             "10000",
		RoleTypeID:          "CUSTOMER",
		GlAccountTypeID:     "ACCTS_REC",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMappingMissingRowRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM gl_account_mapping").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteMapping(context.Background(), mapping.Mapping{
		Kind:                mapping.KindParty,
		OrganizationPartyID: "Company10",
		PartyID:             "10000",
		RoleTypeID:          "CUSTOMER",
		GlAccountTypeID:     "ACCTS_REC",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "record not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMappingValidatesKeyBeforeTouchingDatabase(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.DeleteMapping(context.Background(), mapping.Mapping{
		Kind:                mapping.KindParty,
		OrganizationPartyID: "Company10",
		PartyID:             "10000",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransactionInsertsHeaderAndEntriesAtomically(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO acctg_trans ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO acctg_trans_entry").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO acctg_trans_entry").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trans, err := store.CreateTransaction(context.Background(), ledger.AcctgTrans{
		OrganizationPartyID: "Company",
		AcctgTransTypeID:    "INTERNAL_ACCTG_TRANS",
		GlFiscalTypeID:      ledger.FiscalTypeActual,
		TransactionDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, []ledger.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: ledger.Debit, Amount: decimal.NewFromInt(50)},
		{GlAccountID: "4000", DebitCreditFlag: ledger.Credit, Amount: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, trans.AcctgTransID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransactionRollsBackOnEntryFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO acctg_trans ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO acctg_trans_entry").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := store.CreateTransaction(context.Background(), ledger.AcctgTrans{
		OrganizationPartyID: "Company",
		AcctgTransTypeID:    "INTERNAL_ACCTG_TRANS",
		GlFiscalTypeID:      ledger.FiscalTypeActual,
		TransactionDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, []ledger.AcctgTransEntry{
		{GlAccountID: "1100", DebitCreditFlag: ledger.Debit, Amount: decimal.NewFromInt(50)},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

type closerFunc func(ctx context.Context, orgID, periodID string) error

func (f closerFunc) CloseFinancialTimePeriod(ctx context.Context, orgID, periodID string) error {
	return f(ctx, orgID, periodID)
}

func TestCloseTimePeriodRollsBackWhenCloserFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE custom_time_period SET is_closed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("closing entries failed")
	_, err := store.CloseTimePeriod(context.Background(), "Company", "FY2024M01",
		closerFunc(func(context.Context, string, string) error { return boom }))
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseTimePeriodNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE custom_time_period SET is_closed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.CloseTimePeriod(context.Background(), "Company", "missing", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGlAccountNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .* FROM gl_account WHERE").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetGlAccount(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

// TestStoreIntegration exercises the full store against a real database. Set
// TEST_POSTGRES_DSN to run it.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, migrations.Apply(ctx, db))
	store := New(db)

	acct, err := store.CreateGlAccount(ctx, ledger.GlAccount{
		GlAccountTypeID:  "BANK_ACCOUNT",
		GlAccountClassID: ledger.ClassCash,
		AccountCode:      "1100",
		AccountName:      "Integration Bank",
	})
	require.NoError(t, err)

	got, err := store.GetGlAccount(ctx, acct.GlAccountID)
	require.NoError(t, err)
	assert.Equal(t, "Integration Bank", got.AccountName)

	p, err := store.CreateTimePeriod(ctx, period.CustomTimePeriod{
		OrganizationPartyID: "IntegrationCo",
		PeriodTypeID:        period.TypeFiscalMonth,
		PeriodNum:           1,
		FromDate:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ThruDate:            time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	closed, err := store.CloseTimePeriod(ctx, "IntegrationCo", p.CustomTimePeriodID, nil)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)

	lines, err := store.ListLedgerLines(ctx, storage.EntryFilter{OrganizationPartyID: "IntegrationCo"})
	require.NoError(t, err)
	assert.Empty(t, lines)
}
