// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// Store implements the storage interfaces over a *sql.DB.
type Store struct {
	db *sql.DB
}

var _ storage.ChartStore = (*Store)(nil)
var _ storage.TransactionStore = (*Store)(nil)
var _ storage.PeriodStore = (*Store)(nil)
var _ storage.MappingStore = (*Store)(nil)
var _ storage.ManufacturingStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ChartStore implementation --------------------------------------------------

func (s *Store) CreateGlAccount(ctx context.Context, acct ledger.GlAccount) (ledger.GlAccount, error) {
	if acct.GlAccountID == "" {
		acct.GlAccountID = uuid.NewString()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gl_account (gl_account_id, gl_account_type_id, gl_account_class_id, resource_type_id,
			parent_gl_account_id, account_code, account_name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, acct.GlAccountID, acct.GlAccountTypeID, acct.GlAccountClassID, nullable(acct.ResourceTypeID),
		acct.ParentGlAccountID, acct.AccountCode, acct.AccountName, nullable(acct.Description),
		acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return ledger.GlAccount{}, err
	}
	return acct, nil
}

func (s *Store) UpdateGlAccount(ctx context.Context, acct ledger.GlAccount) (ledger.GlAccount, error) {
	acct.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE gl_account
		SET gl_account_type_id = $2, gl_account_class_id = $3, resource_type_id = $4,
			parent_gl_account_id = $5, account_code = $6, account_name = $7, description = $8, updated_at = $9
		WHERE gl_account_id = $1
	`, acct.GlAccountID, acct.GlAccountTypeID, acct.GlAccountClassID, nullable(acct.ResourceTypeID),
		acct.ParentGlAccountID, acct.AccountCode, acct.AccountName, nullable(acct.Description), acct.UpdatedAt)
	if err != nil {
		return ledger.GlAccount{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ledger.GlAccount{}, apperrors.NotFound("gl account %s not found", acct.GlAccountID)
	}
	return acct, nil
}

const glAccountColumns = `gl_account_id, gl_account_type_id, gl_account_class_id,
	COALESCE(resource_type_id, ''), parent_gl_account_id, account_code, account_name,
	COALESCE(description, ''), created_at, updated_at`

func scanGlAccount(row interface{ Scan(...interface{}) error }) (ledger.GlAccount, error) {
	var acct ledger.GlAccount
	err := row.Scan(&acct.GlAccountID, &acct.GlAccountTypeID, &acct.GlAccountClassID,
		&acct.ResourceTypeID, &acct.ParentGlAccountID, &acct.AccountCode, &acct.AccountName,
		&acct.Description, &acct.CreatedAt, &acct.UpdatedAt)
	return acct, err
}

func (s *Store) GetGlAccount(ctx context.Context, id string) (ledger.GlAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+glAccountColumns+` FROM gl_account WHERE gl_account_id = $1`, id)
	acct, err := scanGlAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.GlAccount{}, apperrors.NotFound("gl account %s not found", id)
	}
	if err != nil {
		return ledger.GlAccount{}, err
	}
	return acct, nil
}

func (s *Store) ListGlAccounts(ctx context.Context, organizationPartyID string) ([]ledger.GlAccount, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if organizationPartyID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+glAccountColumns+` FROM gl_account ORDER BY gl_account_id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+glAccountColumns+`
			FROM gl_account
			WHERE gl_account_id IN (
				SELECT gl_account_id FROM gl_account_organization WHERE organization_party_id = $1
			)
			ORDER BY gl_account_id
		`, organizationPartyID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.GlAccount
	for rows.Next() {
		acct, err := scanGlAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func (s *Store) AssignGlAccountToOrganization(ctx context.Context, assoc ledger.GlAccountOrganization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gl_account_organization (gl_account_id, organization_party_id, from_date, thru_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (gl_account_id, organization_party_id) DO UPDATE SET thru_date = EXCLUDED.thru_date
	`, assoc.GlAccountID, assoc.OrganizationPartyID, assoc.FromDate, assoc.ThruDate)
	return err
}

func (s *Store) ListGlAccountTypes(ctx context.Context) ([]ledger.GlAccountType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gl_account_type_id, description FROM gl_account_type ORDER BY gl_account_type_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.GlAccountType
	for rows.Next() {
		var t ledger.GlAccountType
		if err := rows.Scan(&t.GlAccountTypeID, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListGlAccountClasses(ctx context.Context) ([]ledger.GlAccountClass, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gl_account_class_id, description, is_debit FROM gl_account_class ORDER BY gl_account_class_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.GlAccountClass
	for rows.Next() {
		var c ledger.GlAccountClass
		if err := rows.Scan(&c.GlAccountClassID, &c.Description, &c.IsDebit); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetAcctgPreference(ctx context.Context, organizationPartyID string) (ledger.PartyAcctgPreference, error) {
	var pref ledger.PartyAcctgPreference
	err := s.db.QueryRowContext(ctx, `
		SELECT organization_party_id, fiscal_year_start_month, fiscal_year_start_day, base_currency_uom_id,
			COALESCE(tax_form_id, ''), COALESCE(cogs_method_id, ''), COALESCE(invoice_id_prefix, ''),
			COALESCE(order_id_prefix, ''), COALESCE(quote_id_prefix, '')
		FROM party_acctg_preference WHERE organization_party_id = $1
	`, organizationPartyID).Scan(&pref.OrganizationPartyID, &pref.FiscalYearStartMonth, &pref.FiscalYearStartDay,
		&pref.BaseCurrencyUomID, &pref.TaxFormID, &pref.CogsMethodID, &pref.InvoiceIDPrefix,
		&pref.OrderIDPrefix, &pref.QuoteIDPrefix)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.PartyAcctgPreference{}, apperrors.NotFound("accounting preference for %s not found", organizationPartyID)
	}
	if err != nil {
		return ledger.PartyAcctgPreference{}, err
	}
	return pref, nil
}

func (s *Store) SaveAcctgPreference(ctx context.Context, pref ledger.PartyAcctgPreference) (ledger.PartyAcctgPreference, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO party_acctg_preference (organization_party_id, fiscal_year_start_month, fiscal_year_start_day,
			base_currency_uom_id, tax_form_id, cogs_method_id, invoice_id_prefix, order_id_prefix, quote_id_prefix)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (organization_party_id) DO UPDATE SET
			fiscal_year_start_month = EXCLUDED.fiscal_year_start_month,
			fiscal_year_start_day = EXCLUDED.fiscal_year_start_day,
			base_currency_uom_id = EXCLUDED.base_currency_uom_id,
			tax_form_id = EXCLUDED.tax_form_id,
			cogs_method_id = EXCLUDED.cogs_method_id,
			invoice_id_prefix = EXCLUDED.invoice_id_prefix,
			order_id_prefix = EXCLUDED.order_id_prefix,
			quote_id_prefix = EXCLUDED.quote_id_prefix
	`, pref.OrganizationPartyID, pref.FiscalYearStartMonth, pref.FiscalYearStartDay, pref.BaseCurrencyUomID,
		nullable(pref.TaxFormID), nullable(pref.CogsMethodID), nullable(pref.InvoiceIDPrefix),
		nullable(pref.OrderIDPrefix), nullable(pref.QuoteIDPrefix))
	if err != nil {
		return ledger.PartyAcctgPreference{}, err
	}
	return pref, nil
}

// TransactionStore implementation --------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, trans ledger.AcctgTrans, entries []ledger.AcctgTransEntry) (ledger.AcctgTrans, error) {
	if trans.AcctgTransID == "" {
		trans.AcctgTransID = uuid.NewString()
	}
	now := time.Now().UTC()
	trans.CreatedAt = now
	trans.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.AcctgTrans{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO acctg_trans (acctg_trans_id, organization_party_id, acctg_trans_type_id, gl_fiscal_type_id,
			transaction_date, is_posted, posted_date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, trans.AcctgTransID, trans.OrganizationPartyID, trans.AcctgTransTypeID, trans.GlFiscalTypeID,
		trans.TransactionDate, trans.IsPosted, trans.PostedDate, nullable(trans.Description),
		trans.CreatedAt, trans.UpdatedAt)
	if err != nil {
		return ledger.AcctgTrans{}, err
	}

	for i, e := range entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO acctg_trans_entry (acctg_trans_id, seq_id, gl_account_id, debit_credit_flag,
				amount, currency_uom_id, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, trans.AcctgTransID, i+1, e.GlAccountID, string(e.DebitCreditFlag), e.Amount,
			nullable(e.CurrencyUomID), nullable(e.Description))
		if err != nil {
			return ledger.AcctgTrans{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ledger.AcctgTrans{}, err
	}
	return trans, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, trans ledger.AcctgTrans) (ledger.AcctgTrans, error) {
	trans.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE acctg_trans
		SET is_posted = $2, posted_date = $3, description = $4, updated_at = $5
		WHERE acctg_trans_id = $1
	`, trans.AcctgTransID, trans.IsPosted, trans.PostedDate, nullable(trans.Description), trans.UpdatedAt)
	if err != nil {
		return ledger.AcctgTrans{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ledger.AcctgTrans{}, apperrors.NotFound("acctg trans %s not found", trans.AcctgTransID)
	}
	return trans, nil
}

const acctgTransColumns = `acctg_trans_id, organization_party_id, acctg_trans_type_id, gl_fiscal_type_id,
	transaction_date, is_posted, posted_date, COALESCE(description, ''), created_at, updated_at`

func scanAcctgTrans(row interface{ Scan(...interface{}) error }) (ledger.AcctgTrans, error) {
	var trans ledger.AcctgTrans
	err := row.Scan(&trans.AcctgTransID, &trans.OrganizationPartyID, &trans.AcctgTransTypeID,
		&trans.GlFiscalTypeID, &trans.TransactionDate, &trans.IsPosted, &trans.PostedDate,
		&trans.Description, &trans.CreatedAt, &trans.UpdatedAt)
	return trans, err
}

func (s *Store) GetTransaction(ctx context.Context, id string) (ledger.AcctgTrans, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+acctgTransColumns+` FROM acctg_trans WHERE acctg_trans_id = $1`, id)
	trans, err := scanAcctgTrans(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.AcctgTrans{}, apperrors.NotFound("acctg trans %s not found", id)
	}
	if err != nil {
		return ledger.AcctgTrans{}, err
	}
	return trans, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter storage.TransFilter) ([]ledger.AcctgTrans, error) {
	query := `SELECT ` + acctgTransColumns + ` FROM acctg_trans WHERE 1=1`
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.OrganizationPartyID != "" {
		add(" AND organization_party_id = $%d", filter.OrganizationPartyID)
	}
	if filter.GlFiscalTypeID != "" {
		add(" AND gl_fiscal_type_id = $%d", filter.GlFiscalTypeID)
	}
	if filter.IsPosted != nil {
		add(" AND is_posted = $%d", *filter.IsPosted)
	}
	if filter.FromDate != nil {
		add(" AND transaction_date >= $%d", *filter.FromDate)
	}
	if filter.ThruDate != nil {
		add(" AND transaction_date < $%d", *filter.ThruDate)
	}
	query += ` ORDER BY transaction_date, acctg_trans_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.AcctgTrans
	for rows.Next() {
		trans, err := scanAcctgTrans(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, trans)
	}
	return out, rows.Err()
}

func (s *Store) ListEntries(ctx context.Context, acctgTransID string) ([]ledger.AcctgTransEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT acctg_trans_id, seq_id, gl_account_id, debit_credit_flag, amount,
			COALESCE(currency_uom_id, ''), COALESCE(description, '')
		FROM acctg_trans_entry WHERE acctg_trans_id = $1 ORDER BY seq_id
	`, acctgTransID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.AcctgTransEntry
	for rows.Next() {
		var e ledger.AcctgTransEntry
		var flag string
		if err := rows.Scan(&e.AcctgTransID, &e.SeqID, &e.GlAccountID, &flag, &e.Amount,
			&e.CurrencyUomID, &e.Description); err != nil {
			return nil, err
		}
		e.DebitCreditFlag = ledger.DebitCreditFlag(flag)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListLedgerLines(ctx context.Context, filter storage.EntryFilter) ([]storage.LedgerLine, error) {
	query := `
		SELECT e.acctg_trans_id, e.seq_id, e.gl_account_id, e.debit_credit_flag, e.amount,
			COALESCE(e.currency_uom_id, ''), COALESCE(e.description, ''),
			t.transaction_date, t.is_posted, t.gl_fiscal_type_id
		FROM acctg_trans_entry e
		JOIN acctg_trans t ON t.acctg_trans_id = e.acctg_trans_id
		WHERE 1=1`
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.OrganizationPartyID != "" {
		add(" AND t.organization_party_id = $%d", filter.OrganizationPartyID)
	}
	if filter.GlAccountID != "" {
		add(" AND e.gl_account_id = $%d", filter.GlAccountID)
	}
	if filter.GlFiscalTypeID != "" {
		add(" AND t.gl_fiscal_type_id = $%d", filter.GlFiscalTypeID)
	}
	if filter.IsPosted != nil {
		add(" AND t.is_posted = $%d", *filter.IsPosted)
	}
	if filter.FromDate != nil {
		add(" AND t.transaction_date >= $%d", *filter.FromDate)
	}
	if filter.ThruDate != nil {
		add(" AND t.transaction_date < $%d", *filter.ThruDate)
	}
	query += ` ORDER BY t.transaction_date, e.acctg_trans_id, e.seq_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.LedgerLine
	for rows.Next() {
		var line storage.LedgerLine
		var flag string
		if err := rows.Scan(&line.Entry.AcctgTransID, &line.Entry.SeqID, &line.Entry.GlAccountID,
			&flag, &line.Entry.Amount, &line.Entry.CurrencyUomID, &line.Entry.Description,
			&line.TransactionDate, &line.IsPosted, &line.GlFiscalTypeID); err != nil {
			return nil, err
		}
		line.Entry.DebitCreditFlag = ledger.DebitCreditFlag(flag)
		out = append(out, line)
	}
	return out, rows.Err()
}

// PeriodStore implementation -------------------------------------------------

func (s *Store) CreateTimePeriod(ctx context.Context, p period.CustomTimePeriod) (period.CustomTimePeriod, error) {
	if p.CustomTimePeriodID == "" {
		p.CustomTimePeriodID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_time_period (custom_time_period_id, organization_party_id, period_type_id, period_num,
			period_name, from_date, thru_date, parent_period_id, is_closed, closed_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.CustomTimePeriodID, p.OrganizationPartyID, p.PeriodTypeID, p.PeriodNum, nullable(p.PeriodName),
		p.FromDate, p.ThruDate, p.ParentPeriodID, p.IsClosed, p.ClosedDate)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	return p, nil
}

const timePeriodColumns = `custom_time_period_id, organization_party_id, period_type_id, period_num,
	COALESCE(period_name, ''), from_date, thru_date, parent_period_id, is_closed, closed_date`

func scanTimePeriod(row interface{ Scan(...interface{}) error }) (period.CustomTimePeriod, error) {
	var p period.CustomTimePeriod
	err := row.Scan(&p.CustomTimePeriodID, &p.OrganizationPartyID, &p.PeriodTypeID, &p.PeriodNum,
		&p.PeriodName, &p.FromDate, &p.ThruDate, &p.ParentPeriodID, &p.IsClosed, &p.ClosedDate)
	return p, err
}

func (s *Store) GetTimePeriod(ctx context.Context, id string) (period.CustomTimePeriod, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timePeriodColumns+` FROM custom_time_period WHERE custom_time_period_id = $1`, id)
	p, err := scanTimePeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return period.CustomTimePeriod{}, apperrors.NotFound("time period %s not found", id)
	}
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	return p, nil
}

func (s *Store) ListTimePeriods(ctx context.Context, organizationPartyID string) ([]period.CustomTimePeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+timePeriodColumns+` FROM custom_time_period
		WHERE ($1 = '' OR organization_party_id = $1)
		ORDER BY from_date, custom_time_period_id
	`, organizationPartyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []period.CustomTimePeriod
	for rows.Next() {
		p, err := scanTimePeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CloseTimePeriod flips the closed flag and runs the ledger closer inside
// one transaction; any error rolls the flag back.
func (s *Store) CloseTimePeriod(ctx context.Context, organizationPartyID, customTimePeriodID string, closer storage.GeneralLedgerCloser) (period.CustomTimePeriod, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE custom_time_period SET is_closed = TRUE, closed_date = $3
		WHERE custom_time_period_id = $1 AND organization_party_id = $2
	`, customTimePeriodID, organizationPartyID, now)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return period.CustomTimePeriod{}, apperrors.NotFound("time period %s not found", customTimePeriodID)
	}

	if closer != nil {
		if err := closer.CloseFinancialTimePeriod(ctx, organizationPartyID, customTimePeriodID); err != nil {
			return period.CustomTimePeriod{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return period.CustomTimePeriod{}, err
	}
	return s.GetTimePeriod(ctx, customTimePeriodID)
}

// MappingStore implementation ------------------------------------------------

func (s *Store) SaveMapping(ctx context.Context, m mapping.Mapping) (mapping.Mapping, error) {
	if err := m.ValidateKey(); err != nil {
		return mapping.Mapping{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gl_account_mapping (composite_key, kind, organization_party_id, gl_account_type_id,
			product_id, product_category_id, party_id, role_type_id, card_type, fin_account_type_id,
			fixed_asset_type_id, payment_method_type_id, tax_auth_geo_id, tax_auth_party_id,
			variance_reason_id, gl_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (composite_key) DO UPDATE SET gl_account_id = EXCLUDED.gl_account_id
	`, m.CompositeKey(), string(m.Kind), m.OrganizationPartyID, nullable(m.GlAccountTypeID),
		nullable(m.ProductID), nullable(m.ProductCategoryID), nullable(m.PartyID), nullable(m.RoleTypeID),
		nullable(m.CardType), nullable(m.FinAccountTypeID), nullable(m.FixedAssetTypeID),
		nullable(m.PaymentMethodTypeID), nullable(m.TaxAuthGeoID), nullable(m.TaxAuthPartyID),
		nullable(m.VarianceReasonID), m.GlAccountID)
	if err != nil {
		return mapping.Mapping{}, err
	}
	return m, nil
}

const mappingColumns = `kind, organization_party_id, COALESCE(gl_account_type_id, ''),
	COALESCE(product_id, ''), COALESCE(product_category_id, ''), COALESCE(party_id, ''),
	COALESCE(role_type_id, ''), COALESCE(card_type, ''), COALESCE(fin_account_type_id, ''),
	COALESCE(fixed_asset_type_id, ''), COALESCE(payment_method_type_id, ''),
	COALESCE(tax_auth_geo_id, ''), COALESCE(tax_auth_party_id, ''),
	COALESCE(variance_reason_id, ''), gl_account_id`

func scanMapping(row interface{ Scan(...interface{}) error }) (mapping.Mapping, error) {
	var m mapping.Mapping
	var kind string
	err := row.Scan(&kind, &m.OrganizationPartyID, &m.GlAccountTypeID, &m.ProductID,
		&m.ProductCategoryID, &m.PartyID, &m.RoleTypeID, &m.CardType, &m.FinAccountTypeID,
		&m.FixedAssetTypeID, &m.PaymentMethodTypeID, &m.TaxAuthGeoID, &m.TaxAuthPartyID,
		&m.VarianceReasonID, &m.GlAccountID)
	m.Kind = mapping.Kind(kind)
	return m, err
}

func (s *Store) GetMapping(ctx context.Context, key mapping.Mapping) (mapping.Mapping, error) {
	if err := key.ValidateKey(); err != nil {
		return mapping.Mapping{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+mappingColumns+` FROM gl_account_mapping WHERE composite_key = $1`, key.CompositeKey())
	m, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mapping.Mapping{}, apperrors.NotFound("record not found")
	}
	if err != nil {
		return mapping.Mapping{}, err
	}
	return m, nil
}

func (s *Store) ListMappings(ctx context.Context, kind mapping.Kind, organizationPartyID string) ([]mapping.Mapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mappingColumns+` FROM gl_account_mapping
		WHERE kind = $1 AND ($2 = '' OR organization_party_id = $2)
		ORDER BY composite_key
	`, string(kind), organizationPartyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mapping.Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMapping removes a row by composite key inside a transaction; a
// missing row reports not-found without writing anything.
func (s *Store) DeleteMapping(ctx context.Context, key mapping.Mapping) error {
	if err := key.ValidateKey(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM gl_account_mapping WHERE composite_key = $1`, key.CompositeKey())
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NotFound("record not found")
	}
	return tx.Commit()
}

// ManufacturingStore implementation ------------------------------------------

func (s *Store) CreateWorkEffort(ctx context.Context, we manufacturing.WorkEffort) (manufacturing.WorkEffort, error) {
	if we.WorkEffortID == "" {
		we.WorkEffortID = uuid.NewString()
	}
	now := time.Now().UTC()
	we.CreatedAt = now
	we.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_effort (work_effort_id, work_effort_type_id, work_effort_name, description, status_id,
			product_id, facility_id, quantity_to_produce, estimated_start_date, estimated_completion_date,
			estimated_milli_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, we.WorkEffortID, we.WorkEffortTypeID, we.WorkEffortName, nullable(we.Description), nullable(we.StatusID),
		nullable(we.ProductID), nullable(we.FacilityID), we.QuantityToProduce, we.EstimatedStartDate,
		we.EstimatedCompletionDate, we.EstimatedMilliSeconds, we.CreatedAt, we.UpdatedAt)
	if err != nil {
		return manufacturing.WorkEffort{}, err
	}
	return we, nil
}

func (s *Store) UpdateWorkEffort(ctx context.Context, we manufacturing.WorkEffort) (manufacturing.WorkEffort, error) {
	we.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE work_effort
		SET work_effort_name = $2, description = $3, status_id = $4, product_id = $5, facility_id = $6,
			quantity_to_produce = $7, estimated_start_date = $8, estimated_completion_date = $9,
			estimated_milli_seconds = $10, updated_at = $11
		WHERE work_effort_id = $1
	`, we.WorkEffortID, we.WorkEffortName, nullable(we.Description), nullable(we.StatusID),
		nullable(we.ProductID), nullable(we.FacilityID), we.QuantityToProduce, we.EstimatedStartDate,
		we.EstimatedCompletionDate, we.EstimatedMilliSeconds, we.UpdatedAt)
	if err != nil {
		return manufacturing.WorkEffort{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return manufacturing.WorkEffort{}, apperrors.NotFound("work effort %s not found", we.WorkEffortID)
	}
	return we, nil
}

const workEffortColumns = `work_effort_id, work_effort_type_id, work_effort_name, COALESCE(description, ''),
	COALESCE(status_id, ''), COALESCE(product_id, ''), COALESCE(facility_id, ''), quantity_to_produce,
	estimated_start_date, estimated_completion_date, estimated_milli_seconds, created_at, updated_at`

func scanWorkEffort(row interface{ Scan(...interface{}) error }) (manufacturing.WorkEffort, error) {
	var we manufacturing.WorkEffort
	err := row.Scan(&we.WorkEffortID, &we.WorkEffortTypeID, &we.WorkEffortName, &we.Description,
		&we.StatusID, &we.ProductID, &we.FacilityID, &we.QuantityToProduce,
		&we.EstimatedStartDate, &we.EstimatedCompletionDate, &we.EstimatedMilliSeconds,
		&we.CreatedAt, &we.UpdatedAt)
	return we, err
}

func (s *Store) GetWorkEffort(ctx context.Context, id string) (manufacturing.WorkEffort, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+workEffortColumns+` FROM work_effort WHERE work_effort_id = $1`, id)
	we, err := scanWorkEffort(row)
	if errors.Is(err, sql.ErrNoRows) {
		return manufacturing.WorkEffort{}, apperrors.NotFound("work effort %s not found", id)
	}
	if err != nil {
		return manufacturing.WorkEffort{}, err
	}
	return we, nil
}

func (s *Store) ListWorkEfforts(ctx context.Context, filter storage.WorkEffortFilter) ([]manufacturing.WorkEffort, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workEffortColumns+` FROM work_effort
		WHERE ($1 = '' OR work_effort_type_id = $1)
			AND ($2 = '' OR status_id = $2)
			AND ($3 = '' OR product_id = $3)
		ORDER BY work_effort_id
	`, filter.WorkEffortTypeID, filter.StatusID, filter.ProductID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []manufacturing.WorkEffort
	for rows.Next() {
		we, err := scanWorkEffort(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, we)
	}
	return out, rows.Err()
}

func (s *Store) CreateWorkEffortAssoc(ctx context.Context, assoc manufacturing.WorkEffortAssoc) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_effort_assoc (work_effort_id_from, work_effort_id_to, sequence_num, from_date)
		VALUES ($1, $2, $3, $4)
	`, assoc.WorkEffortIDFrom, assoc.WorkEffortIDTo, assoc.SequenceNum, assoc.FromDate)
	return err
}

func (s *Store) ListWorkEffortAssocs(ctx context.Context, workEffortIDFrom string) ([]manufacturing.WorkEffortAssoc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT work_effort_id_from, work_effort_id_to, sequence_num, from_date
		FROM work_effort_assoc WHERE work_effort_id_from = $1 ORDER BY sequence_num
	`, workEffortIDFrom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []manufacturing.WorkEffortAssoc
	for rows.Next() {
		var a manufacturing.WorkEffortAssoc
		if err := rows.Scan(&a.WorkEffortIDFrom, &a.WorkEffortIDTo, &a.SequenceNum, &a.FromDate); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateBom(ctx context.Context, bom manufacturing.BillOfMaterial) (manufacturing.BillOfMaterial, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_assoc_bom (product_id, product_id_to, sequence_num, quantity, scrap_factor,
			from_date, thru_date, instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, bom.ProductID, bom.ProductIDTo, bom.SequenceNum, bom.Quantity, bom.ScrapFactor,
		bom.FromDate, bom.ThruDate, nullable(bom.Instructions))
	if err != nil {
		return manufacturing.BillOfMaterial{}, err
	}
	return bom, nil
}

func (s *Store) ListBoms(ctx context.Context, productID string) ([]manufacturing.BillOfMaterial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_id_to, sequence_num, quantity, scrap_factor, from_date, thru_date,
			COALESCE(instructions, '')
		FROM product_assoc_bom WHERE product_id = $1 ORDER BY sequence_num
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []manufacturing.BillOfMaterial
	for rows.Next() {
		var b manufacturing.BillOfMaterial
		if err := rows.Scan(&b.ProductID, &b.ProductIDTo, &b.SequenceNum, &b.Quantity, &b.ScrapFactor,
			&b.FromDate, &b.ThruDate, &b.Instructions); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) DeleteBom(ctx context.Context, productID, productIDTo string, fromDate time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM product_assoc_bom WHERE product_id = $1 AND product_id_to = $2 AND from_date = $3
	`, productID, productIDTo, fromDate)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NotFound("record not found")
	}
	return tx.Commit()
}

func (s *Store) SaveCostCalc(ctx context.Context, calc manufacturing.CostComponentCalc) (manufacturing.CostComponentCalc, error) {
	if calc.CostComponentCalcID == "" {
		calc.CostComponentCalcID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_component_calc (cost_component_calc_id, description, fixed_cost, variable_cost,
			per_milli_second, currency_uom_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cost_component_calc_id) DO UPDATE SET
			description = EXCLUDED.description,
			fixed_cost = EXCLUDED.fixed_cost,
			variable_cost = EXCLUDED.variable_cost,
			per_milli_second = EXCLUDED.per_milli_second,
			currency_uom_id = EXCLUDED.currency_uom_id
	`, calc.CostComponentCalcID, nullable(calc.Description), calc.FixedCost, calc.VariableCost,
		calc.PerMilliSecond, nullable(calc.CurrencyUomID))
	if err != nil {
		return manufacturing.CostComponentCalc{}, err
	}
	return calc, nil
}

func (s *Store) GetCostCalc(ctx context.Context, id string) (manufacturing.CostComponentCalc, error) {
	var calc manufacturing.CostComponentCalc
	err := s.db.QueryRowContext(ctx, `
		SELECT cost_component_calc_id, COALESCE(description, ''), fixed_cost, variable_cost,
			per_milli_second, COALESCE(currency_uom_id, '')
		FROM cost_component_calc WHERE cost_component_calc_id = $1
	`, id).Scan(&calc.CostComponentCalcID, &calc.Description, &calc.FixedCost, &calc.VariableCost,
		&calc.PerMilliSecond, &calc.CurrencyUomID)
	if errors.Is(err, sql.ErrNoRows) {
		return manufacturing.CostComponentCalc{}, apperrors.NotFound("cost component calc %s not found", id)
	}
	if err != nil {
		return manufacturing.CostComponentCalc{}, err
	}
	return calc, nil
}

func (s *Store) ListCostCalcs(ctx context.Context) ([]manufacturing.CostComponentCalc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cost_component_calc_id, COALESCE(description, ''), fixed_cost, variable_cost,
			per_milli_second, COALESCE(currency_uom_id, '')
		FROM cost_component_calc ORDER BY cost_component_calc_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []manufacturing.CostComponentCalc
	for rows.Next() {
		var calc manufacturing.CostComponentCalc
		if err := rows.Scan(&calc.CostComponentCalcID, &calc.Description, &calc.FixedCost,
			&calc.VariableCost, &calc.PerMilliSecond, &calc.CurrencyUomID); err != nil {
			return nil, err
		}
		out = append(out, calc)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCostCalc(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM cost_component_calc WHERE cost_component_calc_id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NotFound("record not found")
	}
	return tx.Commit()
}

func (s *Store) CreateWorkEffortCostCalc(ctx context.Context, link manufacturing.WorkEffortCostCalc) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_effort_cost_calc (work_effort_id, cost_component_calc_id, cost_component_type_id, from_date)
		VALUES ($1, $2, $3, $4)
	`, link.WorkEffortID, link.CostComponentCalcID, nullable(link.CostComponentTypeID), link.FromDate)
	return err
}

func (s *Store) ListWorkEffortCostCalcs(ctx context.Context, workEffortID string) ([]manufacturing.WorkEffortCostCalc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT work_effort_id, cost_component_calc_id, COALESCE(cost_component_type_id, ''), from_date
		FROM work_effort_cost_calc WHERE work_effort_id = $1
	`, workEffortID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []manufacturing.WorkEffortCostCalc
	for rows.Next() {
		var l manufacturing.WorkEffortCostCalc
		if err := rows.Scan(&l.WorkEffortID, &l.CostComponentCalcID, &l.CostComponentTypeID, &l.FromDate); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
