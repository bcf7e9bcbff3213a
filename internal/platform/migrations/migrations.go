// Package migrations applies the database schema at startup. Statements are
// idempotent and run in order; there is no down path.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS gl_account_type (
		gl_account_type_id TEXT PRIMARY KEY,
		description        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gl_account_class (
		gl_account_class_id TEXT PRIMARY KEY,
		description         TEXT NOT NULL,
		is_debit            BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gl_account (
		gl_account_id        TEXT PRIMARY KEY,
		gl_account_type_id   TEXT NOT NULL REFERENCES gl_account_type (gl_account_type_id),
		gl_account_class_id  TEXT NOT NULL REFERENCES gl_account_class (gl_account_class_id),
		resource_type_id     TEXT,
		parent_gl_account_id TEXT REFERENCES gl_account (gl_account_id),
		account_code         TEXT NOT NULL,
		account_name         TEXT NOT NULL,
		description          TEXT,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gl_account_organization (
		gl_account_id         TEXT NOT NULL REFERENCES gl_account (gl_account_id),
		organization_party_id TEXT NOT NULL,
		from_date             TIMESTAMPTZ NOT NULL,
		thru_date             TIMESTAMPTZ,
		PRIMARY KEY (gl_account_id, organization_party_id)
	)`,
	`CREATE TABLE IF NOT EXISTS party_acctg_preference (
		organization_party_id   TEXT PRIMARY KEY,
		fiscal_year_start_month INTEGER NOT NULL DEFAULT 1,
		fiscal_year_start_day   INTEGER NOT NULL DEFAULT 1,
		base_currency_uom_id    TEXT NOT NULL DEFAULT 'USD',
		tax_form_id             TEXT,
		cogs_method_id          TEXT,
		invoice_id_prefix       TEXT,
		order_id_prefix         TEXT,
		quote_id_prefix         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS acctg_trans (
		acctg_trans_id        TEXT PRIMARY KEY,
		organization_party_id TEXT NOT NULL,
		acctg_trans_type_id   TEXT NOT NULL,
		gl_fiscal_type_id     TEXT NOT NULL,
		transaction_date      TIMESTAMPTZ NOT NULL,
		is_posted             BOOLEAN NOT NULL DEFAULT FALSE,
		posted_date           TIMESTAMPTZ,
		description           TEXT,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS acctg_trans_entry (
		acctg_trans_id    TEXT NOT NULL REFERENCES acctg_trans (acctg_trans_id) ON DELETE CASCADE,
		seq_id            INTEGER NOT NULL,
		gl_account_id     TEXT NOT NULL REFERENCES gl_account (gl_account_id),
		debit_credit_flag TEXT NOT NULL CHECK (debit_credit_flag IN ('D', 'C')),
		amount            NUMERIC(18, 4) NOT NULL,
		currency_uom_id   TEXT,
		description       TEXT,
		PRIMARY KEY (acctg_trans_id, seq_id)
	)`,
	`CREATE TABLE IF NOT EXISTS custom_time_period (
		custom_time_period_id TEXT PRIMARY KEY,
		organization_party_id TEXT NOT NULL,
		period_type_id        TEXT NOT NULL,
		period_num            INTEGER NOT NULL,
		period_name           TEXT,
		from_date             TIMESTAMPTZ NOT NULL,
		thru_date             TIMESTAMPTZ NOT NULL,
		parent_period_id      TEXT REFERENCES custom_time_period (custom_time_period_id),
		is_closed             BOOLEAN NOT NULL DEFAULT FALSE,
		closed_date           TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS gl_account_mapping (
		composite_key          TEXT PRIMARY KEY,
		kind                   TEXT NOT NULL,
		organization_party_id  TEXT NOT NULL,
		gl_account_type_id     TEXT,
		product_id             TEXT,
		product_category_id    TEXT,
		party_id               TEXT,
		role_type_id           TEXT,
		card_type              TEXT,
		fin_account_type_id    TEXT,
		fixed_asset_type_id    TEXT,
		payment_method_type_id TEXT,
		tax_auth_geo_id        TEXT,
		tax_auth_party_id      TEXT,
		variance_reason_id     TEXT,
		gl_account_id          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS work_effort (
		work_effort_id            TEXT PRIMARY KEY,
		work_effort_type_id       TEXT NOT NULL,
		work_effort_name          TEXT NOT NULL,
		description               TEXT,
		status_id                 TEXT,
		product_id                TEXT,
		facility_id               TEXT,
		quantity_to_produce       NUMERIC(18, 4) NOT NULL DEFAULT 0,
		estimated_start_date      TIMESTAMPTZ,
		estimated_completion_date TIMESTAMPTZ,
		estimated_milli_seconds   BIGINT NOT NULL DEFAULT 0,
		created_at                TIMESTAMPTZ NOT NULL,
		updated_at                TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS work_effort_assoc (
		work_effort_id_from TEXT NOT NULL REFERENCES work_effort (work_effort_id),
		work_effort_id_to   TEXT NOT NULL REFERENCES work_effort (work_effort_id),
		sequence_num        INTEGER NOT NULL,
		from_date           TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (work_effort_id_from, work_effort_id_to, from_date)
	)`,
	`CREATE TABLE IF NOT EXISTS product_assoc_bom (
		product_id    TEXT NOT NULL,
		product_id_to TEXT NOT NULL,
		sequence_num  INTEGER NOT NULL,
		quantity      NUMERIC(18, 4) NOT NULL,
		scrap_factor  NUMERIC(18, 4) NOT NULL DEFAULT 0,
		from_date     TIMESTAMPTZ NOT NULL,
		thru_date     TIMESTAMPTZ,
		instructions  TEXT,
		PRIMARY KEY (product_id, product_id_to, from_date)
	)`,
	`CREATE TABLE IF NOT EXISTS cost_component_calc (
		cost_component_calc_id TEXT PRIMARY KEY,
		description            TEXT,
		fixed_cost             NUMERIC(18, 4) NOT NULL DEFAULT 0,
		variable_cost          NUMERIC(18, 4) NOT NULL DEFAULT 0,
		per_milli_second       NUMERIC(18, 8) NOT NULL DEFAULT 0,
		currency_uom_id        TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS work_effort_cost_calc (
		work_effort_id         TEXT NOT NULL REFERENCES work_effort (work_effort_id),
		cost_component_calc_id TEXT NOT NULL REFERENCES cost_component_calc (cost_component_calc_id),
		cost_component_type_id TEXT,
		from_date              TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (work_effort_id, cost_component_calc_id, from_date)
	)`,
	`INSERT INTO gl_account_type (gl_account_type_id, description) VALUES
		('ACCTS_REC', 'Accounts Receivable'),
		('ACCTS_PAY', 'Accounts Payable'),
		('BANK_ACCOUNT', 'Bank Account'),
		('SALES', 'Sales'),
		('COGS_ACCOUNT', 'Cost of Goods Sold'),
		('INVENTORY_ACCOUNT', 'Inventory'),
		('RETAINED_EARNINGS', 'Retained Earnings')
	ON CONFLICT (gl_account_type_id) DO NOTHING`,
	`INSERT INTO gl_account_class (gl_account_class_id, description, is_debit) VALUES
		('ASSET', 'Asset', TRUE),
		('CASH', 'Cash', TRUE),
		('EXPENSE', 'Expense', TRUE),
		('LIABILITY', 'Liability', FALSE),
		('EQUITY', 'Equity', FALSE),
		('REVENUE', 'Revenue', FALSE)
	ON CONFLICT (gl_account_class_id) DO NOTHING`,
	`CREATE INDEX IF NOT EXISTS idx_acctg_trans_org_date ON acctg_trans (organization_party_id, transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_acctg_trans_entry_account ON acctg_trans_entry (gl_account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_gl_account_mapping_kind ON gl_account_mapping (kind, organization_party_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_effort_type_status ON work_effort (work_effort_type_id, status_id)`,
}

// Apply runs every migration statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Count reports the number of migration statements. Used by tests.
func Count() int { return len(statements) }
