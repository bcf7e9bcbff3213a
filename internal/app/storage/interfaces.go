// Package storage defines the persistence contracts consumed by the domain
// services. Implementations: storage/memory (tests, local development) and
// storage/postgres.
package storage

import (
	"context"
	"time"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/domain/period"
)

// ChartStore persists the chart of accounts and organization GL settings.
type ChartStore interface {
	CreateGlAccount(ctx context.Context, acct ledger.GlAccount) (ledger.GlAccount, error)
	UpdateGlAccount(ctx context.Context, acct ledger.GlAccount) (ledger.GlAccount, error)
	GetGlAccount(ctx context.Context, id string) (ledger.GlAccount, error)
	// ListGlAccounts returns all accounts, scoped to an organization when
	// organizationPartyID is non-empty.
	ListGlAccounts(ctx context.Context, organizationPartyID string) ([]ledger.GlAccount, error)
	AssignGlAccountToOrganization(ctx context.Context, assoc ledger.GlAccountOrganization) error

	ListGlAccountTypes(ctx context.Context) ([]ledger.GlAccountType, error)
	ListGlAccountClasses(ctx context.Context) ([]ledger.GlAccountClass, error)

	GetAcctgPreference(ctx context.Context, organizationPartyID string) (ledger.PartyAcctgPreference, error)
	SaveAcctgPreference(ctx context.Context, pref ledger.PartyAcctgPreference) (ledger.PartyAcctgPreference, error)
}

// TransFilter narrows transaction listings.
type TransFilter struct {
	OrganizationPartyID string
	GlFiscalTypeID      string
	FromDate            *time.Time
	ThruDate            *time.Time
	IsPosted            *bool
}

// EntryFilter narrows ledger line listings for reporting.
type EntryFilter struct {
	OrganizationPartyID string
	GlAccountID         string
	GlFiscalTypeID      string
	FromDate            *time.Time
	ThruDate            *time.Time
	IsPosted            *bool
}

// LedgerLine is an entry joined with the header fields reports need.
type LedgerLine struct {
	Entry           ledger.AcctgTransEntry
	TransactionDate time.Time
	IsPosted        bool
	GlFiscalTypeID  string
}

// TransactionStore persists accounting transactions and their entries.
type TransactionStore interface {
	// CreateTransaction persists the header and its entries atomically.
	CreateTransaction(ctx context.Context, trans ledger.AcctgTrans, entries []ledger.AcctgTransEntry) (ledger.AcctgTrans, error)
	UpdateTransaction(ctx context.Context, trans ledger.AcctgTrans) (ledger.AcctgTrans, error)
	GetTransaction(ctx context.Context, id string) (ledger.AcctgTrans, error)
	ListTransactions(ctx context.Context, filter TransFilter) ([]ledger.AcctgTrans, error)
	ListEntries(ctx context.Context, acctgTransID string) ([]ledger.AcctgTransEntry, error)
	// ListLedgerLines feeds report aggregation.
	ListLedgerLines(ctx context.Context, filter EntryFilter) ([]LedgerLine, error)
}

// GeneralLedgerCloser performs the ledger side of a period close (posting
// closing entries, rolling balances). Failures abort the close.
type GeneralLedgerCloser interface {
	CloseFinancialTimePeriod(ctx context.Context, organizationPartyID, customTimePeriodID string) error
}

// PeriodStore persists fiscal time periods.
type PeriodStore interface {
	CreateTimePeriod(ctx context.Context, p period.CustomTimePeriod) (period.CustomTimePeriod, error)
	GetTimePeriod(ctx context.Context, id string) (period.CustomTimePeriod, error)
	ListTimePeriods(ctx context.Context, organizationPartyID string) ([]period.CustomTimePeriod, error)
	// CloseTimePeriod marks the period closed and runs closer inside the
	// same transaction; a closer error leaves IsClosed unchanged.
	CloseTimePeriod(ctx context.Context, organizationPartyID, customTimePeriodID string, closer GeneralLedgerCloser) (period.CustomTimePeriod, error)
}

// MappingStore persists the type-to-GL-account mapping rows. Lookups and
// deletes identify a row by the kind's composite key fields on the argument.
type MappingStore interface {
	SaveMapping(ctx context.Context, m mapping.Mapping) (mapping.Mapping, error)
	GetMapping(ctx context.Context, key mapping.Mapping) (mapping.Mapping, error)
	ListMappings(ctx context.Context, kind mapping.Kind, organizationPartyID string) ([]mapping.Mapping, error)
	DeleteMapping(ctx context.Context, key mapping.Mapping) error
}

// WorkEffortFilter narrows work effort listings.
type WorkEffortFilter struct {
	WorkEffortTypeID string
	StatusID         string
	ProductID        string
}

// ManufacturingStore persists routings, tasks, production runs, BOMs, and
// cost components.
type ManufacturingStore interface {
	CreateWorkEffort(ctx context.Context, we manufacturing.WorkEffort) (manufacturing.WorkEffort, error)
	UpdateWorkEffort(ctx context.Context, we manufacturing.WorkEffort) (manufacturing.WorkEffort, error)
	GetWorkEffort(ctx context.Context, id string) (manufacturing.WorkEffort, error)
	ListWorkEfforts(ctx context.Context, filter WorkEffortFilter) ([]manufacturing.WorkEffort, error)

	CreateWorkEffortAssoc(ctx context.Context, assoc manufacturing.WorkEffortAssoc) error
	ListWorkEffortAssocs(ctx context.Context, workEffortIDFrom string) ([]manufacturing.WorkEffortAssoc, error)

	CreateBom(ctx context.Context, bom manufacturing.BillOfMaterial) (manufacturing.BillOfMaterial, error)
	ListBoms(ctx context.Context, productID string) ([]manufacturing.BillOfMaterial, error)
	DeleteBom(ctx context.Context, productID, productIDTo string, fromDate time.Time) error

	SaveCostCalc(ctx context.Context, calc manufacturing.CostComponentCalc) (manufacturing.CostComponentCalc, error)
	GetCostCalc(ctx context.Context, id string) (manufacturing.CostComponentCalc, error)
	ListCostCalcs(ctx context.Context) ([]manufacturing.CostComponentCalc, error)
	DeleteCostCalc(ctx context.Context, id string) error

	CreateWorkEffortCostCalc(ctx context.Context, link manufacturing.WorkEffortCostCalc) error
	ListWorkEffortCostCalcs(ctx context.Context, workEffortID string) ([]manufacturing.WorkEffortCostCalc, error)
}
