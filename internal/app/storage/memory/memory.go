// Package memory is an in-memory implementation of the storage interfaces.
// It is safe for concurrent use and is primarily intended for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// Store keeps every record in maps guarded by one RWMutex.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	glAccounts      map[string]ledger.GlAccount
	glAccountOrgs   map[string][]ledger.GlAccountOrganization
	glAccountTypes  map[string]ledger.GlAccountType
	glAccountClass  map[string]ledger.GlAccountClass
	acctgPrefs      map[string]ledger.PartyAcctgPreference
	transactions    map[string]ledger.AcctgTrans
	entries         map[string][]ledger.AcctgTransEntry
	timePeriods     map[string]period.CustomTimePeriod
	mappings        map[string]mapping.Mapping
	workEfforts     map[string]manufacturing.WorkEffort
	workAssocs      map[string][]manufacturing.WorkEffortAssoc
	boms            map[string][]manufacturing.BillOfMaterial
	costCalcs       map[string]manufacturing.CostComponentCalc
	workEffortCosts map[string][]manufacturing.WorkEffortCostCalc
}

var _ storage.ChartStore = (*Store)(nil)
var _ storage.TransactionStore = (*Store)(nil)
var _ storage.PeriodStore = (*Store)(nil)
var _ storage.MappingStore = (*Store)(nil)
var _ storage.ManufacturingStore = (*Store)(nil)

// New creates an empty store pre-seeded with the standard GL account type
// and class lookup rows.
func New() *Store {
	s := &Store{
		nextID:          1,
		glAccounts:      make(map[string]ledger.GlAccount),
		glAccountOrgs:   make(map[string][]ledger.GlAccountOrganization),
		glAccountTypes:  make(map[string]ledger.GlAccountType),
		glAccountClass:  make(map[string]ledger.GlAccountClass),
		acctgPrefs:      make(map[string]ledger.PartyAcctgPreference),
		transactions:    make(map[string]ledger.AcctgTrans),
		entries:         make(map[string][]ledger.AcctgTransEntry),
		timePeriods:     make(map[string]period.CustomTimePeriod),
		mappings:        make(map[string]mapping.Mapping),
		workEfforts:     make(map[string]manufacturing.WorkEffort),
		workAssocs:      make(map[string][]manufacturing.WorkEffortAssoc),
		boms:            make(map[string][]manufacturing.BillOfMaterial),
		costCalcs:       make(map[string]manufacturing.CostComponentCalc),
		workEffortCosts: make(map[string][]manufacturing.WorkEffortCostCalc),
	}
	for _, t := range []ledger.GlAccountType{
		{GlAccountTypeID: "ACCTS_REC", Description: "Accounts Receivable"},
		{GlAccountTypeID: "ACCTS_PAY", Description: "Accounts Payable"},
		{GlAccountTypeID: "BANK_ACCOUNT", Description: "Bank Account"},
		{GlAccountTypeID: "SALES", Description: "Sales"},
		{GlAccountTypeID: "COGS_ACCOUNT", Description: "Cost of Goods Sold"},
		{GlAccountTypeID: "INVENTORY_ACCOUNT", Description: "Inventory"},
		{GlAccountTypeID: "RETAINED_EARNINGS", Description: "Retained Earnings"},
	} {
		s.glAccountTypes[t.GlAccountTypeID] = t
	}
	for _, c := range []ledger.GlAccountClass{
		{GlAccountClassID: ledger.ClassAsset, Description: "Asset", IsDebit: true},
		{GlAccountClassID: ledger.ClassCash, Description: "Cash", IsDebit: true},
		{GlAccountClassID: ledger.ClassExpense, Description: "Expense", IsDebit: true},
		{GlAccountClassID: ledger.ClassLiability, Description: "Liability", IsDebit: false},
		{GlAccountClassID: ledger.ClassEquity, Description: "Equity", IsDebit: false},
		{GlAccountClassID: ledger.ClassRevenue, Description: "Revenue", IsDebit: false},
	} {
		s.glAccountClass[c.GlAccountClassID] = c
	}
	return s
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// ChartStore implementation --------------------------------------------------

func (s *Store) CreateGlAccount(_ context.Context, acct ledger.GlAccount) (ledger.GlAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.GlAccountID == "" {
		acct.GlAccountID = s.nextIDLocked()
	} else if _, exists := s.glAccounts[acct.GlAccountID]; exists {
		return ledger.GlAccount{}, apperrors.Conflict("gl account %s already exists", acct.GlAccountID)
	}

	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now
	s.glAccounts[acct.GlAccountID] = acct
	return acct, nil
}

func (s *Store) UpdateGlAccount(_ context.Context, acct ledger.GlAccount) (ledger.GlAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.glAccounts[acct.GlAccountID]
	if !ok {
		return ledger.GlAccount{}, apperrors.NotFound("gl account %s not found", acct.GlAccountID)
	}
	acct.CreatedAt = original.CreatedAt
	acct.UpdatedAt = time.Now().UTC()
	s.glAccounts[acct.GlAccountID] = acct
	return acct, nil
}

func (s *Store) GetGlAccount(_ context.Context, id string) (ledger.GlAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.glAccounts[id]
	if !ok {
		return ledger.GlAccount{}, apperrors.NotFound("gl account %s not found", id)
	}
	return acct, nil
}

func (s *Store) ListGlAccounts(_ context.Context, organizationPartyID string) ([]ledger.GlAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.GlAccount
	if organizationPartyID == "" {
		for _, acct := range s.glAccounts {
			out = append(out, acct)
		}
	} else {
		for _, assoc := range s.glAccountOrgs[organizationPartyID] {
			if acct, ok := s.glAccounts[assoc.GlAccountID]; ok {
				out = append(out, acct)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlAccountID < out[j].GlAccountID })
	return out, nil
}

func (s *Store) AssignGlAccountToOrganization(_ context.Context, assoc ledger.GlAccountOrganization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.glAccounts[assoc.GlAccountID]; !ok {
		return apperrors.NotFound("gl account %s not found", assoc.GlAccountID)
	}
	for _, existing := range s.glAccountOrgs[assoc.OrganizationPartyID] {
		if existing.GlAccountID == assoc.GlAccountID {
			return nil
		}
	}
	s.glAccountOrgs[assoc.OrganizationPartyID] = append(s.glAccountOrgs[assoc.OrganizationPartyID], assoc)
	return nil
}

func (s *Store) ListGlAccountTypes(_ context.Context) ([]ledger.GlAccountType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.GlAccountType, 0, len(s.glAccountTypes))
	for _, t := range s.glAccountTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlAccountTypeID < out[j].GlAccountTypeID })
	return out, nil
}

func (s *Store) ListGlAccountClasses(_ context.Context) ([]ledger.GlAccountClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.GlAccountClass, 0, len(s.glAccountClass))
	for _, c := range s.glAccountClass {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlAccountClassID < out[j].GlAccountClassID })
	return out, nil
}

func (s *Store) GetAcctgPreference(_ context.Context, organizationPartyID string) (ledger.PartyAcctgPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.acctgPrefs[organizationPartyID]
	if !ok {
		return ledger.PartyAcctgPreference{}, apperrors.NotFound("accounting preference for %s not found", organizationPartyID)
	}
	return pref, nil
}

func (s *Store) SaveAcctgPreference(_ context.Context, pref ledger.PartyAcctgPreference) (ledger.PartyAcctgPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acctgPrefs[pref.OrganizationPartyID] = pref
	return pref, nil
}

// TransactionStore implementation --------------------------------------------

func (s *Store) CreateTransaction(_ context.Context, trans ledger.AcctgTrans, entries []ledger.AcctgTransEntry) (ledger.AcctgTrans, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trans.AcctgTransID == "" {
		trans.AcctgTransID = s.nextIDLocked()
	} else if _, exists := s.transactions[trans.AcctgTransID]; exists {
		return ledger.AcctgTrans{}, apperrors.Conflict("acctg trans %s already exists", trans.AcctgTransID)
	}

	now := time.Now().UTC()
	trans.CreatedAt = now
	trans.UpdatedAt = now

	copied := make([]ledger.AcctgTransEntry, len(entries))
	for i, e := range entries {
		e.AcctgTransID = trans.AcctgTransID
		e.SeqID = i + 1
		copied[i] = e
	}
	s.transactions[trans.AcctgTransID] = trans
	s.entries[trans.AcctgTransID] = copied
	return trans, nil
}

func (s *Store) UpdateTransaction(_ context.Context, trans ledger.AcctgTrans) (ledger.AcctgTrans, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.transactions[trans.AcctgTransID]
	if !ok {
		return ledger.AcctgTrans{}, apperrors.NotFound("acctg trans %s not found", trans.AcctgTransID)
	}
	trans.CreatedAt = original.CreatedAt
	trans.UpdatedAt = time.Now().UTC()
	s.transactions[trans.AcctgTransID] = trans
	return trans, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (ledger.AcctgTrans, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trans, ok := s.transactions[id]
	if !ok {
		return ledger.AcctgTrans{}, apperrors.NotFound("acctg trans %s not found", id)
	}
	return trans, nil
}

func (s *Store) ListTransactions(_ context.Context, filter storage.TransFilter) ([]ledger.AcctgTrans, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.AcctgTrans
	for _, trans := range s.transactions {
		if !matchTrans(trans, filter) {
			continue
		}
		out = append(out, trans)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].AcctgTransID < out[j].AcctgTransID
		}
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}

func matchTrans(trans ledger.AcctgTrans, filter storage.TransFilter) bool {
	if filter.OrganizationPartyID != "" && trans.OrganizationPartyID != filter.OrganizationPartyID {
		return false
	}
	if filter.GlFiscalTypeID != "" && trans.GlFiscalTypeID != filter.GlFiscalTypeID {
		return false
	}
	if filter.IsPosted != nil && trans.IsPosted != *filter.IsPosted {
		return false
	}
	if filter.FromDate != nil && trans.TransactionDate.Before(*filter.FromDate) {
		return false
	}
	if filter.ThruDate != nil && !trans.TransactionDate.Before(*filter.ThruDate) {
		return false
	}
	return true
}

func (s *Store) ListEntries(_ context.Context, acctgTransID string) ([]ledger.AcctgTransEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.entries[acctgTransID]
	if !ok {
		if _, exists := s.transactions[acctgTransID]; !exists {
			return nil, apperrors.NotFound("acctg trans %s not found", acctgTransID)
		}
	}
	out := make([]ledger.AcctgTransEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) ListLedgerLines(_ context.Context, filter storage.EntryFilter) ([]storage.LedgerLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.LedgerLine
	for transID, entries := range s.entries {
		trans, ok := s.transactions[transID]
		if !ok {
			continue
		}
		if !matchTrans(trans, storage.TransFilter{
			OrganizationPartyID: filter.OrganizationPartyID,
			GlFiscalTypeID:      filter.GlFiscalTypeID,
			FromDate:            filter.FromDate,
			ThruDate:            filter.ThruDate,
			IsPosted:            filter.IsPosted,
		}) {
			continue
		}
		for _, e := range entries {
			if filter.GlAccountID != "" && e.GlAccountID != filter.GlAccountID {
				continue
			}
			out = append(out, storage.LedgerLine{
				Entry:           e,
				TransactionDate: trans.TransactionDate,
				IsPosted:        trans.IsPosted,
				GlFiscalTypeID:  trans.GlFiscalTypeID,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionDate.Equal(out[j].TransactionDate) {
			if out[i].Entry.AcctgTransID == out[j].Entry.AcctgTransID {
				return out[i].Entry.SeqID < out[j].Entry.SeqID
			}
			return out[i].Entry.AcctgTransID < out[j].Entry.AcctgTransID
		}
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}

// PeriodStore implementation -------------------------------------------------

func (s *Store) CreateTimePeriod(_ context.Context, p period.CustomTimePeriod) (period.CustomTimePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CustomTimePeriodID == "" {
		p.CustomTimePeriodID = s.nextIDLocked()
	} else if _, exists := s.timePeriods[p.CustomTimePeriodID]; exists {
		return period.CustomTimePeriod{}, apperrors.Conflict("time period %s already exists", p.CustomTimePeriodID)
	}
	s.timePeriods[p.CustomTimePeriodID] = p
	return p, nil
}

func (s *Store) GetTimePeriod(_ context.Context, id string) (period.CustomTimePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.timePeriods[id]
	if !ok {
		return period.CustomTimePeriod{}, apperrors.NotFound("time period %s not found", id)
	}
	return p, nil
}

func (s *Store) ListTimePeriods(_ context.Context, organizationPartyID string) ([]period.CustomTimePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []period.CustomTimePeriod
	for _, p := range s.timePeriods {
		if organizationPartyID != "" && p.OrganizationPartyID != organizationPartyID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromDate.Equal(out[j].FromDate) {
			return out[i].CustomTimePeriodID < out[j].CustomTimePeriodID
		}
		return out[i].FromDate.Before(out[j].FromDate)
	})
	return out, nil
}

// CloseTimePeriod marks the period closed, then runs the closer. The closed
// flag is restored when the closer fails so the failed close is invisible,
// mirroring the transactional behaviour of the SQL store.
func (s *Store) CloseTimePeriod(ctx context.Context, organizationPartyID, customTimePeriodID string, closer storage.GeneralLedgerCloser) (period.CustomTimePeriod, error) {
	s.mu.Lock()
	p, ok := s.timePeriods[customTimePeriodID]
	if !ok || p.OrganizationPartyID != organizationPartyID {
		s.mu.Unlock()
		return period.CustomTimePeriod{}, apperrors.NotFound("time period %s not found", customTimePeriodID)
	}
	original := p
	now := time.Now().UTC()
	p.IsClosed = true
	p.ClosedDate = &now
	s.timePeriods[customTimePeriodID] = p
	s.mu.Unlock()

	if closer != nil {
		if err := closer.CloseFinancialTimePeriod(ctx, organizationPartyID, customTimePeriodID); err != nil {
			s.mu.Lock()
			s.timePeriods[customTimePeriodID] = original
			s.mu.Unlock()
			return period.CustomTimePeriod{}, err
		}
	}
	return p, nil
}

// MappingStore implementation ------------------------------------------------

func (s *Store) SaveMapping(_ context.Context, m mapping.Mapping) (mapping.Mapping, error) {
	if err := m.ValidateKey(); err != nil {
		return mapping.Mapping{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings[m.CompositeKey()] = m
	return m, nil
}

func (s *Store) GetMapping(_ context.Context, key mapping.Mapping) (mapping.Mapping, error) {
	if err := key.ValidateKey(); err != nil {
		return mapping.Mapping{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[key.CompositeKey()]
	if !ok {
		return mapping.Mapping{}, apperrors.NotFound("record not found")
	}
	return m, nil
}

func (s *Store) ListMappings(_ context.Context, kind mapping.Kind, organizationPartyID string) ([]mapping.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []mapping.Mapping
	for _, m := range s.mappings {
		if m.Kind != kind {
			continue
		}
		if organizationPartyID != "" && m.OrganizationPartyID != organizationPartyID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompositeKey() < out[j].CompositeKey() })
	return out, nil
}

func (s *Store) DeleteMapping(_ context.Context, key mapping.Mapping) error {
	if err := key.ValidateKey(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ck := key.CompositeKey()
	if _, ok := s.mappings[ck]; !ok {
		return apperrors.NotFound("record not found")
	}
	delete(s.mappings, ck)
	return nil
}

// MappingCount reports the number of stored mapping rows. Test helper.
func (s *Store) MappingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}

// ManufacturingStore implementation ------------------------------------------

func (s *Store) CreateWorkEffort(_ context.Context, we manufacturing.WorkEffort) (manufacturing.WorkEffort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if we.WorkEffortID == "" {
		we.WorkEffortID = s.nextIDLocked()
	} else if _, exists := s.workEfforts[we.WorkEffortID]; exists {
		return manufacturing.WorkEffort{}, apperrors.Conflict("work effort %s already exists", we.WorkEffortID)
	}
	now := time.Now().UTC()
	we.CreatedAt = now
	we.UpdatedAt = now
	s.workEfforts[we.WorkEffortID] = we
	return we, nil
}

func (s *Store) UpdateWorkEffort(_ context.Context, we manufacturing.WorkEffort) (manufacturing.WorkEffort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.workEfforts[we.WorkEffortID]
	if !ok {
		return manufacturing.WorkEffort{}, apperrors.NotFound("work effort %s not found", we.WorkEffortID)
	}
	we.CreatedAt = original.CreatedAt
	we.UpdatedAt = time.Now().UTC()
	s.workEfforts[we.WorkEffortID] = we
	return we, nil
}

func (s *Store) GetWorkEffort(_ context.Context, id string) (manufacturing.WorkEffort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	we, ok := s.workEfforts[id]
	if !ok {
		return manufacturing.WorkEffort{}, apperrors.NotFound("work effort %s not found", id)
	}
	return we, nil
}

func (s *Store) ListWorkEfforts(_ context.Context, filter storage.WorkEffortFilter) ([]manufacturing.WorkEffort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []manufacturing.WorkEffort
	for _, we := range s.workEfforts {
		if filter.WorkEffortTypeID != "" && we.WorkEffortTypeID != filter.WorkEffortTypeID {
			continue
		}
		if filter.StatusID != "" && we.StatusID != filter.StatusID {
			continue
		}
		if filter.ProductID != "" && we.ProductID != filter.ProductID {
			continue
		}
		out = append(out, we)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkEffortID < out[j].WorkEffortID })
	return out, nil
}

func (s *Store) CreateWorkEffortAssoc(_ context.Context, assoc manufacturing.WorkEffortAssoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workEfforts[assoc.WorkEffortIDFrom]; !ok {
		return apperrors.NotFound("work effort %s not found", assoc.WorkEffortIDFrom)
	}
	if _, ok := s.workEfforts[assoc.WorkEffortIDTo]; !ok {
		return apperrors.NotFound("work effort %s not found", assoc.WorkEffortIDTo)
	}
	s.workAssocs[assoc.WorkEffortIDFrom] = append(s.workAssocs[assoc.WorkEffortIDFrom], assoc)
	return nil
}

func (s *Store) ListWorkEffortAssocs(_ context.Context, workEffortIDFrom string) ([]manufacturing.WorkEffortAssoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assocs := s.workAssocs[workEffortIDFrom]
	out := make([]manufacturing.WorkEffortAssoc, len(assocs))
	copy(out, assocs)
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNum < out[j].SequenceNum })
	return out, nil
}

func (s *Store) CreateBom(_ context.Context, bom manufacturing.BillOfMaterial) (manufacturing.BillOfMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.boms[bom.ProductID] {
		if existing.ProductIDTo == bom.ProductIDTo && existing.FromDate.Equal(bom.FromDate) {
			return manufacturing.BillOfMaterial{}, apperrors.Conflict("bom component %s already exists for %s", bom.ProductIDTo, bom.ProductID)
		}
	}
	s.boms[bom.ProductID] = append(s.boms[bom.ProductID], bom)
	return bom, nil
}

func (s *Store) ListBoms(_ context.Context, productID string) ([]manufacturing.BillOfMaterial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.boms[productID]
	out := make([]manufacturing.BillOfMaterial, len(lines))
	copy(out, lines)
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNum < out[j].SequenceNum })
	return out, nil
}

func (s *Store) DeleteBom(_ context.Context, productID, productIDTo string, fromDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.boms[productID]
	for i, b := range lines {
		if b.ProductIDTo == productIDTo && b.FromDate.Equal(fromDate) {
			s.boms[productID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("record not found")
}

func (s *Store) SaveCostCalc(_ context.Context, calc manufacturing.CostComponentCalc) (manufacturing.CostComponentCalc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if calc.CostComponentCalcID == "" {
		calc.CostComponentCalcID = s.nextIDLocked()
	}
	s.costCalcs[calc.CostComponentCalcID] = calc
	return calc, nil
}

func (s *Store) GetCostCalc(_ context.Context, id string) (manufacturing.CostComponentCalc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calc, ok := s.costCalcs[id]
	if !ok {
		return manufacturing.CostComponentCalc{}, apperrors.NotFound("cost component calc %s not found", id)
	}
	return calc, nil
}

func (s *Store) ListCostCalcs(_ context.Context) ([]manufacturing.CostComponentCalc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]manufacturing.CostComponentCalc, 0, len(s.costCalcs))
	for _, calc := range s.costCalcs {
		out = append(out, calc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CostComponentCalcID < out[j].CostComponentCalcID })
	return out, nil
}

func (s *Store) DeleteCostCalc(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.costCalcs[id]; !ok {
		return apperrors.NotFound("record not found")
	}
	delete(s.costCalcs, id)
	return nil
}

func (s *Store) CreateWorkEffortCostCalc(_ context.Context, link manufacturing.WorkEffortCostCalc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workEfforts[link.WorkEffortID]; !ok {
		return apperrors.NotFound("work effort %s not found", link.WorkEffortID)
	}
	if _, ok := s.costCalcs[link.CostComponentCalcID]; !ok {
		return apperrors.NotFound("cost component calc %s not found", link.CostComponentCalcID)
	}
	s.workEffortCosts[link.WorkEffortID] = append(s.workEffortCosts[link.WorkEffortID], link)
	return nil
}

func (s *Store) ListWorkEffortCostCalcs(_ context.Context, workEffortID string) ([]manufacturing.WorkEffortCostCalc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := s.workEffortCosts[workEffortID]
	out := make([]manufacturing.WorkEffortCostCalc, len(links))
	copy(out, links)
	return out, nil
}
