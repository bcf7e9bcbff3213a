// Package ledger manages accounting transactions: drafts, posting, and
// debit/credit totals.
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/logging"
)

// Publisher emits an event after a transaction posts. A nil publisher
// disables publishing.
type Publisher interface {
	PublishTransactionPosted(ctx context.Context, trans domain.AcctgTrans, entries []domain.AcctgTransEntry) error
}

var _ storage.GeneralLedgerCloser = (*Service)(nil)

// Service manages accounting transactions.
type Service struct {
	store     storage.TransactionStore
	periods   storage.PeriodStore
	publisher Publisher
	log       *logging.Logger
}

// New constructs a ledger service. periods and publisher may be nil; a nil
// periods store skips the closed-period check.
func New(store storage.TransactionStore, periods storage.PeriodStore, publisher Publisher, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("ledger")
	}
	return &Service{store: store, periods: periods, publisher: publisher, log: log}
}

// CreateDraft persists an unposted transaction. Drafts may be unbalanced;
// balance is enforced at posting time.
func (s *Service) CreateDraft(ctx context.Context, trans domain.AcctgTrans, entries []domain.AcctgTransEntry) (domain.AcctgTrans, error) {
	if trans.OrganizationPartyID == "" {
		return domain.AcctgTrans{}, apperrors.Validation("organizationPartyId is required")
	}
	if trans.TransactionDate.IsZero() {
		return domain.AcctgTrans{}, apperrors.Validation("transactionDate is required")
	}
	if trans.AcctgTransTypeID == "" {
		trans.AcctgTransTypeID = "INTERNAL_ACCTG_TRANS"
	}
	if trans.GlFiscalTypeID == "" {
		trans.GlFiscalTypeID = domain.FiscalTypeActual
	}
	trans.IsPosted = false
	trans.PostedDate = nil

	created, err := s.store.CreateTransaction(ctx, trans, entries)
	if err != nil {
		return domain.AcctgTrans{}, err
	}
	s.log.WithContext(ctx).
		WithField("acctg_trans_id", created.AcctgTransID).
		WithField("organization_party_id", created.OrganizationPartyID).
		Info("transaction draft created")
	return created, nil
}

// Post validates and posts a draft transaction: entries must balance and the
// transaction date must not fall in a closed period.
func (s *Service) Post(ctx context.Context, organizationPartyID, acctgTransID string) (domain.AcctgTrans, error) {
	trans, err := s.store.GetTransaction(ctx, acctgTransID)
	if err != nil {
		return domain.AcctgTrans{}, err
	}
	if trans.OrganizationPartyID != organizationPartyID {
		return domain.AcctgTrans{}, apperrors.NotFound("acctg trans %s not found", acctgTransID)
	}
	if trans.IsPosted {
		return domain.AcctgTrans{}, apperrors.Conflict("acctg trans %s is already posted", acctgTransID)
	}

	entries, err := s.store.ListEntries(ctx, acctgTransID)
	if err != nil {
		return domain.AcctgTrans{}, err
	}
	if err := domain.ValidateEntries(entries); err != nil {
		return domain.AcctgTrans{}, err
	}
	if err := s.checkOpenPeriod(ctx, organizationPartyID, trans.TransactionDate); err != nil {
		return domain.AcctgTrans{}, err
	}

	now := time.Now().UTC()
	trans.IsPosted = true
	trans.PostedDate = &now
	posted, err := s.store.UpdateTransaction(ctx, trans)
	if err != nil {
		return domain.AcctgTrans{}, err
	}

	s.log.WithContext(ctx).
		WithField("acctg_trans_id", posted.AcctgTransID).
		WithField("organization_party_id", posted.OrganizationPartyID).
		Info("transaction posted")

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionPosted(ctx, posted, entries); err != nil {
			// The post has committed; a publish failure is logged, not
			// surfaced.
			s.log.WithContext(ctx).WithError(err).
				WithField("acctg_trans_id", posted.AcctgTransID).
				Warn("failed to publish posted-transaction event")
		}
	}
	return posted, nil
}

// Get returns one transaction scoped to the organization.
func (s *Service) Get(ctx context.Context, organizationPartyID, acctgTransID string) (domain.AcctgTrans, error) {
	trans, err := s.store.GetTransaction(ctx, acctgTransID)
	if err != nil {
		return domain.AcctgTrans{}, err
	}
	if trans.OrganizationPartyID != organizationPartyID {
		return domain.AcctgTrans{}, apperrors.NotFound("acctg trans %s not found", acctgTransID)
	}
	return trans, nil
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, filter storage.TransFilter) ([]domain.AcctgTrans, error) {
	if filter.OrganizationPartyID == "" {
		return nil, apperrors.Validation("organizationPartyId is required")
	}
	return s.store.ListTransactions(ctx, filter)
}

// ListEntries returns a transaction's entries.
func (s *Service) ListEntries(ctx context.Context, organizationPartyID, acctgTransID string) ([]domain.AcctgTransEntry, error) {
	if _, err := s.Get(ctx, organizationPartyID, acctgTransID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, acctgTransID)
}

// AccountTotal is the per-account debit/credit rollup inside a totals result.
type AccountTotal struct {
	GlAccountID string          `json:"glAccountId"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TotalsSection groups account totals with their grand totals.
type TotalsSection struct {
	Accounts    []AccountTotal  `json:"accounts"`
	GrandDebit  decimal.Decimal `json:"grandDebit"`
	GrandCredit decimal.Decimal `json:"grandCredit"`
}

// TransactionTotals reports posted and unposted debit/credit totals per GL
// account over a date range.
type TransactionTotals struct {
	Posted   TotalsSection `json:"posted"`
	Unposted TotalsSection `json:"unposted"`
}

// Totals aggregates entry amounts for an organization between fromDate and
// thruDate (exclusive).
func (s *Service) Totals(ctx context.Context, organizationPartyID string, fromDate, thruDate *time.Time) (TransactionTotals, error) {
	if organizationPartyID == "" {
		return TransactionTotals{}, apperrors.Validation("organizationPartyId is required")
	}

	lines, err := s.store.ListLedgerLines(ctx, storage.EntryFilter{
		OrganizationPartyID: organizationPartyID,
		GlFiscalTypeID:      domain.FiscalTypeActual,
		FromDate:            fromDate,
		ThruDate:            thruDate,
	})
	if err != nil {
		return TransactionTotals{}, err
	}

	posted := map[string]*AccountTotal{}
	unposted := map[string]*AccountTotal{}
	for _, line := range lines {
		bucket := unposted
		if line.IsPosted {
			bucket = posted
		}
		total, ok := bucket[line.Entry.GlAccountID]
		if !ok {
			total = &AccountTotal{GlAccountID: line.Entry.GlAccountID}
			bucket[line.Entry.GlAccountID] = total
		}
		if line.Entry.DebitCreditFlag == domain.Debit {
			total.Debit = total.Debit.Add(line.Entry.Amount)
		} else {
			total.Credit = total.Credit.Add(line.Entry.Amount)
		}
	}

	return TransactionTotals{
		Posted:   buildSection(posted),
		Unposted: buildSection(unposted),
	}, nil
}

func buildSection(totals map[string]*AccountTotal) TotalsSection {
	section := TotalsSection{Accounts: []AccountTotal{}}
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := totals[id]
		section.Accounts = append(section.Accounts, *t)
		section.GrandDebit = section.GrandDebit.Add(t.Debit)
		section.GrandCredit = section.GrandCredit.Add(t.Credit)
	}
	return section
}

// CloseFinancialTimePeriod is the ledger side of a period close. The close
// is refused while draft transactions remain dated inside the period.
func (s *Service) CloseFinancialTimePeriod(ctx context.Context, organizationPartyID, customTimePeriodID string) error {
	if s.periods == nil {
		return nil
	}
	p, err := s.periods.GetTimePeriod(ctx, customTimePeriodID)
	if err != nil {
		return err
	}

	unposted := false
	drafts, err := s.store.ListTransactions(ctx, storage.TransFilter{
		OrganizationPartyID: organizationPartyID,
		FromDate:            &p.FromDate,
		ThruDate:            &p.ThruDate,
		IsPosted:            &unposted,
	})
	if err != nil {
		return err
	}
	if len(drafts) > 0 {
		return apperrors.Conflict("period %s has %d unposted transactions", customTimePeriodID, len(drafts))
	}
	return nil
}

// checkOpenPeriod rejects posting into a closed fiscal period.
func (s *Service) checkOpenPeriod(ctx context.Context, organizationPartyID string, transactionDate time.Time) error {
	if s.periods == nil {
		return nil
	}
	periods, err := s.periods.ListTimePeriods(ctx, organizationPartyID)
	if err != nil {
		return err
	}
	for _, p := range periods {
		if p.IsClosed && p.Contains(transactionDate) {
			return apperrors.Conflict("period %s is closed for %s", p.CustomTimePeriodID, transactionDate.Format("2006-01-02"))
		}
	}
	return nil
}
