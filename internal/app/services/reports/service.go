// Package reports builds the financial statements: trial balance, income
// statement, balance sheet, and cash flow.
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/logging"
)

// Service aggregates posted ledger lines into statements.
type Service struct {
	chart   storage.ChartStore
	trans   storage.TransactionStore
	periods storage.PeriodStore
	log     *logging.Logger
}

// New constructs a reports service.
func New(chart storage.ChartStore, trans storage.TransactionStore, periods storage.PeriodStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("reports")
	}
	return &Service{chart: chart, trans: trans, periods: periods, log: log}
}

// accountInfo joins an account with its class nature for signed balances.
type accountInfo struct {
	account ledger.GlAccount
	isDebit bool
}

func (s *Service) accountIndex(ctx context.Context, organizationPartyID string) (map[string]accountInfo, error) {
	accts, err := s.chart.ListGlAccounts(ctx, organizationPartyID)
	if err != nil {
		return nil, err
	}
	classes, err := s.chart.ListGlAccountClasses(ctx)
	if err != nil {
		return nil, err
	}
	classDebit := make(map[string]bool, len(classes))
	for _, c := range classes {
		classDebit[c.GlAccountClassID] = c.IsDebit
	}

	index := make(map[string]accountInfo, len(accts))
	for _, a := range accts {
		index[a.GlAccountID] = accountInfo{account: a, isDebit: classDebit[a.GlAccountClassID]}
	}
	return index, nil
}

// sums holds raw debit/credit totals per account.
type sums struct {
	debit  map[string]decimal.Decimal
	credit map[string]decimal.Decimal
}

func newSums() sums {
	return sums{debit: map[string]decimal.Decimal{}, credit: map[string]decimal.Decimal{}}
}

func (s sums) add(line storage.LedgerLine) {
	id := line.Entry.GlAccountID
	if line.Entry.DebitCreditFlag == ledger.Debit {
		s.debit[id] = s.debit[id].Add(line.Entry.Amount)
	} else {
		s.credit[id] = s.credit[id].Add(line.Entry.Amount)
	}
}

func (s *Service) postedSums(ctx context.Context, organizationPartyID, glFiscalTypeID string, from, thru *time.Time) (sums, error) {
	if glFiscalTypeID == "" {
		glFiscalTypeID = ledger.FiscalTypeActual
	}
	posted := true
	lines, err := s.trans.ListLedgerLines(ctx, storage.EntryFilter{
		OrganizationPartyID: organizationPartyID,
		GlFiscalTypeID:      glFiscalTypeID,
		FromDate:            from,
		ThruDate:            thru,
		IsPosted:            &posted,
	})
	if err != nil {
		return sums{}, err
	}
	out := newSums()
	for _, line := range lines {
		out.add(line)
	}
	return out, nil
}

// exclusiveUpper makes an inclusive as-of date usable as an exclusive upper
// bound.
func exclusiveUpper(asOf time.Time) *time.Time {
	t := asOf.Add(time.Nanosecond)
	return &t
}

// TrialBalanceLine is one account row of a trial balance.
type TrialBalanceLine struct {
	GlAccountID string          `json:"glAccountId"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalance is the full statement with grand totals.
type TrialBalance struct {
	AsOf        time.Time          `json:"asOf"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"totalDebit"`
	TotalCredit decimal.Decimal    `json:"totalCredit"`
}

// BuildTrialBalance sums posted entries per account up to and including asOf.
// Debit-natured accounts report Balance = D−C, credit-natured C−D.
func (s *Service) BuildTrialBalance(ctx context.Context, organizationPartyID string, asOf time.Time, glFiscalTypeID string) (TrialBalance, error) {
	if organizationPartyID == "" {
		return TrialBalance{}, apperrors.Validation("organizationPartyId is required")
	}

	index, err := s.accountIndex(ctx, organizationPartyID)
	if err != nil {
		return TrialBalance{}, err
	}
	totals, err := s.postedSums(ctx, organizationPartyID, glFiscalTypeID, nil, exclusiveUpper(asOf))
	if err != nil {
		return TrialBalance{}, err
	}

	tb := TrialBalance{AsOf: asOf, Lines: []TrialBalanceLine{}}
	for _, id := range sortedAccountIDs(totals) {
		d := totals.debit[id]
		c := totals.credit[id]
		line := TrialBalanceLine{GlAccountID: id, Debit: d, Credit: c}
		info, known := index[id]
		if known {
			line.AccountName = info.account.AccountName
		}
		if !known || info.isDebit {
			line.Balance = d.Sub(c)
		} else {
			line.Balance = c.Sub(d)
		}
		tb.Lines = append(tb.Lines, line)
		tb.TotalDebit = tb.TotalDebit.Add(d)
		tb.TotalCredit = tb.TotalCredit.Add(c)
	}
	return tb, nil
}

func sortedAccountIDs(totals sums) []string {
	seen := map[string]bool{}
	var ids []string
	for id := range totals.debit {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range totals.credit {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// MonthRow is one month of a single-account trial balance.
type MonthRow struct {
	Month                  time.Time       `json:"month"`
	Debit                  decimal.Decimal `json:"debit"`
	Credit                 decimal.Decimal `json:"credit"`
	TotalOfYearToDateDebit decimal.Decimal `json:"totalOfYearToDateDebit"`
	TotalOfYearToDateCredit decimal.Decimal `json:"totalOfYearToDateCredit"`
	Balance                decimal.Decimal `json:"balance"`
}

// GlAccountTrialBalance is the month-by-month activity of one account over a
// fiscal period.
type GlAccountTrialBalance struct {
	GlAccountID    string          `json:"glAccountId"`
	PeriodID       string          `json:"customTimePeriodId"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Months         []MonthRow      `json:"months"`
}

// BuildGlAccountTrialBalance loops the months of the period, accumulating
// year-to-date debit and credit totals; Balance is the signed YTD difference
// per the account's nature, on top of the opening balance.
func (s *Service) BuildGlAccountTrialBalance(ctx context.Context, organizationPartyID, glAccountID, customTimePeriodID string) (GlAccountTrialBalance, error) {
	if glAccountID == "" || customTimePeriodID == "" {
		return GlAccountTrialBalance{}, apperrors.Validation("glAccountId and customTimePeriodId are required")
	}
	p, err := s.periods.GetTimePeriod(ctx, customTimePeriodID)
	if err != nil {
		return GlAccountTrialBalance{}, err
	}
	if p.OrganizationPartyID != organizationPartyID {
		return GlAccountTrialBalance{}, apperrors.NotFound("time period %s not found", customTimePeriodID)
	}
	acct, err := s.chart.GetGlAccount(ctx, glAccountID)
	if err != nil {
		return GlAccountTrialBalance{}, err
	}
	classes, err := s.chart.ListGlAccountClasses(ctx)
	if err != nil {
		return GlAccountTrialBalance{}, err
	}
	isDebit := false
	for _, c := range classes {
		if c.GlAccountClassID == acct.GlAccountClassID {
			isDebit = c.IsDebit
			break
		}
	}

	posted := true
	signed := func(d, c decimal.Decimal) decimal.Decimal {
		if isDebit {
			return d.Sub(c)
		}
		return c.Sub(d)
	}

	// Opening balance: everything posted before the period starts.
	opening := decimal.Zero
	{
		from := p.FromDate
		lines, err := s.trans.ListLedgerLines(ctx, storage.EntryFilter{
			OrganizationPartyID: organizationPartyID,
			GlAccountID:         glAccountID,
			GlFiscalTypeID:      ledger.FiscalTypeActual,
			ThruDate:            &from,
			IsPosted:            &posted,
		})
		if err != nil {
			return GlAccountTrialBalance{}, err
		}
		d, c := decimal.Zero, decimal.Zero
		for _, line := range lines {
			if line.Entry.DebitCreditFlag == ledger.Debit {
				d = d.Add(line.Entry.Amount)
			} else {
				c = c.Add(line.Entry.Amount)
			}
		}
		opening = signed(d, c)
	}

	result := GlAccountTrialBalance{
		GlAccountID:    glAccountID,
		PeriodID:       customTimePeriodID,
		OpeningBalance: opening,
		Months:         []MonthRow{},
	}

	ytdDebit, ytdCredit := decimal.Zero, decimal.Zero
	monthStart := time.Date(p.FromDate.Year(), p.FromDate.Month(), 1, 0, 0, 0, 0, p.FromDate.Location())
	for monthStart.Before(p.ThruDate) {
		monthEnd := monthStart.AddDate(0, 1, 0)
		lines, err := s.trans.ListLedgerLines(ctx, storage.EntryFilter{
			OrganizationPartyID: organizationPartyID,
			GlAccountID:         glAccountID,
			GlFiscalTypeID:      ledger.FiscalTypeActual,
			FromDate:            &monthStart,
			ThruDate:            &monthEnd,
			IsPosted:            &posted,
		})
		if err != nil {
			return GlAccountTrialBalance{}, err
		}

		d, c := decimal.Zero, decimal.Zero
		for _, line := range lines {
			if line.Entry.DebitCreditFlag == ledger.Debit {
				d = d.Add(line.Entry.Amount)
			} else {
				c = c.Add(line.Entry.Amount)
			}
		}
		ytdDebit = ytdDebit.Add(d)
		ytdCredit = ytdCredit.Add(c)

		result.Months = append(result.Months, MonthRow{
			Month:                   monthStart,
			Debit:                   d,
			Credit:                  c,
			TotalOfYearToDateDebit:  ytdDebit,
			TotalOfYearToDateCredit: ytdCredit,
			Balance:                 opening.Add(signed(ytdDebit, ytdCredit)),
		})
		monthStart = monthEnd
	}
	return result, nil
}
