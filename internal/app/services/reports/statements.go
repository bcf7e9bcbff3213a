package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// StatementLine is one account row of a statement section.
type StatementLine struct {
	GlAccountID string          `json:"glAccountId"`
	AccountName string          `json:"accountName"`
	Amount      decimal.Decimal `json:"amount"`
}

// Section is a titled group of lines with a subtotal.
type Section struct {
	Title string          `json:"title"`
	Lines []StatementLine `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// IncomeStatement is the revenue/expense rollup for a date range.
type IncomeStatement struct {
	FromDate  time.Time       `json:"fromDate"`
	ThruDate  time.Time       `json:"thruDate"`
	Revenue   Section         `json:"revenue"`
	Expenses  Section         `json:"expenses"`
	NetIncome decimal.Decimal `json:"netIncome"`
}

// BuildIncomeStatement sums posted revenue and expense activity between
// fromDate and thruDate (exclusive).
func (s *Service) BuildIncomeStatement(ctx context.Context, organizationPartyID string, fromDate, thruDate time.Time, glFiscalTypeID string) (IncomeStatement, error) {
	if organizationPartyID == "" {
		return IncomeStatement{}, apperrors.Validation("organizationPartyId is required")
	}
	if !fromDate.Before(thruDate) {
		return IncomeStatement{}, apperrors.Validation("fromDate must be before thruDate")
	}

	index, err := s.accountIndex(ctx, organizationPartyID)
	if err != nil {
		return IncomeStatement{}, err
	}
	totals, err := s.postedSums(ctx, organizationPartyID, glFiscalTypeID, &fromDate, &thruDate)
	if err != nil {
		return IncomeStatement{}, err
	}

	stmt := IncomeStatement{
		FromDate: fromDate,
		ThruDate: thruDate,
		Revenue:  Section{Title: "Revenue", Lines: []StatementLine{}},
		Expenses: Section{Title: "Expenses", Lines: []StatementLine{}},
	}
	for _, id := range sortedAccountIDs(totals) {
		info, ok := index[id]
		if !ok {
			continue
		}
		switch info.account.GlAccountClassID {
		case ledger.ClassRevenue:
			amount := totals.credit[id].Sub(totals.debit[id])
			stmt.Revenue.Lines = append(stmt.Revenue.Lines, StatementLine{
				GlAccountID: id, AccountName: info.account.AccountName, Amount: amount,
			})
			stmt.Revenue.Total = stmt.Revenue.Total.Add(amount)
		case ledger.ClassExpense:
			amount := totals.debit[id].Sub(totals.credit[id])
			stmt.Expenses.Lines = append(stmt.Expenses.Lines, StatementLine{
				GlAccountID: id, AccountName: info.account.AccountName, Amount: amount,
			})
			stmt.Expenses.Total = stmt.Expenses.Total.Add(amount)
		}
	}
	stmt.NetIncome = stmt.Revenue.Total.Sub(stmt.Expenses.Total)
	return stmt, nil
}

// BalanceSheet is the asset/liability/equity statement as of a date.
type BalanceSheet struct {
	AsOf              time.Time       `json:"asOf"`
	Assets            Section         `json:"assets"`
	Liabilities       Section         `json:"liabilities"`
	Equity            Section         `json:"equity"`
	RetainedNetIncome decimal.Decimal `json:"retainedNetIncome"`
}

// BuildBalanceSheet sums posted balances per class up to and including asOf.
// Net income to date is folded into equity as retained net income so the
// sheet balances.
func (s *Service) BuildBalanceSheet(ctx context.Context, organizationPartyID string, asOf time.Time, glFiscalTypeID string) (BalanceSheet, error) {
	if organizationPartyID == "" {
		return BalanceSheet{}, apperrors.Validation("organizationPartyId is required")
	}

	index, err := s.accountIndex(ctx, organizationPartyID)
	if err != nil {
		return BalanceSheet{}, err
	}
	totals, err := s.postedSums(ctx, organizationPartyID, glFiscalTypeID, nil, exclusiveUpper(asOf))
	if err != nil {
		return BalanceSheet{}, err
	}

	sheet := BalanceSheet{
		AsOf:        asOf,
		Assets:      Section{Title: "Assets", Lines: []StatementLine{}},
		Liabilities: Section{Title: "Liabilities", Lines: []StatementLine{}},
		Equity:      Section{Title: "Equity", Lines: []StatementLine{}},
	}
	for _, id := range sortedAccountIDs(totals) {
		info, ok := index[id]
		if !ok {
			continue
		}
		d := totals.debit[id]
		c := totals.credit[id]
		switch info.account.GlAccountClassID {
		case ledger.ClassAsset, ledger.ClassCash:
			amount := d.Sub(c)
			sheet.Assets.Lines = append(sheet.Assets.Lines, StatementLine{
				GlAccountID: id, AccountName: info.account.AccountName, Amount: amount,
			})
			sheet.Assets.Total = sheet.Assets.Total.Add(amount)
		case ledger.ClassLiability:
			amount := c.Sub(d)
			sheet.Liabilities.Lines = append(sheet.Liabilities.Lines, StatementLine{
				GlAccountID: id, AccountName: info.account.AccountName, Amount: amount,
			})
			sheet.Liabilities.Total = sheet.Liabilities.Total.Add(amount)
		case ledger.ClassEquity:
			amount := c.Sub(d)
			sheet.Equity.Lines = append(sheet.Equity.Lines, StatementLine{
				GlAccountID: id, AccountName: info.account.AccountName, Amount: amount,
			})
			sheet.Equity.Total = sheet.Equity.Total.Add(amount)
		case ledger.ClassRevenue:
			sheet.RetainedNetIncome = sheet.RetainedNetIncome.Add(c.Sub(d))
		case ledger.ClassExpense:
			sheet.RetainedNetIncome = sheet.RetainedNetIncome.Sub(d.Sub(c))
		}
	}
	return sheet, nil
}

// CashFlowStatement reports cash movement over a date range.
type CashFlowStatement struct {
	FromDate       time.Time       `json:"fromDate"`
	ThruDate       time.Time       `json:"thruDate"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Inflows        decimal.Decimal `json:"inflows"`
	Outflows       decimal.Decimal `json:"outflows"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// BuildCashFlowStatement sums debits (inflows) and credits (outflows) on
// cash-class accounts between fromDate and thruDate.
func (s *Service) BuildCashFlowStatement(ctx context.Context, organizationPartyID string, fromDate, thruDate time.Time) (CashFlowStatement, error) {
	if organizationPartyID == "" {
		return CashFlowStatement{}, apperrors.Validation("organizationPartyId is required")
	}
	if !fromDate.Before(thruDate) {
		return CashFlowStatement{}, apperrors.Validation("fromDate must be before thruDate")
	}

	index, err := s.accountIndex(ctx, organizationPartyID)
	if err != nil {
		return CashFlowStatement{}, err
	}
	isCash := func(id string) bool {
		info, ok := index[id]
		return ok && info.account.GlAccountClassID == ledger.ClassCash
	}

	stmt := CashFlowStatement{FromDate: fromDate, ThruDate: thruDate}

	opening, err := s.postedSums(ctx, organizationPartyID, ledger.FiscalTypeActual, nil, &fromDate)
	if err != nil {
		return CashFlowStatement{}, err
	}
	for _, id := range sortedAccountIDs(opening) {
		if isCash(id) {
			stmt.OpeningBalance = stmt.OpeningBalance.Add(opening.debit[id].Sub(opening.credit[id]))
		}
	}

	window, err := s.postedSums(ctx, organizationPartyID, ledger.FiscalTypeActual, &fromDate, &thruDate)
	if err != nil {
		return CashFlowStatement{}, err
	}
	for _, id := range sortedAccountIDs(window) {
		if isCash(id) {
			stmt.Inflows = stmt.Inflows.Add(window.debit[id])
			stmt.Outflows = stmt.Outflows.Add(window.credit[id])
		}
	}

	stmt.ClosingBalance = stmt.OpeningBalance.Add(stmt.Inflows).Sub(stmt.Outflows)
	return stmt, nil
}

// ComparativeLine pairs a statement line across two periods.
type ComparativeLine struct {
	GlAccountID string          `json:"glAccountId"`
	AccountName string          `json:"accountName"`
	Period1     decimal.Decimal `json:"period1"`
	Period2     decimal.Decimal `json:"period2"`
	Delta       decimal.Decimal `json:"delta"`
}

// ComparativeSection pairs a section across two periods.
type ComparativeSection struct {
	Title        string            `json:"title"`
	Lines        []ComparativeLine `json:"lines"`
	Period1Total decimal.Decimal   `json:"period1Total"`
	Period2Total decimal.Decimal   `json:"period2Total"`
}

// ComparativeBalanceSheet shows two balance sheets side by side.
type ComparativeBalanceSheet struct {
	AsOf1       time.Time          `json:"asOf1"`
	AsOf2       time.Time          `json:"asOf2"`
	Assets      ComparativeSection `json:"assets"`
	Liabilities ComparativeSection `json:"liabilities"`
	Equity      ComparativeSection `json:"equity"`
}

// BuildComparativeBalanceSheet builds balance sheets at two dates and merges
// them line by line with deltas.
func (s *Service) BuildComparativeBalanceSheet(ctx context.Context, organizationPartyID string, asOf1, asOf2 time.Time, glFiscalTypeID string) (ComparativeBalanceSheet, error) {
	sheet1, err := s.BuildBalanceSheet(ctx, organizationPartyID, asOf1, glFiscalTypeID)
	if err != nil {
		return ComparativeBalanceSheet{}, err
	}
	sheet2, err := s.BuildBalanceSheet(ctx, organizationPartyID, asOf2, glFiscalTypeID)
	if err != nil {
		return ComparativeBalanceSheet{}, err
	}
	return ComparativeBalanceSheet{
		AsOf1:       asOf1,
		AsOf2:       asOf2,
		Assets:      mergeSections(sheet1.Assets, sheet2.Assets),
		Liabilities: mergeSections(sheet1.Liabilities, sheet2.Liabilities),
		Equity:      mergeSections(sheet1.Equity, sheet2.Equity),
	}, nil
}

// ComparativeIncomeStatement shows two income statements side by side.
type ComparativeIncomeStatement struct {
	Revenue   ComparativeSection `json:"revenue"`
	Expenses  ComparativeSection `json:"expenses"`
	NetIncome ComparativeLine    `json:"netIncome"`
}

// BuildComparativeIncomeStatement builds income statements over two ranges
// and merges them line by line with deltas.
func (s *Service) BuildComparativeIncomeStatement(ctx context.Context, organizationPartyID string, from1, thru1, from2, thru2 time.Time, glFiscalTypeID string) (ComparativeIncomeStatement, error) {
	stmt1, err := s.BuildIncomeStatement(ctx, organizationPartyID, from1, thru1, glFiscalTypeID)
	if err != nil {
		return ComparativeIncomeStatement{}, err
	}
	stmt2, err := s.BuildIncomeStatement(ctx, organizationPartyID, from2, thru2, glFiscalTypeID)
	if err != nil {
		return ComparativeIncomeStatement{}, err
	}
	return ComparativeIncomeStatement{
		Revenue:  mergeSections(stmt1.Revenue, stmt2.Revenue),
		Expenses: mergeSections(stmt1.Expenses, stmt2.Expenses),
		NetIncome: ComparativeLine{
			AccountName: "Net Income",
			Period1:     stmt1.NetIncome,
			Period2:     stmt2.NetIncome,
			Delta:       stmt2.NetIncome.Sub(stmt1.NetIncome),
		},
	}, nil
}

func mergeSections(a, b Section) ComparativeSection {
	byID := map[string]*ComparativeLine{}
	var order []string
	for _, line := range a.Lines {
		byID[line.GlAccountID] = &ComparativeLine{
			GlAccountID: line.GlAccountID,
			AccountName: line.AccountName,
			Period1:     line.Amount,
		}
		order = append(order, line.GlAccountID)
	}
	for _, line := range b.Lines {
		merged, ok := byID[line.GlAccountID]
		if !ok {
			merged = &ComparativeLine{GlAccountID: line.GlAccountID, AccountName: line.AccountName}
			byID[line.GlAccountID] = merged
			order = append(order, line.GlAccountID)
		}
		merged.Period2 = line.Amount
	}

	out := ComparativeSection{Title: a.Title, Lines: []ComparativeLine{}, Period1Total: a.Total, Period2Total: b.Total}
	for _, id := range order {
		line := byID[id]
		line.Delta = line.Period2.Sub(line.Period1)
		out.Lines = append(out.Lines, *line)
	}
	return out
}
