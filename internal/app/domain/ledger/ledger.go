// Package ledger holds the general-ledger domain records: chart of accounts,
// accounting transactions, and organization accounting preferences.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// DebitCreditFlag marks an entry as a debit or a credit.
type DebitCreditFlag string

const (
	Debit  DebitCreditFlag = "D"
	Credit DebitCreditFlag = "C"
)

// Valid reports whether the flag is one of the two legal values.
func (f DebitCreditFlag) Valid() bool { return f == Debit || f == Credit }

// GL account class identifiers.
const (
	ClassAsset     = "ASSET"
	ClassLiability = "LIABILITY"
	ClassEquity    = "EQUITY"
	ClassRevenue   = "REVENUE"
	ClassExpense   = "EXPENSE"
	ClassCash      = "CASH"
)

// Fiscal type identifiers on accounting transactions.
const (
	FiscalTypeActual = "ACTUAL"
	FiscalTypeBudget = "BUDGET"
)

// IsDebitNatured reports whether accounts of the class normally carry a
// debit balance.
func IsDebitNatured(glAccountClassID string) bool {
	switch glAccountClassID {
	case ClassAsset, ClassCash, ClassExpense:
		return true
	}
	return false
}

// GlAccount is one node in the chart of accounts. ParentGlAccountID forms a
// self-referencing tree; nil marks a root account.
type GlAccount struct {
	GlAccountID       string    `json:"glAccountId"`
	GlAccountTypeID   string    `json:"glAccountTypeId"`
	GlAccountClassID  string    `json:"glAccountClassId"`
	ResourceTypeID    string    `json:"resourceTypeId,omitempty"`
	ParentGlAccountID *string   `json:"parentGlAccountId,omitempty"`
	AccountCode       string    `json:"accountCode"`
	AccountName       string    `json:"accountName"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// GlAccountType is a lookup row (ACCTS_REC, SALES, ...).
type GlAccountType struct {
	GlAccountTypeID string `json:"glAccountTypeId"`
	Description     string `json:"description"`
}

// GlAccountClass is a lookup row; IsDebit records the class's normal balance
// side.
type GlAccountClass struct {
	GlAccountClassID string `json:"glAccountClassId"`
	Description      string `json:"description"`
	IsDebit          bool   `json:"isDebit"`
}

// GlAccountOrganization activates an account for an organization.
type GlAccountOrganization struct {
	GlAccountID         string     `json:"glAccountId"`
	OrganizationPartyID string     `json:"organizationPartyId"`
	FromDate            time.Time  `json:"fromDate"`
	ThruDate            *time.Time `json:"thruDate,omitempty"`
}

// AcctgTrans is an accounting transaction header.
type AcctgTrans struct {
	AcctgTransID        string     `json:"acctgTransId"`
	OrganizationPartyID string     `json:"organizationPartyId"`
	AcctgTransTypeID    string     `json:"acctgTransTypeId"`
	GlFiscalTypeID      string     `json:"glFiscalTypeId"`
	TransactionDate     time.Time  `json:"transactionDate"`
	IsPosted            bool       `json:"isPosted"`
	PostedDate          *time.Time `json:"postedDate,omitempty"`
	Description         string     `json:"description,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// AcctgTransEntry is one debit or credit line on a transaction.
type AcctgTransEntry struct {
	AcctgTransID    string          `json:"acctgTransId"`
	SeqID           int             `json:"seqId"`
	GlAccountID     string          `json:"glAccountId"`
	DebitCreditFlag DebitCreditFlag `json:"debitCreditFlag"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyUomID   string          `json:"currencyUomId,omitempty"`
	Description     string          `json:"description,omitempty"`
}

// ValidateEntries checks the posting invariants: at least two entries, every
// amount positive, every flag legal, and debits equal to credits.
func ValidateEntries(entries []AcctgTransEntry) error {
	if len(entries) < 2 {
		return apperrors.Validation("a transaction requires at least two entries")
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for i, e := range entries {
		if e.GlAccountID == "" {
			return apperrors.Validation("entry %d: glAccountId is required", i+1)
		}
		if !e.DebitCreditFlag.Valid() {
			return apperrors.Validation("entry %d: debitCreditFlag must be D or C", i+1)
		}
		if !e.Amount.IsPositive() {
			return apperrors.Validation("entry %d: amount must be positive", i+1)
		}
		if e.DebitCreditFlag == Debit {
			debits = debits.Add(e.Amount)
		} else {
			credits = credits.Add(e.Amount)
		}
	}

	if !debits.Equal(credits) {
		return apperrors.Validation("entries do not balance").
			WithDetails("debits", debits.String()).
			WithDetails("credits", credits.String())
	}
	return nil
}

// PartyAcctgPreference carries an organization's accounting settings.
type PartyAcctgPreference struct {
	OrganizationPartyID  string `json:"organizationPartyId"`
	FiscalYearStartMonth int    `json:"fiscalYearStartMonth"`
	FiscalYearStartDay   int    `json:"fiscalYearStartDay"`
	BaseCurrencyUomID    string `json:"baseCurrencyUomId"`
	TaxFormID            string `json:"taxFormId,omitempty"`
	CogsMethodID         string `json:"cogsMethodId,omitempty"`
	InvoiceIDPrefix      string `json:"invoiceIdPrefix,omitempty"`
	OrderIDPrefix        string `json:"orderIdPrefix,omitempty"`
	QuoteIDPrefix        string `json:"quoteIdPrefix,omitempty"`
}
