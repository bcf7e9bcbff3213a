// Package accounts manages the chart of accounts: account CRUD, the
// organization hierarchy views, and accounting preferences.
package accounts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/logging"
)

// Service manages GL accounts and organization chart views.
type Service struct {
	store storage.ChartStore
	log   *logging.Logger
}

// New constructs an accounts service.
func New(store storage.ChartStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("accounts")
	}
	return &Service{store: store, log: log}
}

// Create validates and persists a new GL account. The parent, when set, must
// exist; cycles are impossible on create because the new account has no
// children yet, but the parent chain is still walked to reject corrupt data.
func (s *Service) Create(ctx context.Context, acct ledger.GlAccount) (ledger.GlAccount, error) {
	if err := s.validate(ctx, acct); err != nil {
		return ledger.GlAccount{}, err
	}

	created, err := s.store.CreateGlAccount(ctx, acct)
	if err != nil {
		return ledger.GlAccount{}, err
	}
	s.log.WithContext(ctx).
		WithField("gl_account_id", created.GlAccountID).
		WithField("account_code", created.AccountCode).
		Info("gl account created")
	return created, nil
}

// Update validates and persists account changes. Re-parenting is checked
// against the existing tree so the change cannot introduce a cycle.
func (s *Service) Update(ctx context.Context, acct ledger.GlAccount) (ledger.GlAccount, error) {
	if acct.GlAccountID == "" {
		return ledger.GlAccount{}, apperrors.Validation("glAccountId is required")
	}
	if err := s.validate(ctx, acct); err != nil {
		return ledger.GlAccount{}, err
	}
	if acct.ParentGlAccountID != nil {
		if err := s.checkParentChain(ctx, acct.GlAccountID, *acct.ParentGlAccountID); err != nil {
			return ledger.GlAccount{}, err
		}
	}
	return s.store.UpdateGlAccount(ctx, acct)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (ledger.GlAccount, error) {
	return s.store.GetGlAccount(ctx, id)
}

// AssignToOrganization activates an account for an organization.
func (s *Service) AssignToOrganization(ctx context.Context, assoc ledger.GlAccountOrganization) error {
	if assoc.GlAccountID == "" || assoc.OrganizationPartyID == "" {
		return apperrors.Validation("glAccountId and organizationPartyId are required")
	}
	return s.store.AssignGlAccountToOrganization(ctx, assoc)
}

// ChartRow is the flat chart-of-accounts projection: account joined with its
// type and class descriptions.
type ChartRow struct {
	GlAccountID      string `json:"glAccountId"`
	AccountCode      string `json:"accountCode"`
	AccountName      string `json:"accountName"`
	Label            string `json:"label"`
	GlAccountTypeID  string `json:"glAccountTypeId"`
	TypeDescription  string `json:"typeDescription"`
	GlAccountClassID string `json:"glAccountClassId"`
	ClassDescription string `json:"classDescription"`
	IsDebit          bool   `json:"isDebit"`
	ParentGlAccount  string `json:"parentGlAccountId,omitempty"`
}

// ChartOfAccounts lists the accounts active for an organization as flat rows,
// sorted by the requested column.
func (s *Service) ChartOfAccounts(ctx context.Context, organizationPartyID, orderBy string) ([]ChartRow, error) {
	accts, err := s.store.ListGlAccounts(ctx, organizationPartyID)
	if err != nil {
		return nil, err
	}
	types, err := s.store.ListGlAccountTypes(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := s.store.ListGlAccountClasses(ctx)
	if err != nil {
		return nil, err
	}

	typeDesc := make(map[string]string, len(types))
	for _, t := range types {
		typeDesc[t.GlAccountTypeID] = t.Description
	}
	classByID := make(map[string]ledger.GlAccountClass, len(classes))
	for _, c := range classes {
		classByID[c.GlAccountClassID] = c
	}

	rows := make([]ChartRow, 0, len(accts))
	for _, a := range accts {
		row := ChartRow{
			GlAccountID:      a.GlAccountID,
			AccountCode:      a.AccountCode,
			AccountName:      a.AccountName,
			Label:            fmt.Sprintf("%s - %s", a.GlAccountID, a.AccountName),
			GlAccountTypeID:  a.GlAccountTypeID,
			TypeDescription:  typeDesc[a.GlAccountTypeID],
			GlAccountClassID: a.GlAccountClassID,
		}
		if c, ok := classByID[a.GlAccountClassID]; ok {
			row.ClassDescription = c.Description
			row.IsDebit = c.IsDebit
		}
		if a.ParentGlAccountID != nil {
			row.ParentGlAccount = *a.ParentGlAccountID
		}
		rows = append(rows, row)
	}

	switch orderBy {
	case "", "glAccountId":
		sort.Slice(rows, func(i, j int) bool { return rows[i].GlAccountID < rows[j].GlAccountID })
	case "accountCode":
		sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })
	case "accountName":
		sort.Slice(rows, func(i, j int) bool { return rows[i].AccountName < rows[j].AccountName })
	default:
		return nil, apperrors.Validation("unsupported orderBy %q", orderBy)
	}
	return rows, nil
}

// Tree returns the nested account hierarchy for an organization.
func (s *Service) Tree(ctx context.Context, organizationPartyID string) ([]*TreeNode, error) {
	accts, err := s.store.ListGlAccounts(ctx, organizationPartyID)
	if err != nil {
		return nil, err
	}
	return BuildTree(accts)
}

// MermaidDiagram renders the account hierarchy as a Mermaid flowchart.
func (s *Service) MermaidDiagram(ctx context.Context, organizationPartyID string) (string, error) {
	accts, err := s.store.ListGlAccounts(ctx, organizationPartyID)
	if err != nil {
		return "", err
	}
	roots, err := BuildTree(accts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	var walk func(node *TreeNode)
	walk = func(node *TreeNode) {
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", node.AccountID, node.Text)
		for _, child := range node.Items {
			fmt.Fprintf(&b, "    %s --> %s\n", node.AccountID, child.AccountID)
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return b.String(), nil
}

// ListTypes returns the GL account type lookup rows.
func (s *Service) ListTypes(ctx context.Context) ([]ledger.GlAccountType, error) {
	return s.store.ListGlAccountTypes(ctx)
}

// ListClasses returns the GL account class lookup rows.
func (s *Service) ListClasses(ctx context.Context) ([]ledger.GlAccountClass, error) {
	return s.store.ListGlAccountClasses(ctx)
}

// GetPreference returns an organization's accounting preference.
func (s *Service) GetPreference(ctx context.Context, organizationPartyID string) (ledger.PartyAcctgPreference, error) {
	return s.store.GetAcctgPreference(ctx, organizationPartyID)
}

// SavePreference validates and stores an organization's accounting
// preference.
func (s *Service) SavePreference(ctx context.Context, pref ledger.PartyAcctgPreference) (ledger.PartyAcctgPreference, error) {
	if pref.OrganizationPartyID == "" {
		return ledger.PartyAcctgPreference{}, apperrors.Validation("organizationPartyId is required")
	}
	if pref.FiscalYearStartMonth < 1 || pref.FiscalYearStartMonth > 12 {
		return ledger.PartyAcctgPreference{}, apperrors.Validation("fiscalYearStartMonth must be 1-12")
	}
	if pref.FiscalYearStartDay < 1 || pref.FiscalYearStartDay > 31 {
		return ledger.PartyAcctgPreference{}, apperrors.Validation("fiscalYearStartDay must be 1-31")
	}
	if pref.BaseCurrencyUomID == "" {
		return ledger.PartyAcctgPreference{}, apperrors.Validation("baseCurrencyUomId is required")
	}
	return s.store.SaveAcctgPreference(ctx, pref)
}

func (s *Service) validate(ctx context.Context, acct ledger.GlAccount) error {
	if strings.TrimSpace(acct.AccountName) == "" {
		return apperrors.Validation("accountName is required")
	}
	if strings.TrimSpace(acct.AccountCode) == "" {
		return apperrors.Validation("accountCode is required")
	}
	if acct.GlAccountTypeID == "" || acct.GlAccountClassID == "" {
		return apperrors.Validation("glAccountTypeId and glAccountClassId are required")
	}
	if acct.ParentGlAccountID != nil {
		if *acct.ParentGlAccountID == acct.GlAccountID {
			return apperrors.Validation("an account cannot be its own parent")
		}
		if _, err := s.store.GetGlAccount(ctx, *acct.ParentGlAccountID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.Validation("parent account %s does not exist", *acct.ParentGlAccountID)
			}
			return err
		}
	}
	return nil
}

// checkParentChain walks from newParentID toward the root and rejects the
// re-parenting when accountID appears on the chain.
func (s *Service) checkParentChain(ctx context.Context, accountID, newParentID string) error {
	seen := map[string]bool{accountID: true}
	current := newParentID
	for current != "" {
		if seen[current] {
			return apperrors.Validation("parent chain would form a cycle at account %s", current)
		}
		seen[current] = true

		parent, err := s.store.GetGlAccount(ctx, current)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if parent.ParentGlAccountID == nil {
			return nil
		}
		current = *parent.ParentGlAccountID
	}
	return nil
}
