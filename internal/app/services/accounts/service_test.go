package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/storage/memory"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

func strptr(s string) *string { return &s }

func seedAccounts(t *testing.T, svc *Service, org string) (root, child, leaf ledger.GlAccount) {
	t.Helper()
	ctx := context.Background()

	var err error
	root, err = svc.Create(ctx, ledger.GlAccount{
		GlAccountID:      "1000",
		GlAccountTypeID:  "BANK_ACCOUNT",
		GlAccountClassID: ledger.ClassAsset,
		AccountCode:      "1000",
		AccountName:      "Assets",
	})
	require.NoError(t, err)

	child, err = svc.Create(ctx, ledger.GlAccount{
		GlAccountID:       "1100",
		GlAccountTypeID:   "BANK_ACCOUNT",
		GlAccountClassID:  ledger.ClassCash,
		ParentGlAccountID: strptr("1000"),
		AccountCode:       "1100",
		AccountName:       "Cash",
	})
	require.NoError(t, err)

	leaf, err = svc.Create(ctx, ledger.GlAccount{
		GlAccountID:       "1110",
		GlAccountTypeID:   "BANK_ACCOUNT",
		GlAccountClassID:  ledger.ClassCash,
		ParentGlAccountID: strptr("1100"),
		AccountCode:       "1110",
		AccountName:       "Main Bank",
	})
	require.NoError(t, err)

	for _, id := range []string{"1000", "1100", "1110"} {
		require.NoError(t, svc.AssignToOrganization(ctx, ledger.GlAccountOrganization{
			GlAccountID:         id,
			OrganizationPartyID: org,
			FromDate:            time.Now(),
		}))
	}
	return root, child, leaf
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc := New(memory.New(), nil)

	_, err := svc.Create(context.Background(), ledger.GlAccount{
		GlAccountTypeID:   "SALES",
		GlAccountClassID:  ledger.ClassRevenue,
		ParentGlAccountID: strptr("nope"),
		AccountCode:       "4000",
		AccountName:       "Sales",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateRejectsParentCycle(t *testing.T) {
	svc := New(memory.New(), nil)
	_, _, leaf := seedAccounts(t, svc, "Company")

	// Re-parent the root under the leaf: 1000 -> 1110 -> 1100 -> 1000.
	root, err := svc.Get(context.Background(), "1000")
	require.NoError(t, err)
	root.ParentGlAccountID = strptr(leaf.GlAccountID)

	_, err = svc.Update(context.Background(), root)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "cycle")
}

func TestTreeShape(t *testing.T) {
	svc := New(memory.New(), nil)
	seedAccounts(t, svc, "Company")

	roots, err := svc.Tree(context.Background(), "Company")
	require.NoError(t, err)
	require.Len(t, roots, 1)

	root := roots[0]
	assert.Equal(t, "Assets (1000)", root.Text)
	assert.False(t, root.IsLeaf)
	assert.Empty(t, root.ParentAccountName)
	require.Len(t, root.Items, 1)

	cash := root.Items[0]
	assert.Equal(t, "Cash (1100)", cash.Text)
	assert.Equal(t, "Assets", cash.ParentAccountName)
	require.Len(t, cash.Items, 1)

	bank := cash.Items[0]
	assert.Equal(t, "Main Bank (1110)", bank.Text)
	assert.True(t, bank.IsLeaf)
	assert.Empty(t, bank.Items)

	// Node count equals input length.
	count := 0
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		count++
		assert.Equal(t, len(n.Items) == 0, n.IsLeaf)
		for _, c := range n.Items {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	assert.Equal(t, 3, count)
}

func TestBuildTreeRejectsOrphan(t *testing.T) {
	_, err := BuildTree([]ledger.GlAccount{
		{GlAccountID: "A", AccountName: "A"},
		{GlAccountID: "B", AccountName: "B", ParentGlAccountID: strptr("missing")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuildTreeRejectsCycle(t *testing.T) {
	_, err := BuildTree([]ledger.GlAccount{
		{GlAccountID: "A", AccountName: "A", ParentGlAccountID: strptr("B")},
		{GlAccountID: "B", AccountName: "B", ParentGlAccountID: strptr("A")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "cycle")
}

func TestChartOfAccountsProjection(t *testing.T) {
	svc := New(memory.New(), nil)
	seedAccounts(t, svc, "Company")

	rows, err := svc.ChartOfAccounts(context.Background(), "Company", "")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "1000 - Assets", rows[0].Label)
	assert.Equal(t, "Bank Account", rows[0].TypeDescription)
	assert.Equal(t, "Asset", rows[0].ClassDescription)
	assert.True(t, rows[0].IsDebit)

	_, err = svc.ChartOfAccounts(context.Background(), "Company", "bogus")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestMermaidDiagram(t *testing.T) {
	svc := New(memory.New(), nil)
	seedAccounts(t, svc, "Company")

	diagram, err := svc.MermaidDiagram(context.Background(), "Company")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(diagram, "flowchart TD\n"))
	assert.Contains(t, diagram, `1000["Assets (1000)"]`)
	assert.Contains(t, diagram, "1000 --> 1100")
	assert.Contains(t, diagram, "1100 --> 1110")
}

func TestSavePreferenceValidation(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	_, err := svc.SavePreference(ctx, ledger.PartyAcctgPreference{
		OrganizationPartyID:  "Company",
		FiscalYearStartMonth: 13,
		FiscalYearStartDay:   1,
		BaseCurrencyUomID:    "USD",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	saved, err := svc.SavePreference(ctx, ledger.PartyAcctgPreference{
		OrganizationPartyID:  "Company",
		FiscalYearStartMonth: 1,
		FiscalYearStartDay:   1,
		BaseCurrencyUomID:    "USD",
	})
	require.NoError(t, err)

	got, err := svc.GetPreference(ctx, "Company")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}
