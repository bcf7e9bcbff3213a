package accounts

import (
	"fmt"
	"sort"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// TreeNode is one account in the nested hierarchy view.
type TreeNode struct {
	AccountID         string      `json:"accountId"`
	AccountName       string      `json:"accountName"`
	Text              string      `json:"text"`
	ParentAccountID   string      `json:"parentAccountId,omitempty"`
	ParentAccountName string      `json:"parentAccountName,omitempty"`
	IsLeaf            bool        `json:"isLeaf"`
	Items             []*TreeNode `json:"items"`
}

// BuildTree assembles the account hierarchy in a single pass: an index map
// and a children adjacency list instead of per-node scans. Rows pointing at a
// missing parent and parent cycles are rejected rather than recursed into.
func BuildTree(accounts []ledger.GlAccount) ([]*TreeNode, error) {
	byID := make(map[string]ledger.GlAccount, len(accounts))
	for _, a := range accounts {
		byID[a.GlAccountID] = a
	}

	nodes := make(map[string]*TreeNode, len(accounts))
	children := make(map[string][]string, len(accounts))
	var rootIDs []string

	for _, a := range accounts {
		nodes[a.GlAccountID] = &TreeNode{
			AccountID:   a.GlAccountID,
			AccountName: a.AccountName,
			Text:        fmt.Sprintf("%s (%s)", a.AccountName, a.GlAccountID),
			Items:       []*TreeNode{},
		}

		if a.ParentGlAccountID == nil {
			rootIDs = append(rootIDs, a.GlAccountID)
			continue
		}
		parentID := *a.ParentGlAccountID
		parent, ok := byID[parentID]
		if !ok {
			return nil, apperrors.Validation("account %s references missing parent %s", a.GlAccountID, parentID)
		}
		node := nodes[a.GlAccountID]
		node.ParentAccountID = parentID
		node.ParentAccountName = parent.AccountName
		children[parentID] = append(children[parentID], a.GlAccountID)
	}

	// Cycle check: every account must reach a root through its parent chain.
	for _, a := range accounts {
		seen := map[string]bool{}
		current := a.GlAccountID
		for {
			if seen[current] {
				return nil, apperrors.Validation("account hierarchy contains a cycle at %s", current)
			}
			seen[current] = true
			acct := byID[current]
			if acct.ParentGlAccountID == nil {
				break
			}
			current = *acct.ParentGlAccountID
		}
	}

	var link func(id string) *TreeNode
	link = func(id string) *TreeNode {
		node := nodes[id]
		ids := children[id]
		sort.Strings(ids)
		for _, childID := range ids {
			node.Items = append(node.Items, link(childID))
		}
		node.IsLeaf = len(node.Items) == 0
		return node
	}

	sort.Strings(rootIDs)
	roots := make([]*TreeNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		roots = append(roots, link(id))
	}
	return roots, nil
}
