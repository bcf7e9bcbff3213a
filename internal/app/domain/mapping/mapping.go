// Package mapping holds the type-to-GL-account default mapping rows. Every
// mapping table shares the same shape: a composite business key scoped to an
// organization, pointing at one GL account. A single record type with a Kind
// discriminator replaces a dozen near-identical row types.
package mapping

import (
	"strings"

	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// Kind identifies a mapping table. Values double as URL path segments.
type Kind string

const (
	KindGlAccountTypeDefault Kind = "gl-account-type-defaults"
	KindProduct              Kind = "product-gl-accounts"
	KindProductCategory      Kind = "product-category-gl-accounts"
	KindParty                Kind = "party-gl-accounts"
	KindCreditCardType       Kind = "credit-card-type-gl-accounts"
	KindFinAccountType       Kind = "fin-account-type-gl-accounts"
	KindFixedAssetType       Kind = "fixed-asset-type-gl-accounts"
	KindPaymentMethodType    Kind = "payment-method-type-gl-accounts"
	KindTaxAuthority         Kind = "tax-authority-gl-accounts"
	KindVarianceReason       Kind = "variance-reason-gl-accounts"
)

// Kinds lists every mapping table.
var Kinds = []Kind{
	KindGlAccountTypeDefault,
	KindProduct,
	KindProductCategory,
	KindParty,
	KindCreditCardType,
	KindFinAccountType,
	KindFixedAssetType,
	KindPaymentMethodType,
	KindTaxAuthority,
	KindVarianceReason,
}

// ParseKind resolves a path segment to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperrors.NotFound("unknown mapping kind %q", s)
}

// Mapping is one row of any mapping table. Only the key fields named by the
// row's Kind are meaningful; the rest stay empty.
type Mapping struct {
	Kind                Kind   `json:"kind"`
	OrganizationPartyID string `json:"organizationPartyId"`
	GlAccountTypeID     string `json:"glAccountTypeId,omitempty"`
	ProductID           string `json:"productId,omitempty"`
	ProductCategoryID   string `json:"productCategoryId,omitempty"`
	PartyID             string `json:"partyId,omitempty"`
	RoleTypeID          string `json:"roleTypeId,omitempty"`
	CardType            string `json:"cardType,omitempty"`
	FinAccountTypeID    string `json:"finAccountTypeId,omitempty"`
	FixedAssetTypeID    string `json:"fixedAssetTypeId,omitempty"`
	PaymentMethodTypeID string `json:"paymentMethodTypeId,omitempty"`
	TaxAuthGeoID        string `json:"taxAuthGeoId,omitempty"`
	TaxAuthPartyID      string `json:"taxAuthPartyId,omitempty"`
	VarianceReasonID    string `json:"varianceReasonId,omitempty"`
	GlAccountID         string `json:"glAccountId"`
}

type keyField struct {
	name string
	get  func(Mapping) string
}

// keyFields names the composite key of each kind. OrganizationPartyID is part
// of every key and checked separately.
var keyFields = map[Kind][]keyField{
	KindGlAccountTypeDefault: {
		{"glAccountTypeId", func(m Mapping) string { return m.GlAccountTypeID }},
	},
	KindProduct: {
		{"productId", func(m Mapping) string { return m.ProductID }},
		{"glAccountTypeId", func(m Mapping) string { return m.GlAccountTypeID }},
	},
	KindProductCategory: {
		{"productCategoryId", func(m Mapping) string { return m.ProductCategoryID }},
		{"glAccountTypeId", func(m Mapping) string { return m.GlAccountTypeID }},
	},
	KindParty: {
		{"partyId", func(m Mapping) string { return m.PartyID }},
		{"roleTypeId", func(m Mapping) string { return m.RoleTypeID }},
		{"glAccountTypeId", func(m Mapping) string { return m.GlAccountTypeID }},
	},
	KindCreditCardType: {
		{"cardType", func(m Mapping) string { return m.CardType }},
	},
	KindFinAccountType: {
		{"finAccountTypeId", func(m Mapping) string { return m.FinAccountTypeID }},
	},
	KindFixedAssetType: {
		{"fixedAssetTypeId", func(m Mapping) string { return m.FixedAssetTypeID }},
	},
	KindPaymentMethodType: {
		{"paymentMethodTypeId", func(m Mapping) string { return m.PaymentMethodTypeID }},
	},
	KindTaxAuthority: {
		{"taxAuthGeoId", func(m Mapping) string { return m.TaxAuthGeoID }},
		{"taxAuthPartyId", func(m Mapping) string { return m.TaxAuthPartyID }},
	},
	KindVarianceReason: {
		{"varianceReasonId", func(m Mapping) string { return m.VarianceReasonID }},
	},
}

// ValidateKey checks that the kind is known and every composite key field is
// non-empty.
func (m Mapping) ValidateKey() error {
	fields, ok := keyFields[m.Kind]
	if !ok {
		return apperrors.Validation("unknown mapping kind %q", m.Kind)
	}
	if m.OrganizationPartyID == "" {
		return apperrors.Validation("organizationPartyId is required")
	}
	for _, f := range fields {
		if f.get(m) == "" {
			return apperrors.Validation("%s is required", f.name)
		}
	}
	return nil
}

// CompositeKey returns the row's unique key string, "kind|org|field...".
// Callers must ValidateKey first.
func (m Mapping) CompositeKey() string {
	parts := []string{string(m.Kind), m.OrganizationPartyID}
	for _, f := range keyFields[m.Kind] {
		parts = append(parts, f.get(m))
	}
	return strings.Join(parts, "|")
}

// KeyEquals reports whether two rows share kind and composite key.
func (m Mapping) KeyEquals(other Mapping) bool {
	return m.Kind == other.Kind && m.CompositeKey() == other.CompositeKey()
}
