// Package mappings manages the type-to-GL-account default mapping rows. One
// service covers every mapping table; the Kind on the row selects the table.
package mappings

import (
	"context"

	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/logging"
)

// Service manages GL account mappings.
type Service struct {
	store storage.MappingStore
	chart storage.ChartStore
	log   *logging.Logger
}

// New constructs a mappings service. chart may be nil to skip GL account
// existence checks.
func New(store storage.MappingStore, chart storage.ChartStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("mappings")
	}
	return &Service{store: store, chart: chart, log: log}
}

// Save upserts one mapping row after validating its key and target account.
func (s *Service) Save(ctx context.Context, m mapping.Mapping) (mapping.Mapping, error) {
	if err := m.ValidateKey(); err != nil {
		return mapping.Mapping{}, err
	}
	if m.GlAccountID == "" {
		return mapping.Mapping{}, apperrors.Validation("glAccountId is required")
	}
	if s.chart != nil {
		if _, err := s.chart.GetGlAccount(ctx, m.GlAccountID); err != nil {
			if apperrors.IsNotFound(err) {
				return mapping.Mapping{}, apperrors.Validation("gl account %s does not exist", m.GlAccountID)
			}
			return mapping.Mapping{}, err
		}
	}
	return s.store.SaveMapping(ctx, m)
}

// Get returns the row matching the composite key on key.
func (s *Service) Get(ctx context.Context, key mapping.Mapping) (mapping.Mapping, error) {
	return s.store.GetMapping(ctx, key)
}

// List returns an organization's rows for one mapping table.
func (s *Service) List(ctx context.Context, kind mapping.Kind, organizationPartyID string) ([]mapping.Mapping, error) {
	if organizationPartyID == "" {
		return nil, apperrors.Validation("organizationPartyId is required")
	}
	return s.store.ListMappings(ctx, kind, organizationPartyID)
}

// Delete removes the row matching the composite key on key. A missing row is
// a not-found error; the key is echoed back on success.
func (s *Service) Delete(ctx context.Context, key mapping.Mapping) (mapping.Mapping, error) {
	if err := s.store.DeleteMapping(ctx, key); err != nil {
		return mapping.Mapping{}, err
	}
	s.log.WithContext(ctx).
		WithField("kind", string(key.Kind)).
		WithField("organization_party_id", key.OrganizationPartyID).
		Info("gl account mapping deleted")
	return key, nil
}
