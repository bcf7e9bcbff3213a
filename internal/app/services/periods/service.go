// Package periods manages fiscal time periods and the period close.
package periods

import (
	"context"

	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/logging"
)

// Service manages custom time periods.
type Service struct {
	store  storage.PeriodStore
	closer storage.GeneralLedgerCloser
	log    *logging.Logger
}

// New constructs a periods service. closer may be nil when no ledger close
// work is wired.
func New(store storage.PeriodStore, closer storage.GeneralLedgerCloser, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("periods")
	}
	return &Service{store: store, closer: closer, log: log}
}

// Create validates and persists a time period.
func (s *Service) Create(ctx context.Context, p period.CustomTimePeriod) (period.CustomTimePeriod, error) {
	if p.OrganizationPartyID == "" {
		return period.CustomTimePeriod{}, apperrors.Validation("organizationPartyId is required")
	}
	if p.PeriodTypeID == "" {
		return period.CustomTimePeriod{}, apperrors.Validation("periodTypeId is required")
	}
	if p.FromDate.IsZero() || p.ThruDate.IsZero() {
		return period.CustomTimePeriod{}, apperrors.Validation("fromDate and thruDate are required")
	}
	if !p.FromDate.Before(p.ThruDate) {
		return period.CustomTimePeriod{}, apperrors.Validation("fromDate must be before thruDate")
	}
	if p.ParentPeriodID != nil {
		parent, err := s.store.GetTimePeriod(ctx, *p.ParentPeriodID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return period.CustomTimePeriod{}, apperrors.Validation("parent period %s does not exist", *p.ParentPeriodID)
			}
			return period.CustomTimePeriod{}, err
		}
		if p.FromDate.Before(parent.FromDate) || p.ThruDate.After(parent.ThruDate) {
			return period.CustomTimePeriod{}, apperrors.Validation("period must fall inside its parent period")
		}
	}
	p.IsClosed = false
	p.ClosedDate = nil
	return s.store.CreateTimePeriod(ctx, p)
}

// Get returns one period scoped to the organization.
func (s *Service) Get(ctx context.Context, organizationPartyID, customTimePeriodID string) (period.CustomTimePeriod, error) {
	p, err := s.store.GetTimePeriod(ctx, customTimePeriodID)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	if p.OrganizationPartyID != organizationPartyID {
		return period.CustomTimePeriod{}, apperrors.NotFound("time period %s not found", customTimePeriodID)
	}
	return p, nil
}

// List returns an organization's periods ordered by from date.
func (s *Service) List(ctx context.Context, organizationPartyID string) ([]period.CustomTimePeriod, error) {
	if organizationPartyID == "" {
		return nil, apperrors.Validation("organizationPartyId is required")
	}
	return s.store.ListTimePeriods(ctx, organizationPartyID)
}

// Close closes a period. The ledger closer runs inside the store transaction;
// when it fails the period's closed flag stays unchanged. A parent period
// cannot close while a child period remains open.
func (s *Service) Close(ctx context.Context, organizationPartyID, customTimePeriodID string) (period.CustomTimePeriod, error) {
	p, err := s.Get(ctx, organizationPartyID, customTimePeriodID)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	if p.IsClosed {
		return period.CustomTimePeriod{}, apperrors.Validation("period %s is already closed", customTimePeriodID)
	}

	all, err := s.store.ListTimePeriods(ctx, organizationPartyID)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	for _, child := range all {
		if child.ParentPeriodID != nil && *child.ParentPeriodID == customTimePeriodID && !child.IsClosed {
			return period.CustomTimePeriod{}, apperrors.Validation("child period %s must be closed first", child.CustomTimePeriodID)
		}
	}

	closed, err := s.store.CloseTimePeriod(ctx, organizationPartyID, customTimePeriodID, s.closer)
	if err != nil {
		return period.CustomTimePeriod{}, err
	}
	s.log.WithContext(ctx).
		WithField("custom_time_period_id", customTimePeriodID).
		WithField("organization_party_id", organizationPartyID).
		Info("time period closed")
	return closed, nil
}
