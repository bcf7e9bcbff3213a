// Package period holds fiscal time period records.
package period

import "time"

// Period type identifiers.
const (
	TypeFiscalYear    = "FISCAL_YEAR"
	TypeFiscalQuarter = "FISCAL_QUARTER"
	TypeFiscalMonth   = "FISCAL_MONTH"
)

// CustomTimePeriod is a fiscal period. ParentPeriodID links months and
// quarters to their year.
type CustomTimePeriod struct {
	CustomTimePeriodID  string     `json:"customTimePeriodId"`
	OrganizationPartyID string     `json:"organizationPartyId"`
	PeriodTypeID        string     `json:"periodTypeId"`
	PeriodNum           int        `json:"periodNum"`
	PeriodName          string     `json:"periodName,omitempty"`
	FromDate            time.Time  `json:"fromDate"`
	ThruDate            time.Time  `json:"thruDate"`
	ParentPeriodID      *string    `json:"parentPeriodId,omitempty"`
	IsClosed            bool       `json:"isClosed"`
	ClosedDate          *time.Time `json:"closedDate,omitempty"`
}

// Contains reports whether t falls inside the period. The thru date bound is
// exclusive so adjacent periods do not overlap.
func (p CustomTimePeriod) Contains(t time.Time) bool {
	return !t.Before(p.FromDate) && t.Before(p.ThruDate)
}
