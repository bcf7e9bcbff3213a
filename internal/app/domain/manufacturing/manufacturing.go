// Package manufacturing holds routings, production runs, bills of material,
// and cost component records.
package manufacturing

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// Work effort type identifiers.
const (
	TypeRouting       = "ROUTING"
	TypeRoutingTask   = "ROU_TASK"
	TypeProductionRun = "PROD_ORDER_HEADER"
	TypeProdRunTask   = "PROD_ORDER_TASK"
)

// Production run statuses.
const (
	StatusCreated    = "PRUN_CREATED"
	StatusScheduled  = "PRUN_SCHEDULED"
	StatusDocPrinted = "PRUN_DOC_PRINTED"
	StatusRunning    = "PRUN_RUNNING"
	StatusCompleted  = "PRUN_COMPLETED"
	StatusClosed     = "PRUN_CLOSED"
	StatusCancelled  = "PRUN_CANCELLED"
)

// transitions is the production run status graph. Cancel is allowed from any
// state before the run starts.
var transitions = map[string][]string{
	StatusCreated:    {StatusScheduled, StatusDocPrinted, StatusCancelled},
	StatusScheduled:  {StatusDocPrinted, StatusCancelled},
	StatusDocPrinted: {StatusRunning, StatusCancelled},
	StatusRunning:    {StatusCompleted},
	StatusCompleted:  {StatusClosed},
	StatusClosed:     {},
	StatusCancelled:  {},
}

// ValidateTransition rejects status changes the graph does not allow.
func ValidateTransition(from, to string) error {
	allowed, ok := transitions[from]
	if !ok {
		return apperrors.Validation("unknown production run status %q", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return apperrors.Conflict("cannot transition production run from %s to %s", from, to)
}

// WorkEffort is a routing, routing task, or production run.
type WorkEffort struct {
	WorkEffortID            string          `json:"workEffortId"`
	WorkEffortTypeID        string          `json:"workEffortTypeId"`
	WorkEffortName          string          `json:"workEffortName"`
	Description             string          `json:"description,omitempty"`
	StatusID                string          `json:"statusId,omitempty"`
	ProductID               string          `json:"productId,omitempty"`
	FacilityID              string          `json:"facilityId,omitempty"`
	QuantityToProduce       decimal.Decimal `json:"quantityToProduce"`
	EstimatedStartDate      *time.Time      `json:"estimatedStartDate,omitempty"`
	EstimatedCompletionDate *time.Time      `json:"estimatedCompletionDate,omitempty"`
	EstimatedMilliSeconds   int64           `json:"estimatedMilliSeconds,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// WorkEffortAssoc orders tasks under a routing or production run.
type WorkEffortAssoc struct {
	WorkEffortIDFrom string    `json:"workEffortIdFrom"`
	WorkEffortIDTo   string    `json:"workEffortIdTo"`
	SequenceNum      int       `json:"sequenceNum"`
	FromDate         time.Time `json:"fromDate"`
}

// BillOfMaterial is one component line of a product's BOM. The ProductID →
// ProductIDTo links form a component tree per product.
type BillOfMaterial struct {
	ProductID    string          `json:"productId"`
	ProductIDTo  string          `json:"productIdTo"`
	SequenceNum  int             `json:"sequenceNum"`
	Quantity     decimal.Decimal `json:"quantity"`
	ScrapFactor  decimal.Decimal `json:"scrapFactor"`
	FromDate     time.Time       `json:"fromDate"`
	ThruDate     *time.Time      `json:"thruDate,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}

// EffectiveAt reports whether the line is in effect at t.
func (b BillOfMaterial) EffectiveAt(t time.Time) bool {
	if t.Before(b.FromDate) {
		return false
	}
	return b.ThruDate == nil || t.Before(*b.ThruDate)
}

// CostComponentCalc prices a routing task: a fixed cost plus a variable cost
// per unit plus a rate per millisecond of run time.
type CostComponentCalc struct {
	CostComponentCalcID string          `json:"costComponentCalcId"`
	Description         string          `json:"description,omitempty"`
	FixedCost           decimal.Decimal `json:"fixedCost"`
	VariableCost        decimal.Decimal `json:"variableCost"`
	PerMilliSecond      decimal.Decimal `json:"perMilliSecond"`
	CurrencyUomID       string          `json:"currencyUomId,omitempty"`
}

// Cost returns fixed + variable×quantity + perMilliSecond×durationMillis.
func (c CostComponentCalc) Cost(quantity decimal.Decimal, durationMillis int64) decimal.Decimal {
	total := c.FixedCost
	total = total.Add(c.VariableCost.Mul(quantity))
	if durationMillis > 0 {
		total = total.Add(c.PerMilliSecond.Mul(decimal.NewFromInt(durationMillis)))
	}
	return total
}

// WorkEffortCostCalc links a routing task to a cost component calc.
type WorkEffortCostCalc struct {
	WorkEffortID        string    `json:"workEffortId"`
	CostComponentCalcID string    `json:"costComponentCalcId"`
	CostComponentTypeID string    `json:"costComponentTypeId,omitempty"`
	FromDate            time.Time `json:"fromDate"`
}

// BomComponent is one line of an exploded bill of material.
type BomComponent struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Depth     int             `json:"depth"`
}
