// Package manufacturing manages routings, bills of material, production
// runs, and cost component calcs.
package manufacturing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/logging"
)

// Service manages manufacturing records.
type Service struct {
	store storage.ManufacturingStore
	log   *logging.Logger
}

// New constructs a manufacturing service.
func New(store storage.ManufacturingStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("manufacturing")
	}
	return &Service{store: store, log: log}
}

// Routings ------------------------------------------------------------------

// CreateRouting persists a routing header.
func (s *Service) CreateRouting(ctx context.Context, we domain.WorkEffort) (domain.WorkEffort, error) {
	if strings.TrimSpace(we.WorkEffortName) == "" {
		return domain.WorkEffort{}, apperrors.Validation("workEffortName is required")
	}
	we.WorkEffortTypeID = domain.TypeRouting
	we.StatusID = ""
	return s.store.CreateWorkEffort(ctx, we)
}

// UpdateRouting updates a routing header's editable fields.
func (s *Service) UpdateRouting(ctx context.Context, we domain.WorkEffort) (domain.WorkEffort, error) {
	existing, err := s.store.GetWorkEffort(ctx, we.WorkEffortID)
	if err != nil {
		return domain.WorkEffort{}, err
	}
	if existing.WorkEffortTypeID != domain.TypeRouting {
		return domain.WorkEffort{}, apperrors.Validation("work effort %s is not a routing", we.WorkEffortID)
	}
	if strings.TrimSpace(we.WorkEffortName) == "" {
		return domain.WorkEffort{}, apperrors.Validation("workEffortName is required")
	}
	we.WorkEffortTypeID = domain.TypeRouting
	we.StatusID = existing.StatusID
	return s.store.UpdateWorkEffort(ctx, we)
}

// AddRoutingTask creates a task and links it under the routing at the given
// sequence.
func (s *Service) AddRoutingTask(ctx context.Context, routingID string, task domain.WorkEffort, sequenceNum int) (domain.WorkEffort, error) {
	routing, err := s.store.GetWorkEffort(ctx, routingID)
	if err != nil {
		return domain.WorkEffort{}, err
	}
	if routing.WorkEffortTypeID != domain.TypeRouting {
		return domain.WorkEffort{}, apperrors.Validation("work effort %s is not a routing", routingID)
	}
	if strings.TrimSpace(task.WorkEffortName) == "" {
		return domain.WorkEffort{}, apperrors.Validation("workEffortName is required")
	}

	task.WorkEffortTypeID = domain.TypeRoutingTask
	created, err := s.store.CreateWorkEffort(ctx, task)
	if err != nil {
		return domain.WorkEffort{}, err
	}
	err = s.store.CreateWorkEffortAssoc(ctx, domain.WorkEffortAssoc{
		WorkEffortIDFrom: routingID,
		WorkEffortIDTo:   created.WorkEffortID,
		SequenceNum:      sequenceNum,
		FromDate:         time.Now().UTC(),
	})
	if err != nil {
		return domain.WorkEffort{}, err
	}
	return created, nil
}

// ListRoutings lists routing headers.
func (s *Service) ListRoutings(ctx context.Context) ([]domain.WorkEffort, error) {
	return s.store.ListWorkEfforts(ctx, storage.WorkEffortFilter{WorkEffortTypeID: domain.TypeRouting})
}

// ListRoutingTasks returns the routing's tasks in sequence order.
func (s *Service) ListRoutingTasks(ctx context.Context, routingID string) ([]domain.WorkEffort, error) {
	assocs, err := s.store.ListWorkEffortAssocs(ctx, routingID)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.WorkEffort, 0, len(assocs))
	for _, a := range assocs {
		task, err := s.store.GetWorkEffort(ctx, a.WorkEffortIDTo)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Production runs -----------------------------------------------------------

// CreateProductionRun creates a run in PRUN_CREATED and snapshots the
// routing's tasks under it.
func (s *Service) CreateProductionRun(ctx context.Context, routingID, productID string, quantity decimal.Decimal, run domain.WorkEffort) (domain.WorkEffort, error) {
	if productID == "" {
		return domain.WorkEffort{}, apperrors.Validation("productId is required")
	}
	if !quantity.IsPositive() {
		return domain.WorkEffort{}, apperrors.Validation("quantityToProduce must be positive")
	}

	var tasks []domain.WorkEffort
	if routingID != "" {
		routing, err := s.store.GetWorkEffort(ctx, routingID)
		if err != nil {
			return domain.WorkEffort{}, err
		}
		if routing.WorkEffortTypeID != domain.TypeRouting {
			return domain.WorkEffort{}, apperrors.Validation("work effort %s is not a routing", routingID)
		}
		tasks, err = s.ListRoutingTasks(ctx, routingID)
		if err != nil {
			return domain.WorkEffort{}, err
		}
		if run.WorkEffortName == "" {
			run.WorkEffortName = routing.WorkEffortName
		}
	}
	if strings.TrimSpace(run.WorkEffortName) == "" {
		return domain.WorkEffort{}, apperrors.Validation("workEffortName is required")
	}

	run.WorkEffortTypeID = domain.TypeProductionRun
	run.StatusID = domain.StatusCreated
	run.ProductID = productID
	run.QuantityToProduce = quantity
	created, err := s.store.CreateWorkEffort(ctx, run)
	if err != nil {
		return domain.WorkEffort{}, err
	}

	for i, task := range tasks {
		snapshot := domain.WorkEffort{
			WorkEffortTypeID:      domain.TypeProdRunTask,
			WorkEffortName:        task.WorkEffortName,
			Description:           task.Description,
			StatusID:              domain.StatusCreated,
			FacilityID:            task.FacilityID,
			EstimatedMilliSeconds: task.EstimatedMilliSeconds,
		}
		createdTask, err := s.store.CreateWorkEffort(ctx, snapshot)
		if err != nil {
			return domain.WorkEffort{}, err
		}
		err = s.store.CreateWorkEffortAssoc(ctx, domain.WorkEffortAssoc{
			WorkEffortIDFrom: created.WorkEffortID,
			WorkEffortIDTo:   createdTask.WorkEffortID,
			SequenceNum:      (i + 1) * 10,
			FromDate:         time.Now().UTC(),
		})
		if err != nil {
			return domain.WorkEffort{}, err
		}
	}

	s.log.WithContext(ctx).
		WithField("work_effort_id", created.WorkEffortID).
		WithField("product_id", productID).
		Info("production run created")
	return created, nil
}

// TransitionProductionRun moves a run to a new status, rejecting moves the
// status graph does not allow.
func (s *Service) TransitionProductionRun(ctx context.Context, runID, newStatus string) (domain.WorkEffort, error) {
	run, err := s.store.GetWorkEffort(ctx, runID)
	if err != nil {
		return domain.WorkEffort{}, err
	}
	if run.WorkEffortTypeID != domain.TypeProductionRun {
		return domain.WorkEffort{}, apperrors.Validation("work effort %s is not a production run", runID)
	}
	if err := domain.ValidateTransition(run.StatusID, newStatus); err != nil {
		return domain.WorkEffort{}, err
	}

	run.StatusID = newStatus
	updated, err := s.store.UpdateWorkEffort(ctx, run)
	if err != nil {
		return domain.WorkEffort{}, err
	}
	s.log.WithContext(ctx).
		WithField("work_effort_id", runID).
		WithField("status_id", newStatus).
		Info("production run status changed")
	return updated, nil
}

// TransitionRunTask moves a production run task through the same status
// graph as its run.
func (s *Service) TransitionRunTask(ctx context.Context, taskID, newStatus string) (domain.WorkEffort, error) {
	task, err := s.store.GetWorkEffort(ctx, taskID)
	if err != nil {
		return domain.WorkEffort{}, err
	}
	if task.WorkEffortTypeID != domain.TypeProdRunTask {
		return domain.WorkEffort{}, apperrors.Validation("work effort %s is not a production run task", taskID)
	}
	if err := domain.ValidateTransition(task.StatusID, newStatus); err != nil {
		return domain.WorkEffort{}, err
	}

	task.StatusID = newStatus
	return s.store.UpdateWorkEffort(ctx, task)
}

// ListProductionRuns lists runs, optionally filtered by status.
func (s *Service) ListProductionRuns(ctx context.Context, statusID string) ([]domain.WorkEffort, error) {
	return s.store.ListWorkEfforts(ctx, storage.WorkEffortFilter{
		WorkEffortTypeID: domain.TypeProductionRun,
		StatusID:         statusID,
	})
}

// GetWorkEffort returns one work effort.
func (s *Service) GetWorkEffort(ctx context.Context, id string) (domain.WorkEffort, error) {
	return s.store.GetWorkEffort(ctx, id)
}

// Cost components -----------------------------------------------------------

// SaveCostCalc upserts a cost component calc.
func (s *Service) SaveCostCalc(ctx context.Context, calc domain.CostComponentCalc) (domain.CostComponentCalc, error) {
	if calc.FixedCost.IsNegative() || calc.VariableCost.IsNegative() || calc.PerMilliSecond.IsNegative() {
		return domain.CostComponentCalc{}, apperrors.Validation("cost rates must not be negative")
	}
	return s.store.SaveCostCalc(ctx, calc)
}

// GetCostCalc returns one cost component calc.
func (s *Service) GetCostCalc(ctx context.Context, id string) (domain.CostComponentCalc, error) {
	return s.store.GetCostCalc(ctx, id)
}

// ListCostCalcs lists all cost component calcs.
func (s *Service) ListCostCalcs(ctx context.Context) ([]domain.CostComponentCalc, error) {
	return s.store.ListCostCalcs(ctx)
}

// DeleteCostCalc removes a cost component calc.
func (s *Service) DeleteCostCalc(ctx context.Context, id string) error {
	return s.store.DeleteCostCalc(ctx, id)
}

// LinkTaskCostCalc attaches a cost calc to a routing task.
func (s *Service) LinkTaskCostCalc(ctx context.Context, link domain.WorkEffortCostCalc) error {
	if link.FromDate.IsZero() {
		link.FromDate = time.Now().UTC()
	}
	return s.store.CreateWorkEffortCostCalc(ctx, link)
}

// EstimateTaskCost sums every cost calc linked to the task for the given
// quantity, using the task's estimated duration for time-based rates.
func (s *Service) EstimateTaskCost(ctx context.Context, taskID string, quantity decimal.Decimal) (decimal.Decimal, error) {
	task, err := s.store.GetWorkEffort(ctx, taskID)
	if err != nil {
		return decimal.Zero, err
	}
	links, err := s.store.ListWorkEffortCostCalcs(ctx, taskID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, link := range links {
		calc, err := s.store.GetCostCalc(ctx, link.CostComponentCalcID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(calc.Cost(quantity, task.EstimatedMilliSeconds))
	}
	return total, nil
}
