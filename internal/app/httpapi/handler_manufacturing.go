package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	manufdomain "github.com/ledgerworks/erp/internal/app/domain/manufacturing"
	"github.com/ledgerworks/erp/internal/app/metrics"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// runActions maps the production run action segment to its target status.
var runActions = map[string]string{
	"schedule":   manufdomain.StatusScheduled,
	"print-docs": manufdomain.StatusDocPrinted,
	"start":      manufdomain.StatusRunning,
	"complete":   manufdomain.StatusCompleted,
	"close":      manufdomain.StatusClosed,
	"cancel":     manufdomain.StatusCancelled,
}

func (h *handler) manufacturing(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/manufacturing"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[0] {
	case "routings":
		h.routings(w, r, parts[1:])
	case "boms":
		h.boms(w, r, parts[1:])
	case "production-runs":
		h.productionRuns(w, r, parts[1:])
	case "cost-calcs":
		h.costCalcs(w, r, parts[1:])
	case "tasks":
		h.tasks(w, r, parts[1:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Routings -------------------------------------------------------------------

func (h *handler) routings(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			list, err := h.app.Manufacturing.ListRoutings(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			lo, hi, err := pageBounds(r.URL.Query(), len(list))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list[lo:hi])

		case http.MethodPost:
			var payload manufdomain.WorkEffort
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			created, err := h.app.Manufacturing.CreateRouting(r.Context(), payload)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	routingID := rest[0]
	if len(rest) == 1 {
		switch r.Method {
		case http.MethodGet:
			routing, err := h.app.Manufacturing.GetWorkEffort(r.Context(), routingID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, routing)

		case http.MethodPut:
			var payload manufdomain.WorkEffort
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			payload.WorkEffortID = routingID
			updated, err := h.app.Manufacturing.UpdateRouting(r.Context(), payload)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if rest[1] != "tasks" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tasks, err := h.app.Manufacturing.ListRoutingTasks(r.Context(), routingID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)

	case http.MethodPost:
		var payload struct {
			Task        manufdomain.WorkEffort `json:"task"`
			SequenceNum int                    `json:"sequenceNum"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		created, err := h.app.Manufacturing.AddRoutingTask(r.Context(), routingID, payload.Task, payload.SequenceNum)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Bills of material ----------------------------------------------------------

func (h *handler) boms(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload manufdomain.BillOfMaterial
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		created, err := h.app.Manufacturing.CreateBomComponent(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}

	productID := rest[0]
	if len(rest) == 1 {
		switch r.Method {
		case http.MethodGet:
			list, err := h.app.Manufacturing.ListBomComponents(r.Context(), productID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list)

		case http.MethodDelete:
			q := r.URL.Query()
			productIDTo := q.Get("productIdTo")
			if productIDTo == "" {
				writeError(w, apperrors.Validation("productIdTo is required"))
				return
			}
			fromDate, err := requireTimeParam(q, "fromDate")
			if err != nil {
				writeError(w, err)
				return
			}
			if err := h.app.Manufacturing.DeleteBomComponent(r.Context(), productID, productIDTo, fromDate); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if rest[1] == "explosion" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		quantity := decimal.NewFromInt(1)
		if raw := q.Get("quantity"); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				writeError(w, apperrors.Validation("quantity must be a decimal number"))
				return
			}
			quantity = parsed
		}
		asOf := time.Now().UTC()
		if t, err := parseTimeParam(q, "asOf"); err != nil {
			writeError(w, err)
			return
		} else if t != nil {
			asOf = *t
		}
		components, err := h.app.Manufacturing.Explode(r.Context(), productID, quantity, asOf)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, components)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

// Production runs ------------------------------------------------------------

func (h *handler) productionRuns(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			list, err := h.app.Manufacturing.ListProductionRuns(r.Context(), r.URL.Query().Get("statusId"))
			if err != nil {
				writeError(w, err)
				return
			}
			lo, hi, err := pageBounds(r.URL.Query(), len(list))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list[lo:hi])

		case http.MethodPost:
			var payload struct {
				RoutingID string                 `json:"routingId"`
				ProductID string                 `json:"productId"`
				Quantity  decimal.Decimal        `json:"quantity"`
				Run       manufdomain.WorkEffort `json:"run"`
			}
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			created, err := h.app.Manufacturing.CreateProductionRun(r.Context(), payload.RoutingID, payload.ProductID, payload.Quantity, payload.Run)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	runID := rest[0]
	if len(rest) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		run, err := h.app.Manufacturing.GetWorkEffort(r.Context(), runID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}

	status, ok := runActions[rest[1]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	updated, err := h.app.Manufacturing.TransitionProductionRun(r.Context(), runID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordProductionRunTransition(status)
	writeJSON(w, http.StatusOK, updated)
}

// Cost component calcs -------------------------------------------------------

func (h *handler) costCalcs(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			list, err := h.app.Manufacturing.ListCostCalcs(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list)

		case http.MethodPost:
			var payload manufdomain.CostComponentCalc
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			saved, err := h.app.Manufacturing.SaveCostCalc(r.Context(), payload)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, saved)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	calcID := rest[0]
	switch r.Method {
	case http.MethodGet:
		calc, err := h.app.Manufacturing.GetCostCalc(r.Context(), calcID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, calc)

	case http.MethodDelete:
		if err := h.app.Manufacturing.DeleteCostCalc(r.Context(), calcID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Tasks: progress updates and cost links -------------------------------------

func (h *handler) tasks(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	taskID := rest[0]

	switch rest[1] {
	case "status":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			StatusID string `json:"statusId"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		updated, err := h.app.Manufacturing.TransitionRunTask(r.Context(), taskID, payload.StatusID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case "cost-calcs":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload manufdomain.WorkEffortCostCalc
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		payload.WorkEffortID = taskID
		if err := h.app.Manufacturing.LinkTaskCostCalc(r.Context(), payload); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "cost-estimate":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		quantity := decimal.NewFromInt(1)
		if raw := r.URL.Query().Get("quantity"); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				writeError(w, apperrors.Validation("quantity must be a decimal number"))
				return
			}
			quantity = parsed
		}
		total, err := h.app.Manufacturing.EstimateTaskCost(r.Context(), taskID, quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"estimatedCost": total})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
