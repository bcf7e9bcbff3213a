package httpapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/ledgerworks/erp/internal/app/metrics"
	apperrors "github.com/ledgerworks/erp/internal/errors"
)

// reports dispatches the financial report endpoints. Every report is a GET
// with its inputs in query parameters.
func (h *handler) reports(w http.ResponseWriter, r *http.Request, orgID string, rest []string) {
	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	report := rest[0]
	q := r.URL.Query()
	fiscalType := q.Get("glFiscalTypeId")

	var (
		result interface{}
		err    error
	)
	switch report {
	case "trial-balance":
		asOf := time.Now().UTC()
		if t, perr := parseTimeParam(q, "asOf"); perr != nil {
			writeError(w, perr)
			return
		} else if t != nil {
			asOf = *t
		}
		result, err = h.app.Reports.BuildTrialBalance(r.Context(), orgID, asOf, fiscalType)

	case "gl-account-trial-balance":
		glAccountID := q.Get("glAccountId")
		timePeriodID := q.Get("timePeriodId")
		if glAccountID == "" || timePeriodID == "" {
			writeError(w, apperrors.Validation("glAccountId and timePeriodId are required"))
			return
		}
		result, err = h.app.Reports.BuildGlAccountTrialBalance(r.Context(), orgID, glAccountID, timePeriodID)

	case "income-statement":
		from, thru, perr := dateRange(q, "fromDate", "thruDate")
		if perr != nil {
			writeError(w, perr)
			return
		}
		result, err = h.app.Reports.BuildIncomeStatement(r.Context(), orgID, from, thru, fiscalType)

	case "balance-sheet":
		asOf := time.Now().UTC()
		if t, perr := parseTimeParam(q, "asOf"); perr != nil {
			writeError(w, perr)
			return
		} else if t != nil {
			asOf = *t
		}
		result, err = h.app.Reports.BuildBalanceSheet(r.Context(), orgID, asOf, fiscalType)

	case "cash-flow-statement":
		from, thru, perr := dateRange(q, "fromDate", "thruDate")
		if perr != nil {
			writeError(w, perr)
			return
		}
		result, err = h.app.Reports.BuildCashFlowStatement(r.Context(), orgID, from, thru)

	case "transaction-totals":
		from, perr := parseTimeParam(q, "fromDate")
		if perr != nil {
			writeError(w, perr)
			return
		}
		thru, perr := parseTimeParam(q, "thruDate")
		if perr != nil {
			writeError(w, perr)
			return
		}
		result, err = h.app.Ledger.Totals(r.Context(), orgID, from, thru)

	case "comparative-balance-sheet":
		asOf1, perr := requireTimeParam(q, "asOf1")
		if perr != nil {
			writeError(w, perr)
			return
		}
		asOf2, perr := requireTimeParam(q, "asOf2")
		if perr != nil {
			writeError(w, perr)
			return
		}
		result, err = h.app.Reports.BuildComparativeBalanceSheet(r.Context(), orgID, asOf1, asOf2, fiscalType)

	case "comparative-income-statement":
		from1, thru1, perr := dateRange(q, "fromDate1", "thruDate1")
		if perr != nil {
			writeError(w, perr)
			return
		}
		from2, thru2, perr := dateRange(q, "fromDate2", "thruDate2")
		if perr != nil {
			writeError(w, perr)
			return
		}
		result, err = h.app.Reports.BuildComparativeIncomeStatement(r.Context(), orgID, from1, thru1, from2, thru2, fiscalType)

	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordReportGenerated(report)
	writeJSON(w, http.StatusOK, result)
}

func dateRange(q url.Values, fromName, thruName string) (time.Time, time.Time, error) {
	fromRaw := q.Get(fromName)
	thruRaw := q.Get(thruName)
	if fromRaw == "" || thruRaw == "" {
		return time.Time{}, time.Time{}, apperrors.Validation("%s and %s are required", fromName, thruName)
	}
	from, err := parseTime(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("%s must be an RFC3339 or YYYY-MM-DD timestamp", fromName)
	}
	thru, err := parseTime(thruRaw)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("%s must be an RFC3339 or YYYY-MM-DD timestamp", thruName)
	}
	return from, thru, nil
}
