// Package httpapi exposes the application services as a JSON REST API.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	app "github.com/ledgerworks/erp/internal/app"
	ledgerdomain "github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/app/domain/mapping"
	"github.com/ledgerworks/erp/internal/app/domain/period"
	"github.com/ledgerworks/erp/internal/app/metrics"
	"github.com/ledgerworks/erp/internal/app/storage"
	apperrors "github.com/ledgerworks/erp/internal/errors"
	"github.com/ledgerworks/erp/internal/httputil"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the REST API plus health and metrics
// endpoints.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/organizations/", h.organizations)
	mux.HandleFunc("/manufacturing/", h.manufacturing)
	return mux
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) organizations(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/organizations"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	orgID := parts[0]

	switch parts[1] {
	case "gl-accounts":
		h.glAccounts(w, r, orgID, parts[2:])
	case "acctg-preference":
		h.acctgPreference(w, r, orgID, parts[2:])
	case "acctg-trans":
		h.acctgTrans(w, r, orgID, parts[2:])
	case "time-periods":
		h.timePeriods(w, r, orgID, parts[2:])
	case "reports":
		h.reports(w, r, orgID, parts[2:])
	case "gl-mappings":
		h.glMappings(w, r, orgID, parts[2:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GL accounts ----------------------------------------------------------------

func (h *handler) glAccounts(w http.ResponseWriter, r *http.Request, orgID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			rows, err := h.app.Accounts.ChartOfAccounts(r.Context(), orgID, r.URL.Query().Get("orderBy"))
			if err != nil {
				writeError(w, err)
				return
			}
			lo, hi, err := pageBounds(r.URL.Query(), len(rows))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rows[lo:hi])

		case http.MethodPost:
			var payload ledgerdomain.GlAccount
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			created, err := h.app.Accounts.Create(r.Context(), payload)
			if err != nil {
				writeError(w, err)
				return
			}
			err = h.app.Accounts.AssignToOrganization(r.Context(), ledgerdomain.GlAccountOrganization{
				GlAccountID:         created.GlAccountID,
				OrganizationPartyID: orgID,
				FromDate:            time.Now().UTC(),
			})
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

	switch rest[0] {
	case "tree":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		nodes, err := h.app.Accounts.Tree(r.Context(), orgID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nodes)

	case "lov":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rows, err := h.app.Accounts.ChartOfAccounts(r.Context(), orgID, "accountCode")
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)

	case "diagram":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		diagram, err := h.app.Accounts.MermaidDiagram(r.Context(), orgID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"diagram": diagram})

	default:
		h.glAccount(w, r, rest[0])
	}
}

func (h *handler) glAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	switch r.Method {
	case http.MethodGet:
		acct, err := h.app.Accounts.Get(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)

	case http.MethodPut:
		var payload ledgerdomain.GlAccount
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		payload.GlAccountID = accountID
		updated, err := h.app.Accounts.Update(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Accounting preference ------------------------------------------------------

func (h *handler) acctgPreference(w http.ResponseWriter, r *http.Request, orgID string, rest []string) {
	if len(rest) != 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		pref, err := h.app.Accounts.GetPreference(r.Context(), orgID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pref)

	case http.MethodPut:
		var payload ledgerdomain.PartyAcctgPreference
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		payload.OrganizationPartyID = orgID
		saved, err := h.app.Accounts.SavePreference(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Accounting transactions ----------------------------------------------------

func (h *handler) acctgTrans(w http.ResponseWriter, r *http.Request, orgID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.listAcctgTrans(w, r, orgID)
		case http.MethodPost:
			var payload struct {
				Transaction ledgerdomain.AcctgTrans        `json:"transaction"`
				Entries     []ledgerdomain.AcctgTransEntry `json:"entries"`
			}
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			payload.Transaction.OrganizationPartyID = orgID
			created, err := h.app.Ledger.CreateDraft(r.Context(), payload.Transaction, payload.Entries)
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

	transID := rest[0]
	if len(rest) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		trans, err := h.app.Ledger.Get(r.Context(), orgID, transID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, trans)
		return
	}

	switch rest[1] {
	case "entries":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		entries, err := h.app.Ledger.ListEntries(r.Context(), orgID, transID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)

	case "post":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		posted, err := h.app.Ledger.Post(r.Context(), orgID, transID)
		if err != nil {
			writeError(w, err)
			return
		}
		metrics.RecordTransactionPosted(orgID)
		writeJSON(w, http.StatusOK, posted)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) listAcctgTrans(w http.ResponseWriter, r *http.Request, orgID string) {
	q := r.URL.Query()
	filter := storage.TransFilter{
		OrganizationPartyID: orgID,
		GlFiscalTypeID:      q.Get("glFiscalTypeId"),
	}
	var err error
	if filter.FromDate, err = parseTimeParam(q, "fromDate"); err != nil {
		writeError(w, err)
		return
	}
	if filter.ThruDate, err = parseTimeParam(q, "thruDate"); err != nil {
		writeError(w, err)
		return
	}
	if raw := q.Get("isPosted"); raw != "" {
		posted, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, apperrors.Validation("isPosted must be a boolean"))
			return
		}
		filter.IsPosted = &posted
	}

	list, err := h.app.Ledger.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	lo, hi, err := pageBounds(q, len(list))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list[lo:hi])
}

// Time periods ---------------------------------------------------------------

func (h *handler) timePeriods(w http.ResponseWriter, r *http.Request, orgID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			list, err := h.app.Periods.List(r.Context(), orgID)
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
			var payload period.CustomTimePeriod
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, apperrors.Validation("invalid request body: %v", err))
				return
			}
			payload.OrganizationPartyID = orgID
			created, err := h.app.Periods.Create(r.Context(), payload)
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

	periodID := rest[0]
	if len(rest) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p, err := h.app.Periods.Get(r.Context(), orgID, periodID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	if rest[1] == "close" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		closed, err := h.app.Periods.Close(r.Context(), orgID, periodID)
		if err != nil {
			writeError(w, err)
			return
		}
		metrics.RecordPeriodClosed()
		writeJSON(w, http.StatusOK, closed)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

// GL account mappings --------------------------------------------------------

func (h *handler) glMappings(w http.ResponseWriter, r *http.Request, orgID string, rest []string) {
	if len(rest) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	kind, err := mapping.ParseKind(rest[0])
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		// A fully specified composite key looks up one row; otherwise list.
		key := mappingFromQuery(kind, orgID, r.URL.Query())
		if key.ValidateKey() == nil {
			m, err := h.app.Mappings.Get(r.Context(), key)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, m)
			return
		}
		list, err := h.app.Mappings.List(r.Context(), kind, orgID)
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
		var payload mapping.Mapping
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("invalid request body: %v", err))
			return
		}
		payload.Kind = kind
		payload.OrganizationPartyID = orgID
		saved, err := h.app.Mappings.Save(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)

	case http.MethodDelete:
		key := mappingFromQuery(kind, orgID, r.URL.Query())
		deleted, err := h.app.Mappings.Delete(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleted)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// mappingFromQuery reads the composite key fields from query parameters.
func mappingFromQuery(kind mapping.Kind, orgID string, q url.Values) mapping.Mapping {
	return mapping.Mapping{
		Kind:                kind,
		OrganizationPartyID: orgID,
		GlAccountTypeID:     q.Get("glAccountTypeId"),
		ProductID:           q.Get("productId"),
		ProductCategoryID:   q.Get("productCategoryId"),
		PartyID:             q.Get("partyId"),
		RoleTypeID:          q.Get("roleTypeId"),
		CardType:            q.Get("cardType"),
		FinAccountTypeID:    q.Get("finAccountTypeId"),
		FixedAssetTypeID:    q.Get("fixedAssetTypeId"),
		PaymentMethodTypeID: q.Get("paymentMethodTypeId"),
		TaxAuthGeoID:        q.Get("taxAuthGeoId"),
		TaxAuthPartyID:      q.Get("taxAuthPartyId"),
		VarianceReasonID:    q.Get("varianceReasonId"),
	}
}

// Helpers --------------------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// pageBounds resolves skip/top query parameters into slice bounds over n
// items.
func pageBounds(q url.Values, n int) (int, int, error) {
	lo, hi := 0, n
	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return 0, 0, apperrors.Validation("skip must be a non-negative integer")
		}
		if skip > n {
			skip = n
		}
		lo = skip
	}
	if raw := q.Get("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil || top < 0 {
			return 0, 0, apperrors.Validation("top must be a non-negative integer")
		}
		if lo+top < hi {
			hi = lo + top
		}
	}
	return lo, hi, nil
}

// parseTimeParam reads an optional RFC3339 or YYYY-MM-DD query parameter.
func parseTimeParam(q url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, apperrors.Validation("%s must be an RFC3339 or YYYY-MM-DD timestamp", name)
	}
	return &t, nil
}

// requireTimeParam reads a mandatory RFC3339 or YYYY-MM-DD query parameter.
func requireTimeParam(q url.Values, name string) (time.Time, error) {
	t, err := parseTimeParam(q, name)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, apperrors.Validation("%s is required", name)
	}
	return *t, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
