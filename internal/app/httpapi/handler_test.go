package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/ledgerworks/erp/internal/app"
)

func newTestHandler() http.Handler {
	return NewHandler(app.New(app.Stores{}, nil, nil))
}

func marshal(v interface{}) *bytes.Reader {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(data)
}

func do(handler http.Handler, method, path string, body *bytes.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHandlerLedgerLifecycle(t *testing.T) {
	handler := newTestHandler()

	// Build a three-account chart under one organization.
	accounts := []map[string]interface{}{
		{"glAccountId": "1000", "accountCode": "1000", "accountName": "Assets", "glAccountTypeId": "BANK_ACCOUNT", "glAccountClassId": "ASSET"},
		{"glAccountId": "1100", "accountCode": "1100", "accountName": "Cash", "glAccountTypeId": "BANK_ACCOUNT", "glAccountClassId": "CASH", "parentGlAccountId": "1000"},
		{"glAccountId": "4000", "accountCode": "4000", "accountName": "Sales", "glAccountTypeId": "SALES", "glAccountClassId": "REVENUE"},
	}
	for _, acct := range accounts {
		resp := do(handler, http.MethodPost, "/organizations/Company/gl-accounts", marshal(acct))
		if resp.Code != http.StatusCreated {
			t.Fatalf("create account: expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
	}

	resp := do(handler, http.MethodGet, "/organizations/Company/gl-accounts", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list accounts: expected 200, got %d", resp.Code)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal chart rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 chart rows, got %d", len(rows))
	}

	resp = do(handler, http.MethodGet, "/organizations/Company/gl-accounts/tree", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("tree: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var tree []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &tree); err != nil {
		t.Fatalf("unmarshal tree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 root nodes, got %d", len(tree))
	}

	// Draft, inspect, post.
	draftBody := marshal(map[string]interface{}{
		"transaction": map[string]interface{}{
			"transactionDate": "2024-03-15T00:00:00Z",
			"description":     "cash sale",
		},
		"entries": []map[string]interface{}{
			{"glAccountId": "1100", "debitCreditFlag": "D", "amount": "250"},
			{"glAccountId": "4000", "debitCreditFlag": "C", "amount": "250"},
		},
	})
	resp = do(handler, http.MethodPost, "/organizations/Company/acctg-trans", draftBody)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create draft: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var draft map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &draft); err != nil {
		t.Fatalf("unmarshal draft: %v", err)
	}
	transID, _ := draft["acctgTransId"].(string)
	if transID == "" {
		t.Fatalf("expected acctgTransId in draft response, got %v", draft)
	}

	resp = do(handler, http.MethodGet, "/organizations/Company/acctg-trans/"+transID+"/entries", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list entries: expected 200, got %d", resp.Code)
	}

	resp = do(handler, http.MethodPost, "/organizations/Company/acctg-trans/"+transID+"/post", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("post: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var posted map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &posted); err != nil {
		t.Fatalf("unmarshal posted: %v", err)
	}
	if posted["isPosted"] != true {
		t.Fatalf("expected posted transaction, got %v", posted)
	}

	// Posting twice conflicts.
	resp = do(handler, http.MethodPost, "/organizations/Company/acctg-trans/"+transID+"/post", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("double post: expected 409, got %d", resp.Code)
	}

	// The trial balance sees the posted amounts and balances.
	resp = do(handler, http.MethodGet, "/organizations/Company/reports/trial-balance?asOf=2024-12-31", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("trial balance: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var tb struct {
		TotalDebit  string `json:"totalDebit"`
		TotalCredit string `json:"totalCredit"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &tb); err != nil {
		t.Fatalf("unmarshal trial balance: %v", err)
	}
	if tb.TotalDebit != "250" || tb.TotalCredit != "250" {
		t.Fatalf("expected balanced 250/250 trial balance, got %s/%s", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestHandlerPeriodClose(t *testing.T) {
	handler := newTestHandler()

	resp := do(handler, http.MethodPost, "/organizations/Company/time-periods", marshal(map[string]interface{}{
		"periodTypeId": "FISCAL_MONTH",
		"periodNum":    3,
		"periodName":   "March 2024",
		"fromDate":     "2024-03-01T00:00:00Z",
		"thruDate":     "2024-04-01T00:00:00Z",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create period: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var p map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal period: %v", err)
	}
	periodID := p["customTimePeriodId"].(string)

	resp = do(handler, http.MethodPost, fmt.Sprintf("/organizations/Company/time-periods/%s/close", periodID), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("close period: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(handler, http.MethodPost, fmt.Sprintf("/organizations/Company/time-periods/%s/close", periodID), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("close twice: expected 400, got %d", resp.Code)
	}
}

func TestHandlerMappingDelete(t *testing.T) {
	handler := newTestHandler()

	resp := do(handler, http.MethodPost, "/organizations/Company10/gl-accounts", marshal(map[string]interface{}{
		"glAccountId": "120000", "accountCode": "120000", "accountName": "Accounts Receivable",
		"glAccountTypeId": "ACCTS_REC", "glAccountClassId": "ASSET",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(handler, http.MethodPost, "/organizations/Company10/gl-mappings/party-gl-accounts", marshal(map[string]interface{}{
		"partyId": "10000", "roleTypeId": "CUSTOMER", "glAccountTypeId": "ACCTS_REC", "glAccountId": "120000",
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("save mapping: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(handler, http.MethodDelete, "/organizations/Company10/gl-mappings/party-gl-accounts?partyId=10000&roleTypeId=CUSTOMER&glAccountTypeId=ACCTS_REC", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete mapping: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Deleting the same row again reports not found.
	resp = do(handler, http.MethodDelete, "/organizations/Company10/gl-mappings/party-gl-accounts?partyId=10000&roleTypeId=CUSTOMER&glAccountTypeId=ACCTS_REC", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("delete missing mapping: expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("record not found")) {
		t.Fatalf("expected record-not-found message, got %s", resp.Body.String())
	}

	// A key missing one composite field is rejected before the store runs.
	resp = do(handler, http.MethodDelete, "/organizations/Company10/gl-mappings/party-gl-accounts?partyId=10000&glAccountTypeId=ACCTS_REC", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("delete with missing key field: expected 400, got %d", resp.Code)
	}

	resp = do(handler, http.MethodGet, "/organizations/Company10/gl-mappings/no-such-kind", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown kind: expected 404, got %d", resp.Code)
	}
}

func TestHandlerProductionRunLifecycle(t *testing.T) {
	handler := newTestHandler()

	resp := do(handler, http.MethodPost, "/manufacturing/routings", marshal(map[string]interface{}{
		"workEffortName": "Bike Assembly",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create routing: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var routing map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &routing); err != nil {
		t.Fatalf("unmarshal routing: %v", err)
	}
	routingID := routing["workEffortId"].(string)

	resp = do(handler, http.MethodPost, "/manufacturing/routings/"+routingID+"/tasks", marshal(map[string]interface{}{
		"task":        map[string]interface{}{"workEffortName": "Frame Weld", "estimatedMilliSeconds": 60000},
		"sequenceNum": 10,
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("add task: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(handler, http.MethodPost, "/manufacturing/production-runs", marshal(map[string]interface{}{
		"routingId": routingID,
		"productId": "BIKE",
		"quantity":  "5",
	}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create run: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var run map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &run); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	runID := run["workEffortId"].(string)
	if run["statusId"] != "PRUN_CREATED" {
		t.Fatalf("expected PRUN_CREATED, got %v", run["statusId"])
	}

	// Starting before the documents print violates the status graph.
	resp = do(handler, http.MethodPost, "/manufacturing/production-runs/"+runID+"/start", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("early start: expected 409, got %d: %s", resp.Code, resp.Body.String())
	}

	for _, action := range []string{"schedule", "print-docs", "start", "complete", "close"} {
		resp = do(handler, http.MethodPost, "/manufacturing/production-runs/"+runID+"/"+action, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", action, resp.Code, resp.Body.String())
		}
	}

	resp = do(handler, http.MethodGet, "/manufacturing/production-runs/"+runID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get run: expected 200, got %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &run); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	if run["statusId"] != "PRUN_CLOSED" {
		t.Fatalf("expected PRUN_CLOSED, got %v", run["statusId"])
	}
}

func TestHandlerBomExplosion(t *testing.T) {
	handler := newTestHandler()

	boms := []map[string]interface{}{
		{"productId": "BIKE", "productIdTo": "WHEEL", "sequenceNum": 10, "quantity": "2", "fromDate": "2024-01-01T00:00:00Z"},
		{"productId": "WHEEL", "productIdTo": "SPOKE", "sequenceNum": 10, "quantity": "32", "scrapFactor": "0.1", "fromDate": "2024-01-01T00:00:00Z"},
	}
	for _, bom := range boms {
		resp := do(handler, http.MethodPost, "/manufacturing/boms", marshal(bom))
		if resp.Code != http.StatusCreated {
			t.Fatalf("create bom: expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
	}

	resp := do(handler, http.MethodGet, "/manufacturing/boms/BIKE/explosion?quantity=3&asOf=2024-06-01", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("explosion: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var components []struct {
		ProductID string `json:"productId"`
		Quantity  string `json:"quantity"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &components); err != nil {
		t.Fatalf("unmarshal components: %v", err)
	}
	if len(components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(components))
	}
	if components[0].ProductID != "WHEEL" || components[0].Quantity != "6" {
		t.Fatalf("unexpected first component: %+v", components[0])
	}
	if components[1].ProductID != "SPOKE" || components[1].Quantity != "211.2" {
		t.Fatalf("unexpected second component: %+v", components[1])
	}
}

func TestHandlerPaging(t *testing.T) {
	handler := newTestHandler()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("10%d0", i)
		resp := do(handler, http.MethodPost, "/organizations/Company/gl-accounts", marshal(map[string]interface{}{
			"glAccountId": id, "accountCode": id, "accountName": "Account " + id,
			"glAccountTypeId": "BANK_ACCOUNT", "glAccountClassId": "ASSET",
		}))
		if resp.Code != http.StatusCreated {
			t.Fatalf("create account %s: expected 201, got %d", id, resp.Code)
		}
	}

	resp := do(handler, http.MethodGet, "/organizations/Company/gl-accounts?skip=1&top=2&orderBy=glAccountId", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("paged list: expected 200, got %d", resp.Code)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["glAccountId"] != "1010" {
		t.Fatalf("expected first paged row 1010, got %v", rows[0]["glAccountId"])
	}

	resp = do(handler, http.MethodGet, "/organizations/Company/gl-accounts?skip=-1", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("negative skip: expected 400, got %d", resp.Code)
	}
}

func TestHandlerHealthz(t *testing.T) {
	handler := newTestHandler()

	resp := do(handler, http.MethodGet, "/healthz", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.Code)
	}
}
