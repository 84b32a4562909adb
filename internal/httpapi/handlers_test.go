package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"lodgepos/backoffice/internal/domain"
	"lodgepos/backoffice/internal/report"
	"lodgepos/backoffice/internal/service"
	"lodgepos/backoffice/internal/store/memory"
)

// newTestAPI builds a full API over the seeded in-memory store with a real
// AuthManager and Service, so handler tests exercise the complete request
// path including token parsing and role checks.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	reports := report.NewEngine(repo, nil, time.Minute)
	svc := service.New(repo, reports, nil)
	auth := NewAuthManager("test-secret-key-for-handler-tests", time.Hour, repo)

	return New(svc, auth, "*", zaptest.NewLogger(t))
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Username: username,
		Password: password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token in login response")
	}
	return resp.AccessToken
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode response body: %v (body: %s)", err, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/shifts/current", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/shifts/current", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestShiftLifecycleOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{
		"start_cash": "100.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open shift: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var opened domain.ShiftResponse
	decodeBody(t, rec, &opened)
	if opened.Shift.Status != domain.ShiftStatusOpen || opened.Shift.OpenedBy != "cashier" {
		t.Fatalf("unexpected opened shift: %+v", opened.Shift)
	}
	shiftID := opened.Shift.ID

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/shifts/current/entries", token, map[string]any{
		"kind": "sale", "amount": "250.50", "note": "room 12 minibar",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale entry: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/shifts/current/entries", token, map[string]any{
		"kind": "expense", "amount": "30.25", "note": "laundry supplies",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense entry: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/shifts/current", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current shift: expected 200, got %d", rec.Code)
	}
	var current domain.CurrentShiftResponse
	decodeBody(t, rec, &current)
	if !current.Open || current.Shift == nil {
		t.Fatalf("expected an open shift, got %+v", current)
	}
	if current.Shift.TotalSales.StringFixed(2) != "250.50" || current.Shift.TotalExpenses.StringFixed(2) != "30.25" {
		t.Fatalf("unexpected running totals: sales=%s expenses=%s",
			current.Shift.TotalSales, current.Shift.TotalExpenses)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/shifts/"+itoa(shiftID)+"/close", token, map[string]any{
		"end_cash_actual": "320.25", "notes": "evening count",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("close shift: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var closed domain.ShiftResponse
	decodeBody(t, rec, &closed)
	if closed.Shift.Status != domain.ShiftStatusClosed || closed.Shift.ClosedBy != "cashier" {
		t.Fatalf("unexpected closed shift: %+v", closed.Shift)
	}
	if closed.Shift.EndCashExpected == nil || closed.Shift.EndCashExpected.StringFixed(2) != "320.25" {
		t.Fatalf("expected end_cash_expected 320.25, got %v", closed.Shift.EndCashExpected)
	}
	if closed.Shift.Difference == nil || !closed.Shift.Difference.IsZero() {
		t.Fatalf("expected zero difference, got %v", closed.Shift.Difference)
	}
	if closed.Shift.Outcome != "balanced" {
		t.Fatalf("expected balanced outcome, got %q", closed.Shift.Outcome)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/shifts/"+itoa(shiftID)+"/entries", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list entries: expected 200, got %d", rec.Code)
	}
	var entries domain.ShiftEntryListResponse
	decodeBody(t, rec, &entries)
	if len(entries.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries.Entries))
	}
}

func TestSecondOpenShiftConflictsOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{"start_cash": "100"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first open: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{"start_cash": "200"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second open: expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestEntryWithoutOpenShiftConflicts(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/current/entries", token, map[string]any{
		"kind": "sale", "amount": "10",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 with no open shift, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestCloseShortShiftReportsShortfall(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{"start_cash": "100"})
	var opened domain.ShiftResponse
	decodeBody(t, rec, &opened)

	doJSON(t, handler, http.MethodPost, "/api/v1/shifts/current/entries", token, map[string]any{
		"kind": "sale", "amount": "50",
	})

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/shifts/"+itoa(opened.Shift.ID)+"/close", token, map[string]any{
		"end_cash_actual": "140",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var closed domain.ShiftResponse
	decodeBody(t, rec, &closed)
	if closed.Shift.Difference == nil || closed.Shift.Difference.StringFixed(2) != "-10.00" {
		t.Fatalf("expected difference -10.00, got %v", closed.Shift.Difference)
	}
	if closed.Shift.Outcome != "short" {
		t.Fatalf("expected short outcome, got %q", closed.Shift.Outcome)
	}
}

func TestUnknownJSONFieldsRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{
		"start_cash": "50", "float": "extra",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRoleEnforcementOnAdminRoutes(t *testing.T) {
	handler := newTestAPI(t).Handler()
	cashierToken := loginAs(t, handler, "cashier", "cashier123")
	adminToken := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/suppliers", cashierToken, domain.SupplierCreateRequest{Name: "PT Baru"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier create supplier: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stock-adjustments", cashierToken, domain.StockAdjustmentCreateRequest{
		Reason: "breakage",
		Items:  []domain.StockAdjustmentLineRequest{{MenuItemID: 5, Mode: "remove", Quantity: 1}},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier create adjustment: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/suppliers/2", cashierToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier delete supplier: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", cashierToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier audit logs: expected 403, got %d", rec.Code)
	}

	// Cashiers may still read what admins write.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stock-adjustments", cashierToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cashier list adjustments: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin audit logs: expected 200, got %d", rec.Code)
	}
}

func TestStockAdjustmentOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock-adjustments", token, domain.StockAdjustmentCreateRequest{
		AdjustmentDate: "2026-08-24",
		Reason:         "monthly count",
		Items: []domain.StockAdjustmentLineRequest{
			{MenuItemID: 5, Mode: "remove", Quantity: 8, Note: "breakage"},
			{MenuItemID: 6, Mode: "add", Quantity: 4},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create adjustment: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created domain.StockAdjustmentResponse
	decodeBody(t, rec, &created)
	if len(created.Adjustment.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(created.Adjustment.Items))
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stock-adjustments", token, nil)
	var list domain.StockAdjustmentListResponse
	decodeBody(t, rec, &list)
	if len(list.Adjustments) != 1 || list.Adjustments[0].ItemCount != 2 {
		t.Fatalf("unexpected adjustment list: %+v", list.Adjustments)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stock-adjustments/"+itoa(created.Adjustment.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("adjustment detail: expected 200, got %d", rec.Code)
	}
	var detail domain.StockAdjustmentDetailResponse
	decodeBody(t, rec, &detail)
	if detail.Items[0].PreviousStock != 48 || detail.Items[0].NewStock != 40 {
		t.Fatalf("unexpected first line stock trail: %+v", detail.Items[0])
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stock-items", token, nil)
	var items domain.StockItemListResponse
	decodeBody(t, rec, &items)
	for _, item := range items.Items {
		if item.ID == 5 && item.CurrentStock != 40 {
			t.Fatalf("expected item 5 stock 40, got %d", item.CurrentStock)
		}
		if item.ID == 6 && item.CurrentStock != 40 {
			t.Fatalf("expected item 6 stock 40, got %d", item.CurrentStock)
		}
	}
}

func TestStockAdjustmentUnderflowConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock-adjustments", token, domain.StockAdjustmentCreateRequest{
		AdjustmentDate: "2026-08-24",
		Reason:         "impossible shrinkage",
		Items:          []domain.StockAdjustmentLineRequest{{MenuItemID: 5, Mode: "remove", Quantity: 500}},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on underflow, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stock-items", token, nil)
	var items domain.StockItemListResponse
	decodeBody(t, rec, &items)
	for _, item := range items.Items {
		if item.ID == 5 && item.CurrentStock != 48 {
			t.Fatalf("expected item 5 stock untouched at 48, got %d", item.CurrentStock)
		}
	}
}

func TestStockAdjustmentWithoutDateRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stock-adjustments", token, domain.StockAdjustmentCreateRequest{
		Reason: "undated count",
		Items:  []domain.StockAdjustmentLineRequest{{MenuItemID: 5, Mode: "add", Quantity: 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing adjustment date, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stock-adjustments", token, nil)
	var list domain.StockAdjustmentListResponse
	decodeBody(t, rec, &list)
	if len(list.Adjustments) != 0 {
		t.Fatalf("expected nothing recorded, got %+v", list.Adjustments)
	}
}

func TestSupplierLifecycleOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/suppliers", token, domain.SupplierCreateRequest{
		Name:  "PT Segar Abadi",
		Phone: "0812-1111-2222",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create supplier: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created domain.SupplierResponse
	decodeBody(t, rec, &created)
	supplierID := itoa(created.Supplier.ID)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/suppliers/"+supplierID+"/purchases", token, map[string]any{
		"reference": "INV-100", "purchase_date": "2026-08-20", "total": "300.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record purchase: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var afterPurchase domain.SupplierBalanceResponse
	decodeBody(t, rec, &afterPurchase)
	if afterPurchase.Summary.BalanceDue.StringFixed(2) != "300.00" {
		t.Fatalf("expected balance 300.00 after purchase, got %s", afterPurchase.Summary.BalanceDue)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/suppliers/"+supplierID+"/payments", token, map[string]any{
		"amount": "100.00", "method": "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record payment: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var afterPayment domain.SupplierBalanceResponse
	decodeBody(t, rec, &afterPayment)
	if afterPayment.Summary.BalanceDue.StringFixed(2) != "200.00" {
		t.Fatalf("expected balance 200.00 after payment, got %s", afterPayment.Summary.BalanceDue)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/suppliers/"+supplierID+"/purchases", token, nil)
	var purchases domain.SupplierPurchaseListResponse
	decodeBody(t, rec, &purchases)
	if len(purchases.Purchases) != 1 || purchases.Purchases[0].Reference != "INV-100" {
		t.Fatalf("unexpected purchase list: %+v", purchases.Purchases)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/suppliers/balances", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balances: expected 200, got %d", rec.Code)
	}
	var balances domain.SupplierBalanceListResponse
	decodeBody(t, rec, &balances)
	found := false
	for _, summary := range balances.Summaries {
		if summary.SupplierID == created.Supplier.ID {
			found = true
			if summary.PurchaseCount != 1 || summary.PaymentCount != 1 {
				t.Fatalf("unexpected counts: %+v", summary)
			}
		}
	}
	if !found {
		t.Fatalf("new supplier missing from balances: %+v", balances.Summaries)
	}

	newPhone := "0813-9999-0000"
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/suppliers/"+supplierID, token, domain.SupplierUpdateRequest{Phone: &newPhone})
	if rec.Code != http.StatusOK {
		t.Fatalf("update supplier: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var updated domain.SupplierResponse
	decodeBody(t, rec, &updated)
	if updated.Supplier.Phone != newPhone || updated.Supplier.Name != "PT Segar Abadi" {
		t.Fatalf("patch went wrong: %+v", updated.Supplier)
	}

	// History forces a soft delete.
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/suppliers/"+supplierID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete supplier: expected 200, got %d", rec.Code)
	}
	var deleted domain.SupplierDeleteResponse
	decodeBody(t, rec, &deleted)
	if deleted.Outcome != domain.SupplierOutcomeDeactivated {
		t.Fatalf("expected deactivated outcome, got %q", deleted.Outcome)
	}

	// Seeded supplier 2 has no history and goes away for real.
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/suppliers/2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete clean supplier: expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &deleted)
	if deleted.Outcome != domain.SupplierOutcomeDeleted {
		t.Fatalf("expected deleted outcome, got %q", deleted.Outcome)
	}
}

func TestDaySummaryEndpointValidatesDate(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/day-summary?date=2026-08-24", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("day summary: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var summary domain.DaySummary
	decodeBody(t, rec, &summary)
	if summary.Date != "2026-08-24" {
		t.Fatalf("expected date echoed back, got %q", summary.Date)
	}
	if summary.VarianceFlag == "" {
		t.Fatalf("expected a variance flag")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/day-summary?date=24-08-2026", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}
}

func TestAuditLogsCaptureActorAndRequestID(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{"start_cash": "75"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open shift: expected 201, got %d", rec.Code)
	}
	requestID := rec.Header().Get("X-Request-ID")
	if requestID == "" {
		t.Fatalf("expected X-Request-ID on mutation response")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit logs: expected 200, got %d", rec.Code)
	}
	var logs domain.AuditLogListResponse
	decodeBody(t, rec, &logs)
	if len(logs.Logs) == 0 {
		t.Fatalf("expected at least one audit entry")
	}
	latest := logs.Logs[0]
	if latest.Action != "shift_open" || latest.Actor != "admin" {
		t.Fatalf("unexpected latest audit entry: %+v", latest)
	}
	if latest.RequestID != requestID {
		t.Fatalf("expected audit request_id %q, got %q", requestID, latest.RequestID)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/shifts", token, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/healthz", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 on healthz POST, got %d", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
