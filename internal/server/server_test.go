package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestHandler() http.Handler {
	engine := tax.NewEngine(brackets.Default(), zap.NewNop())
	return NewHandler(zap.NewNop(), engine, constants.DefaultMaxBodySizeBytes, "test")
}

func do(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestHandleCalculateSuccess(t *testing.T) {
	rr := do(t, newTestHandler(), http.MethodPost, "/api/calculate",
		`{"name":"Base","grossIncome":50000,"year":2025,"deductions":"10000","credits":500}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp resultPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Name != "Base" || resp.Year != 2025 {
		t.Errorf("unexpected name/year %s/%d", resp.Name, resp.Year)
	}
	if !resp.GrossTax.Equal(decimal.RequireFromString("6017.75")) {
		t.Errorf("GrossTax = %s, expected 6017.75", resp.GrossTax)
	}
	if !resp.NetTax.Equal(decimal.RequireFromString("5517.75")) {
		t.Errorf("NetTax = %s, expected 5517.75", resp.NetTax)
	}
	if len(resp.Contributions) != 5 {
		t.Fatalf("expected 5 contributions, got %d", len(resp.Contributions))
	}
	last := resp.Contributions[4]
	if last.Upper != nil {
		t.Errorf("expected null upper bound for top bracket, got %s", last.Upper)
	}
	if last.Label != "157,806 $ +" {
		t.Errorf("unexpected label %q", last.Label)
	}
	if resp.Display.NetTax != "5,517.75 $" || resp.Display.MarginalRate != "30%" {
		t.Errorf("unexpected display %+v", resp.Display)
	}
	if resp.Contributions[1].RateLabel != "11%" {
		t.Errorf("unexpected rate label %q", resp.Contributions[1].RateLabel)
	}
}

func TestHandleCalculateDefaultsToLatestYear(t *testing.T) {
	rr := do(t, newTestHandler(), http.MethodPost, "/api/calculate", `{"grossIncome":1000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp resultPayload
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Year != 2025 {
		t.Errorf("expected latest year 2025, got %d", resp.Year)
	}
}

func TestHandleCalculateErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
		field  string
	}{
		{"Negative income", http.MethodPost, `{"grossIncome":-1,"year":2025}`, http.StatusBadRequest, "gross_income"},
		{"Negative credits", http.MethodPost, `{"grossIncome":1,"credits":-1}`, http.StatusBadRequest, "credits"},
		{"Unsupported year", http.MethodPost, `{"grossIncome":1000,"year":2030}`, http.StatusBadRequest, "year"},
		{"Huge exponent", http.MethodPost, `{"grossIncome":"1e1000000"}`, http.StatusBadRequest, "gross_income"},
		{"Huge deductions", http.MethodPost, `{"grossIncome":1000,"deductions":1e400000}`, http.StatusBadRequest, "deductions"},
		{"Malformed JSON", http.MethodPost, `{"grossIncome":`, http.StatusBadRequest, ""},
		{"Unknown field", http.MethodPost, `{"income":1000}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestHandler(), tt.method, "/api/calculate", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			resp := decodeError(t, rr)
			if resp.Error == "" {
				t.Error("expected error message")
			}
			if resp.Field != tt.field {
				t.Errorf("Field = %q, expected %q", resp.Field, tt.field)
			}
		})
	}

	rr := do(t, newTestHandler(), http.MethodGet, "/api/calculate", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rr.Code)
	}
}

func TestHandleCalculateBodyTooLarge(t *testing.T) {
	engine := tax.NewEngine(brackets.Default(), nil)
	handler := NewHandler(nil, engine, 16, "")

	rr := do(t, handler, http.MethodPost, "/api/calculate", `{"grossIncome":50000,"year":2025}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleCompare(t *testing.T) {
	handler := newTestHandler()

	rr := do(t, handler, http.MethodPost, "/api/compare",
		`{"scenarios":[{"name":"A","grossIncome":25000,"year":2024},{"name":"B","grossIncome":40000,"year":2025}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Scenarios []resultPayload `json:"scenarios"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Scenarios) != 2 || resp.Scenarios[0].Name != "A" || resp.Scenarios[1].Name != "B" {
		t.Fatalf("unexpected scenarios %+v", resp.Scenarios)
	}
	// (25000-9875)*0.10
	if !resp.Scenarios[0].GrossTax.Equal(decimal.RequireFromString("1512.5")) {
		t.Errorf("A GrossTax = %s, expected 1512.5", resp.Scenarios[0].GrossTax)
	}

	for _, body := range []string{
		`{"scenarios":[{"grossIncome":1}]}`,
		`{"scenarios":[{"grossIncome":1},{"grossIncome":2},{"grossIncome":3},{"grossIncome":4}]}`,
	} {
		rr := do(t, handler, http.MethodPost, "/api/compare", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
		if field := decodeError(t, rr).Field; field != "scenarios" {
			t.Errorf("Field = %q, expected scenarios", field)
		}
	}
}

func TestHandleHistory(t *testing.T) {
	handler := newTestHandler()

	rr := do(t, handler, http.MethodPost, "/api/history", `{"grossIncome":50000,"deductions":3000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Years []historyYearPayload `json:"years"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Years) != 4 {
		t.Fatalf("expected all 4 years, got %d", len(resp.Years))
	}
	for i, year := range []int{2022, 2023, 2024, 2025} {
		if resp.Years[i].Year != year {
			t.Errorf("position %d: year %d, expected %d", i, resp.Years[i].Year, year)
		}
		if !resp.Years[i].TaxableIncome.Equal(decimal.NewFromInt(47000)) {
			t.Errorf("%d: TaxableIncome = %s", year, resp.Years[i].TaxableIncome)
		}
	}

	if resp.Years[0].Change != nil {
		t.Errorf("expected no change on the earliest year, got %+v", resp.Years[0].Change)
	}
	// net tax at 47000: 7364.50, 7592.50, 7641, 8117.75
	for i, want := range []string{"228", "48.5", "476.75"} {
		change := resp.Years[i+1].Change
		if change == nil {
			t.Fatalf("%d: missing change", resp.Years[i+1].Year)
		}
		if !change.Difference.Equal(decimal.RequireFromString(want)) {
			t.Errorf("%d: Difference = %s, expected %s", resp.Years[i+1].Year, change.Difference, want)
		}
	}
	if got := resp.Years[1].Change.Display; got != "+228.00 $ (+3.10%)" {
		t.Errorf("Display = %q", got)
	}

	rr = do(t, handler, http.MethodPost, "/api/history", `{"grossIncome":50000,"years":[2024,2030]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleBracketsAndYears(t *testing.T) {
	handler := newTestHandler()

	rr := do(t, handler, http.MethodGet, "/api/brackets?year=2022", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Year     int              `json:"year"`
		Brackets []bracketPayload `json:"brackets"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Year != 2022 || len(resp.Brackets) != 5 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Brackets[0].Label != "0 $ - 8,900 $" {
		t.Errorf("unexpected first label %q", resp.Brackets[0].Label)
	}

	for target, status := range map[string]int{
		"/api/brackets?year=2030": http.StatusBadRequest,
		"/api/brackets?year=abc":  http.StatusBadRequest,
		"/api/brackets":           http.StatusOK,
		"/api/years":              http.StatusOK,
		"/api/version":            http.StatusOK,
	} {
		if rr := do(t, handler, http.MethodGet, target, ""); rr.Code != status {
			t.Errorf("%s: expected status %d, got %d", target, status, rr.Code)
		}
	}

	rr = do(t, handler, http.MethodGet, "/api/years", "")
	var years struct {
		Years  []int `json:"years"`
		Latest int   `json:"latest"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &years)
	if len(years.Years) != 4 || years.Latest != 2025 {
		t.Errorf("unexpected years response %+v", years)
	}
}

func TestHandleConfig(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewReader(data))
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp configResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(resp.Scenarios))
	}
	if len(resp.History) != 4 {
		t.Fatalf("expected 4 history years, got %d", len(resp.History))
	}
	if resp.CSV == "" || resp.HistoryCSV == "" {
		t.Fatal("expected CSV exports in response")
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleConfigErrors(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Invalid YAML", "scenarios: [", http.StatusBadRequest},
		{"Bracket override rejected", "brackets:\n  \"2024\":\n    - {min: 0, rate: 0.1}\n", http.StatusBadRequest},
		{"Bad amount", "scenarios:\n  - name: x\n    active: true\n    grossIncome: lots\n", http.StatusBadRequest},
		{"Unsupported year", "scenarios:\n  - name: x\n    active: true\n    year: 2030\n    grossIncome: 1\n", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, handler, http.MethodPost, "/api/config", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCorrelationID(t *testing.T) {
	handler := newTestHandler()

	rr := do(t, handler, http.MethodGet, "/api/version", "")
	generated := rr.Header().Get(CorrelationIDHeader)
	if len(generated) != 36 {
		t.Fatalf("expected a generated UUID, got %q", generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/years", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get(CorrelationIDHeader); got != "abc-123" {
		t.Errorf("expected caller's correlation ID to be echoed, got %q", got)
	}
}

func TestCorrelationIDFromContext(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "xyz")
	withCorrelationID(zap.NewNop(), inner).ServeHTTP(httptest.NewRecorder(), req)

	if seen != "xyz" {
		t.Errorf("CorrelationIDFromContext() = %q, expected xyz", seen)
	}
	if CorrelationIDFromContext(req.Context()) != "" {
		t.Error("expected empty ID outside the middleware")
	}
}

func TestHandleReport(t *testing.T) {
	handler := newTestHandler()

	rr := do(t, handler, http.MethodPost, "/api/report", `{"name":"Me","grossIncome":"50000","year":2025,"deductions":"10000","credits":"500"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "tax-report-2025.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "%PDF-") || !strings.HasSuffix(body, "%%EOF\n") {
		t.Fatalf("response is not a PDF: %q", body)
	}
	for _, want := range []string{"(Income tax report: Me \\(2025\\))", "(5,517.75 $)"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}

	rr = do(t, handler, http.MethodPost, "/api/report", `{"grossIncome":"1e1000000"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Field != "gross_income" {
		t.Errorf("Field = %q, expected gross_income", resp.Field)
	}

	rr = do(t, handler, http.MethodGet, "/api/report", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rr.Code)
	}
}
