// Package server exposes the tax engine over a small JSON HTTP API.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/internal/config"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/iwvelando/progressive-tax/pkg/format"
	"github.com/iwvelando/progressive-tax/pkg/output"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	engine      *tax.Engine
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the tax API.
func NewHandler(logger *zap.Logger, engine *tax.Engine, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, engine: engine, maxBodySize: maxBodySize, version: trimmedVersion}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/years", h.handleYears)
	mux.HandleFunc("/api/brackets", h.handleBrackets)
	mux.HandleFunc("/api/calculate", h.handleCalculate)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/history", h.handleHistory)
	mux.HandleFunc("/api/config", h.handleConfig)
	mux.HandleFunc("/api/version", h.handleVersion)

	return withCorrelationID(logger, mux)
}

type inputPayload struct {
	Name        string          `json:"name,omitempty"`
	GrossIncome decimal.Decimal `json:"grossIncome"`
	Year        int             `json:"year,omitempty"`
	Deductions  decimal.Decimal `json:"deductions"`
	Credits     decimal.Decimal `json:"credits"`
}

type compareRequest struct {
	Scenarios []inputPayload `json:"scenarios"`
}

type historyRequest struct {
	GrossIncome decimal.Decimal `json:"grossIncome"`
	Deductions  decimal.Decimal `json:"deductions"`
	Credits     decimal.Decimal `json:"credits"`
	Years       []int           `json:"years,omitempty"`
}

type bracketPayload struct {
	Label string           `json:"label"`
	Lower decimal.Decimal  `json:"lower"`
	Upper *decimal.Decimal `json:"upper"`
	Rate  decimal.Decimal  `json:"rate"`
}

type contributionPayload struct {
	Index           int              `json:"index"`
	Label           string           `json:"label"`
	RateLabel       string           `json:"rateLabel"`
	Lower           decimal.Decimal  `json:"lower"`
	Upper           *decimal.Decimal `json:"upper"`
	Rate            decimal.Decimal  `json:"rate"`
	IncomeInBracket decimal.Decimal  `json:"incomeInBracket"`
	TaxInBracket    decimal.Decimal  `json:"taxInBracket"`
	Share           decimal.Decimal  `json:"share"`
}

// displayPayload carries the rounded, human-readable rendering of a result.
type displayPayload struct {
	TaxableIncome string `json:"taxableIncome"`
	GrossTax      string `json:"grossTax"`
	NetTax        string `json:"netTax"`
	NetIncome     string `json:"netIncome"`
	EffectiveRate string `json:"effectiveRate"`
	MarginalRate  string `json:"marginalRate"`
}

type resultPayload struct {
	Name          string                `json:"name,omitempty"`
	Year          int                   `json:"year"`
	GrossIncome   decimal.Decimal       `json:"grossIncome"`
	Deductions    decimal.Decimal       `json:"deductions"`
	Credits       decimal.Decimal       `json:"credits"`
	TaxableIncome decimal.Decimal       `json:"taxableIncome"`
	GrossTax      decimal.Decimal       `json:"grossTax"`
	NetTax        decimal.Decimal       `json:"netTax"`
	NetIncome     decimal.Decimal       `json:"netIncome"`
	EffectiveRate decimal.Decimal       `json:"effectiveRate"`
	MarginalRate  decimal.Decimal       `json:"marginalRate"`
	Contributions []contributionPayload `json:"contributions"`
	Display       displayPayload        `json:"display"`
}

// changePayload is the net tax change against the previous year of a
// history request. Rate is a fraction of the previous net tax.
type changePayload struct {
	Difference decimal.Decimal `json:"difference"`
	Rate       decimal.Decimal `json:"rate"`
	Display    string          `json:"display"`
}

// historyYearPayload is one year of a history response. Change is null on
// the earliest year.
type historyYearPayload struct {
	resultPayload
	Change *changePayload `json:"change"`
}

type configResponse struct {
	Scenarios  []resultPayload      `json:"scenarios"`
	History    []historyYearPayload `json:"history,omitempty"`
	CSV        string               `json:"csv"`
	HistoryCSV string               `json:"historyCsv,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
	Duration   string               `json:"duration"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	registry := h.engine.Registry()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"years":  registry.Years(),
		"latest": registry.Latest(),
	})
}

func (h *handler) handleBrackets(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBrackets"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	registry := h.engine.Registry()
	year := registry.Latest()
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondErrorWithOp(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid year %q", raw), Field: "year"}, op)
			return
		}
		year = parsed
	}

	seq, err := registry.Get(year)
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}

	payload := make([]bracketPayload, len(seq))
	for i, b := range seq {
		payload[i] = bracketPayload{
			Label: format.BracketRange(b.Lower, b.Upper),
			Lower: b.Lower,
			Upper: b.Upper,
			Rate:  b.Rate,
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":     year,
		"brackets": payload,
	})
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload inputPayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	result, err := h.engine.Calculate(h.toInput(payload))
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}

	h.logger.Info("tax computed",
		zap.String("op", op),
		zap.Int("year", result.Input.Year),
	)
	h.writeJSON(w, http.StatusOK, toResultPayload(payload.Name, result))
}

// handleReport computes one input like handleCalculate and returns the
// result as a PDF report.
func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload inputPayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	result, err := h.engine.Calculate(h.toInput(payload))
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = "Income"
	}
	var buf bytes.Buffer
	if err := output.WritePDF(&buf, []scenario.Outcome{{Name: name, Result: result}}, time.Now()); err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}

	h.logger.Info("report generated",
		zap.String("op", op),
		zap.Int("year", result.Input.Year),
		zap.Int("bytes", buf.Len()),
	)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tax-report-%d.pdf"`, result.Input.Year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload compareRequest
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	inputs := make([]tax.Input, len(payload.Scenarios))
	for i, s := range payload.Scenarios {
		inputs[i] = h.toInput(s)
	}

	results, err := h.engine.CompareScenarios(inputs)
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}

	response := make([]resultPayload, len(results))
	for i, result := range results {
		response[i] = toResultPayload(payload.Scenarios[i].Name, result)
	}

	h.logger.Info("scenarios compared",
		zap.String("op", op),
		zap.Int("scenarios", len(response)),
	)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": response})
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistory"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload historyRequest
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	years := payload.Years
	if len(years) == 0 {
		years = h.engine.Registry().Years()
	}

	results, err := h.engine.CompareYears(payload.GrossIncome, payload.Deductions, payload.Credits, years)
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"years": historyPayload(results)})
}

// handleConfig runs a full YAML configuration, as the CLI would, and returns
// scenario and history results together with their CSV exports.
func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfig"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r.Body); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				errorResponse{Error: fmt.Sprintf("body exceeds limit of %d bytes", h.maxBodySize)}, op)
			return
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to read configuration: %v", err)}, op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()}, op)
		return
	}
	if len(cfg.Brackets) > 0 {
		h.respondErrorWithOp(w, r, http.StatusBadRequest,
			errorResponse{Error: "bracket tables are fixed at startup and cannot be supplied per request", Field: "brackets"}, op)
		return
	}

	warnings := cfg.ValidateConfiguration(h.engine.Registry())

	outcomes, err := scenario.Run(h.logger, h.engine, *cfg)
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusBadRequest, op)
		return
	}
	history, err := scenario.RunHistory(h.logger, h.engine, *cfg)
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusBadRequest, op)
		return
	}

	csvData, err := output.CsvString(outcomes)
	if err != nil {
		h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
		return
	}
	response := configResponse{
		Scenarios: make([]resultPayload, 0, len(outcomes)),
		CSV:       csvData,
		Warnings:  warnings,
	}
	for _, outcome := range outcomes {
		response.Scenarios = append(response.Scenarios, toResultPayload(outcome.Name, outcome.Result))
	}
	if history != nil {
		response.History = historyPayload(history.Results)
		response.HistoryCSV, err = output.HistoryCsvString(history)
		if err != nil {
			h.respondEngineError(w, r, err, http.StatusInternalServerError, op)
			return
		}
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("configuration computed",
		zap.String("op", op),
		zap.Int("scenarios", len(response.Scenarios)),
		zap.Int("historyYears", len(response.History)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) toInput(p inputPayload) tax.Input {
	year := p.Year
	if year == 0 {
		year = h.engine.Registry().Latest()
	}
	return tax.Input{
		GrossIncome: p.GrossIncome,
		Year:        year,
		Deductions:  p.Deductions,
		Credits:     p.Credits,
	}
}

func toResultPayload(name string, result *tax.Result) resultPayload {
	contributions := make([]contributionPayload, len(result.Contributions))
	for i, c := range result.Contributions {
		contributions[i] = contributionPayload{
			Index:           c.Index,
			Label:           format.BracketRange(c.Lower, c.Upper),
			RateLabel:       format.RateLabel(c.Rate),
			Lower:           c.Lower,
			Upper:           c.Upper,
			Rate:            c.Rate,
			IncomeInBracket: c.IncomeInBracket,
			TaxInBracket:    c.TaxInBracket,
			Share:           result.TaxShare(i),
		}
	}

	return resultPayload{
		Name:          name,
		Year:          result.Input.Year,
		GrossIncome:   result.Input.GrossIncome,
		Deductions:    result.Input.Deductions,
		Credits:       result.Input.Credits,
		TaxableIncome: result.TaxableIncome,
		GrossTax:      result.GrossTax,
		NetTax:        result.NetTax,
		NetIncome:     result.NetIncome,
		EffectiveRate: result.EffectiveRate,
		MarginalRate:  result.MarginalRate,
		Contributions: contributions,
		Display: displayPayload{
			TaxableIncome: format.Currency(result.TaxableIncome),
			GrossTax:      format.Currency(result.GrossTax),
			NetTax:        format.Currency(result.NetTax),
			NetIncome:     format.Currency(result.NetIncome),
			EffectiveRate: format.Percent(result.EffectiveRate),
			MarginalRate:  format.RateLabel(result.MarginalRate),
		},
	}
}

func historyPayload(results map[int]*tax.Result) []historyYearPayload {
	changes := tax.YearOverYear(results)
	payload := make([]historyYearPayload, 0, len(changes))
	for _, c := range changes {
		entry := historyYearPayload{resultPayload: toResultPayload("", results[c.Year])}
		if c.HasPrevious {
			entry.Change = &changePayload{
				Difference: c.Difference,
				Rate:       c.Rate,
				Display:    signed(format.Currency(c.Difference)) + " (" + signed(format.Percent(c.Rate)) + ")",
			}
		}
		payload = append(payload, entry)
	}
	return payload
}

func signed(value string) string {
	if strings.HasPrefix(value, "-") {
		return value
	}
	return "+" + value
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				errorResponse{Error: fmt.Sprintf("body exceeds limit of %d bytes", h.maxBodySize)}, op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to decode request: %v", err)}, op)
		return false
	}
	return true
}

// respondEngineError maps engine errors onto HTTP statuses. Invalid input and
// unsupported years are 400s; anything else gets fallback.
func (h *handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error, fallback int, op string) {
	var inputErr *tax.InvalidInputError
	if errors.As(err, &inputErr) {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: inputErr.Field}, op)
		return
	}
	var yearErr *brackets.UnsupportedYearError
	if errors.As(err, &yearErr) {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "year"}, op)
		return
	}
	h.respondErrorWithOp(w, r, fallback, errorResponse{Error: err.Error()}, op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, resp errorResponse, op string) {
	h.logger.Error("tax request failed",
		zap.String("op", op),
		zap.String("correlation_id", CorrelationIDFromContext(r.Context())),
		zap.Int("status", status),
		zap.String("error", resp.Error),
		zap.String("field", resp.Field),
	)

	h.writeJSON(w, status, resp)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
