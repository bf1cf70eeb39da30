// Package scenario drives the tax engine from a loaded configuration: the
// active scenarios of comparison mode and the multi-year history request.
package scenario

import (
	"fmt"

	"github.com/iwvelando/progressive-tax/internal/config"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"go.uber.org/zap"
)

// Outcome pairs a scenario name with its calculation.
type Outcome struct {
	Name   string
	Result *tax.Result
}

// History is one income evaluated under several years.
type History struct {
	Years   []int
	Results map[int]*tax.Result
}

// Changes returns the net tax change of each year against the year before,
// aligned with Years.
func (h *History) Changes() []tax.YearChange {
	if h == nil {
		return nil
	}
	return tax.YearOverYear(h.Results)
}

// Run computes every active scenario. A single active scenario is a plain
// calculation; two or more go through comparison mode, which enforces its
// scenario count.
func Run(logger *zap.Logger, engine *tax.Engine, conf config.Configuration) ([]Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var names []string
	var inputs []tax.Input
	defaultYear := engine.Registry().Latest()
	for _, s := range conf.Scenarios {
		if !s.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", s.Name),
				zap.String("op", "scenario.Run"),
			)
			continue
		}
		in, err := s.Input(defaultYear)
		if err != nil {
			return nil, err
		}
		names = append(names, s.Name)
		inputs = append(inputs, in)
	}

	var results []*tax.Result
	switch len(inputs) {
	case 0:
		return nil, nil
	case 1:
		result, err := engine.Calculate(inputs[0])
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", names[0], err)
		}
		results = []*tax.Result{result}
	default:
		var err error
		results, err = engine.CompareScenarios(inputs)
		if err != nil {
			return nil, err
		}
	}

	outcomes := make([]Outcome, len(results))
	for i, result := range results {
		outcomes[i] = Outcome{Name: names[i], Result: result}
		logger.Info("scenario computed",
			zap.String("op", "scenario.Run"),
			zap.String("scenario", names[i]),
			zap.Int("year", result.Input.Year),
			zap.String("netTax", result.NetTax.String()),
		)
	}
	return outcomes, nil
}

// RunHistory evaluates the configured history request. It returns nil when
// no history was configured.
func RunHistory(logger *zap.Logger, engine *tax.Engine, conf config.Configuration) (*History, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !conf.History.Enabled() {
		logger.Debug("no history request configured",
			zap.String("op", "scenario.RunHistory"),
		)
		return nil, nil
	}

	gross, deductions, credits, err := conf.History.Amounts()
	if err != nil {
		return nil, err
	}
	years := conf.History.YearsOrAll(engine.Registry())

	results, err := engine.CompareYears(gross, deductions, credits, years)
	if err != nil {
		return nil, err
	}

	logger.Info("history computed",
		zap.String("op", "scenario.RunHistory"),
		zap.Ints("years", tax.SortedYears(results)),
	)
	return &History{Years: tax.SortedYears(results), Results: results}, nil
}

// Find returns the outcome with the given name, or nil.
func Find(outcomes []Outcome, name string) *Outcome {
	for i := range outcomes {
		if outcomes[i].Name == name {
			return &outcomes[i]
		}
	}
	return nil
}
