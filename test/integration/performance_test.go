package integration

import (
	"testing"
	"time"

	"github.com/iwvelando/progressive-tax/internal/brackets"
	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}

	engine := tax.NewEngine(brackets.Default(), zap.NewNop())
	years := engine.Registry().Years()

	start := time.Now()
	const iterations = 20000
	for i := 0; i < iterations; i++ {
		in := tax.Input{
			GrossIncome: decimal.NewFromInt(int64(i * 13)),
			Year:        years[i%len(years)],
		}
		if _, err := engine.Calculate(in); err != nil {
			t.Fatalf("Calculate() error on iteration %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Calculations: %d", iterations)
	t.Logf("  Total time: %v", elapsed)

	if elapsed > 10*time.Second {
		t.Errorf("Total processing time %v exceeds 10 second threshold", elapsed)
	}
}

// TestMemoryUsage loads and runs the test configuration repeatedly.
func TestMemoryUsage(t *testing.T) {
	for i := 0; i < 10; i++ {
		conf, engine := loadEngine(t, testConfig)
		if _, err := scenario.Run(zap.NewNop(), engine, *conf); err != nil {
			t.Fatalf("Run failed on iteration %d: %v", i, err)
		}
		if _, err := scenario.RunHistory(zap.NewNop(), engine, *conf); err != nil {
			t.Fatalf("RunHistory failed on iteration %d: %v", i, err)
		}
	}

	t.Log("Successfully completed 10 iterations")
}

func BenchmarkCalculate(b *testing.B) {
	engine := tax.NewEngine(brackets.Default(), zap.NewNop())
	in := tax.Input{GrossIncome: decimal.NewFromInt(85000), Year: 2025, Deductions: decimal.NewFromInt(5000)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Calculate(in); err != nil {
			b.Fatal(err)
		}
	}
}
