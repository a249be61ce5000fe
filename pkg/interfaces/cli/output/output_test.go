package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotsizing/pkg/application/dto"
	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/services"
	"github.com/vsinha/lotsizing/pkg/infrastructure/events"
)

func reportFixture(t *testing.T) *dto.PlanResult {
	t.Helper()
	inst, err := entities.NewInstance(
		"fixture",
		[]entities.Product{
			{ID: 0, HoldingCost: 1, StoragePerUnit: 1},
			{ID: 1, InitialInventory: 5, HoldingCost: 0.5, StoragePerUnit: 2},
		},
		[]entities.Supplier{
			{ID: 0, OrderingCost: 1000},
			{ID: 1, OrderingCost: 500},
		},
		[][]float64{{10, 20}, {4.6, 10.4}},
		[][]float64{{50, 60}, {70, 80}},
		[]float64{100, 100},
		0,
	)
	require.NoError(t, err)

	plan := &entities.Plan{
		Status:    entities.PlanOptimal,
		Costs:     entities.NewCostBreakdown(1500, 2345.5, 10.25),
		Objective: 3855.75,
		Periods: []entities.PeriodPlan{
			{
				Period:          0,
				ActiveSuppliers: []entities.SupplierID{0, 1},
				Orders: []entities.OrderLine{
					{Product: 0, Supplier: 0, Period: 0, Quantity: 30},
					{Product: 1, Supplier: 1, Period: 0, Quantity: 10},
				},
				EndingInventory: []float64{20, 10.4},
				StorageUsed:     40.8,
			},
			{
				Period:          1,
				EndingInventory: []float64{0, 0.0004},
			},
		},
		TotalOrdered: []float64{30, 10},
	}

	return &dto.PlanResult{
		Instance: inst,
		Plan:     plan,
		Backend:  "highs",
		Model: dto.ModelStats{
			Variables:   16,
			Integer:     4,
			Constraints: 30,
			Families:    []dto.FamilyCount{{Family: "balance", Count: 4}},
		},
		Verification: &services.VerificationResult{Valid: true, Checks: 12},
	}
}

func TestGenerate_TextReport(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(reportFixture(t), Config{Format: "text", Writer: &buf})
	require.NoError(t, err)

	expected := "\n Total Cost: 3,855.75\n" +
		"  • Ordering Cost: 1,500.00\n" +
		"  • Purchasing Cost: 2,345.50\n" +
		"  • Holding Cost: 10.25\n\n" +
		"--- Period 1 ---\n" +
		"Supplier 1 placed an order.\n" +
		"Supplier 2 placed an order.\n" +
		"Product 1 ordered 30 units from Supplier 1\n" +
		"End Inventory for Product 1: 20.00\n" +
		"Product 2 ordered 10 units from Supplier 2\n" +
		"End Inventory for Product 2: 10.40\n" +
		"\n" +
		"--- Period 2 ---\n" +
		"End Inventory for Product 1: 0.00\n" +
		"End Inventory for Product 2: 0.00\n" +
		"\n" +
		"\n--- Summary of total units per product/supplier ---\n" +
		"Total units ordered for Product 1: 30\n" +
		"Total units ordered for Product 2: 10\n"
	assert.Equal(t, expected, buf.String())
}

func TestGenerate_NoOptimalSolution(t *testing.T) {
	result := reportFixture(t)
	result.Plan = &entities.Plan{Status: entities.PlanInfeasible}
	result.Verification = nil

	var buf bytes.Buffer
	require.NoError(t, Generate(result, Config{Format: "text", Writer: &buf}))

	assert.Equal(t, NoSolutionMessage+"\n", buf.String())
	assert.NotContains(t, buf.String(), "Summary")
}

func TestGenerate_TextExtras(t *testing.T) {
	result := reportFixture(t)
	result.RequestedBackend = "scip"
	result.Relaxation = &dto.RelaxationBound{Status: "Optimal", Bound: 3000, Gap: 0.2219}
	result.Sensitivity = &dto.SensitivityReport{
		Baseline: 3855.75,
		Points: []dto.SensitivityPoint{
			{Component: entities.HoldingCost, Name: "holding", Factor: 1.1, Status: entities.PlanOptimal,
				Objective: 3856.78, Total: decimal.RequireFromString("3856.78")},
			{Component: entities.HoldingCost, Name: "holding", Factor: 50, Status: entities.PlanInfeasible},
		},
	}
	evts := []events.Event{
		events.NewInstanceLoadedEvent(events.InstanceLoaded{Name: "fixture", Products: 2, Suppliers: 2, Periods: 2}),
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(result, Config{Format: "text", Verbose: true, Writer: &buf, Events: evts}))
	out := buf.String()

	assert.Contains(t, out, "Lower bound: 3,000.00\n")
	assert.Contains(t, out, "Integrality gap: 22.19%\n")
	assert.Contains(t, out, "Baseline: 3,855.75\n")
	assert.Contains(t, out, "holding    x1.10  3,856.78\n")
	assert.Contains(t, out, "holding    x50.00  Infeasible\n")
	assert.Contains(t, out, "Backend: highs (requested scip)\n")
	assert.Contains(t, out, "Variables: 16 (4 integer)\n")
	assert.Contains(t, out, "Plan verified: 12 checks passed\n")
	assert.Contains(t, out, events.InstanceLoadedEvent)

	// Extras come after the plan itself
	assert.Less(t, strings.Index(out, "Summary"), strings.Index(out, "LP relaxation"))
}

func TestGenerate_TextWithoutVerboseOmitsModel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(reportFixture(t), Config{Format: "text", Writer: &buf}))
	assert.NotContains(t, buf.String(), "--- Model ---")
	assert.NotContains(t, buf.String(), "--- Verification ---")
}

func TestGenerate_VerificationFailures(t *testing.T) {
	result := reportFixture(t)
	result.Verification = &services.VerificationResult{
		Checks:     10,
		Violations: []services.Violation{{Rule: services.RuleCapacity, Message: "period 1 over capacity"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(result, Config{Format: "text", Verbose: true, Writer: &buf}))
	assert.Contains(t, buf.String(), "Plan verification failed: 1 of 10 checks\n")
	assert.Contains(t, buf.String(), "  [capacity] period 1 over capacity\n")
}

func TestGenerate_JSON(t *testing.T) {
	evts := []events.Event{
		events.NewInstanceLoadedEvent(events.InstanceLoaded{Name: "fixture"}),
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(reportFixture(t), Config{Format: "json", Writer: &buf, Events: evts}))

	var doc struct {
		Result struct {
			Backend string `json:"backend"`
			Plan    struct {
				Status string `json:"status"`
				Costs  struct {
					Total string `json:"total"`
				} `json:"costs"`
			} `json:"plan"`
		} `json:"result"`
		Events []struct {
			Type   string `json:"type"`
			Stream string `json:"stream"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "highs", doc.Result.Backend)
	assert.Equal(t, "Optimal", doc.Result.Plan.Status)
	assert.Equal(t, "3855.75", doc.Result.Plan.Costs.Total)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, events.InstanceLoadedEvent, doc.Events[0].Type)
	assert.Equal(t, "fixture", doc.Events[0].Stream)
}

func TestGenerate_JSONToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Generate(reportFixture(t), Config{Format: "json", OutputDir: dir}))

	data, err := os.ReadFile(filepath.Join(dir, "plan.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestGenerate_CSV(t *testing.T) {
	err := Generate(reportFixture(t), Config{Format: "csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory required")

	dir := t.TempDir()
	require.NoError(t, Generate(reportFixture(t), Config{Format: "csv", OutputDir: dir}))

	orders, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	require.NoError(t, err)
	assert.Equal(t, "period,product,supplier,quantity\n1,1,1,30\n1,2,2,10\n", string(orders))

	inventory, err := os.ReadFile(filepath.Join(dir, "inventory.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"period,product,ending_inventory,storage_used,capacity\n"+
			"1,1,20,40.8,100\n1,2,10.4,40.8,100\n"+
			"2,1,0,0,100\n2,2,0,0,100\n",
		string(inventory))

	costs, err := os.ReadFile(filepath.Join(dir, "costs.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"component,amount\nordering,1500.00\npurchasing,2345.50\nholding,10.25\ntotal,3855.75\n",
		string(costs))
}

func TestGenerate_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(reportFixture(t), Config{Format: "svg", Writer: &buf}))
	svg := buf.String()

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "Ordering Plan - fixture")
	assert.Contains(t, svg, "Product 1, Supplier 1, Period 1: 30 units")
	assert.Contains(t, svg, "Product 2, Supplier 2, Period 1: 10 units")
	assert.Contains(t, svg, "40.80 / 100")
	assert.Equal(t, 2, strings.Count(svg, `class="order-bar"`))

	result := reportFixture(t)
	result.Plan = &entities.Plan{Status: entities.PlanTimeLimit}
	buf.Reset()
	require.NoError(t, Generate(result, Config{Format: "svg", Writer: &buf}))
	assert.Contains(t, buf.String(), "No Optimal Plan Found")
}

func TestPlanChart_BarWidthsScaleWithQuantity(t *testing.T) {
	result := reportFixture(t)
	chart := NewPlanChart(result)

	assert.Equal(t, 30.0, chart.MaxOrdered)
	assert.Equal(t, chart.MarginLeft+2*chart.ColumnWidth+chart.MarginRight, chart.Width)

	bars := chart.createBars(result, 0)
	require.Len(t, bars, 1)
	assert.Equal(t, chart.ColumnWidth-10, bars[0].Width)

	bars = chart.createBars(result, 1)
	require.Len(t, bars, 1)
	assert.Equal(t, (chart.ColumnWidth-10)/3, bars[0].Width)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(reportFixture(t), Config{Format: "html"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")

	assert.Error(t, Generate(nil, Config{Format: "text"}))
}
