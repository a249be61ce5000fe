package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vsinha/lotsizing/pkg/application/dto"
	"github.com/vsinha/lotsizing/pkg/domain/entities"
	"github.com/vsinha/lotsizing/pkg/domain/milp"
	"github.com/vsinha/lotsizing/pkg/infrastructure/events"
)

// NoSolutionMessage is the whole report of a run that found no optimum
const NoSolutionMessage = "No optimal solution found."

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Writer receives stdout-bound output; nil means os.Stdout
	Writer io.Writer
	Events []events.Event
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate creates output in the specified format
func Generate(result *dto.PlanResult, config Config) error {
	if result == nil || result.Plan == nil || result.Instance == nil {
		return fmt.Errorf("no plan to report")
	}

	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "svg":
		return generateSVGOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput prints the cost breakdown, the per-period decisions and
// the per-product totals
func generateTextOutput(result *dto.PlanResult, config Config) error {
	w := config.writer()
	money := message.NewPrinter(language.English)
	plan := result.Plan
	inst := result.Instance

	if !plan.IsOptimal() {
		fmt.Fprintln(w, NoSolutionMessage)
	} else {
		costs := plan.Costs
		money.Fprintf(w, "\n Total Cost: %.2f\n", costs.Total.InexactFloat64())
		money.Fprintf(w, "  • Ordering Cost: %.2f\n", costs.Ordering.InexactFloat64())
		money.Fprintf(w, "  • Purchasing Cost: %.2f\n", costs.Purchasing.InexactFloat64())
		money.Fprintf(w, "  • Holding Cost: %.2f\n\n", costs.Holding.InexactFloat64())

		for _, pp := range plan.Periods {
			fmt.Fprintf(w, "--- %s ---\n", pp.Period.Label())
			for _, s := range pp.ActiveSuppliers {
				fmt.Fprintf(w, "%s placed an order.\n", s.Label())
			}
			for i := range inst.Products {
				product := entities.ProductID(i)
				for j := range inst.Suppliers {
					supplier := entities.SupplierID(j)
					if qty := entities.NormalizeZero(pp.OrderedFrom(product, supplier)); qty > 0 {
						fmt.Fprintf(w, "%s ordered %.0f units from %s\n", product.Label(), qty, supplier.Label())
					}
				}
				fmt.Fprintf(w, "End Inventory for %s: %.2f\n", product.Label(), endingInventory(pp, i))
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w, "\n--- Summary of total units per product/supplier ---")
		for i, total := range plan.TotalOrdered {
			fmt.Fprintf(w, "Total units ordered for %s: %.0f\n",
				entities.ProductID(i).Label(), entities.RoundTo(total, 0))
		}
	}

	if result.Relaxation != nil {
		writeRelaxation(w, money, result.Relaxation)
	}
	if result.Sensitivity != nil {
		writeSensitivity(w, money, result.Sensitivity)
	}
	if config.Verbose {
		writeModel(w, result)
		writeVerification(w, result)
		writeTimeline(w, config.Events)
	}
	return nil
}

func endingInventory(pp entities.PeriodPlan, product int) float64 {
	if product >= len(pp.EndingInventory) {
		return 0
	}
	return entities.RoundTo(pp.EndingInventory[product], 2)
}

func writeRelaxation(w io.Writer, money *message.Printer, r *dto.RelaxationBound) {
	fmt.Fprintln(w, "\n--- LP relaxation ---")
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	if r.Status != milp.StatusOptimal.String() {
		return
	}
	money.Fprintf(w, "Lower bound: %.2f\n", r.Bound)
	fmt.Fprintf(w, "Integrality gap: %.2f%%\n", r.Gap*100)
}

func writeSensitivity(w io.Writer, money *message.Printer, r *dto.SensitivityReport) {
	fmt.Fprintln(w, "\n--- Cost sensitivity ---")
	money.Fprintf(w, "Baseline: %.2f\n", r.Baseline)
	for _, p := range r.Points {
		if p.Status != entities.PlanOptimal {
			fmt.Fprintf(w, "%-10s x%.2f  %s\n", p.Name, p.Factor, p.Status)
			continue
		}
		money.Fprintf(w, "%-10s x%.2f  %.2f\n", p.Name, p.Factor, p.Total.InexactFloat64())
	}
}

func writeModel(w io.Writer, result *dto.PlanResult) {
	fmt.Fprintln(w, "\n--- Model ---")
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	backend := result.Backend
	if result.RequestedBackend != "" && result.RequestedBackend != result.Backend {
		backend = fmt.Sprintf("%s (requested %s)", result.Backend, result.RequestedBackend)
	}
	fmt.Fprintf(w, "Backend: %s\n", backend)
	fmt.Fprintf(w, "Status: %s\n", result.Plan.Status)
	fmt.Fprintf(w, "Variables: %d (%d integer)\n", result.Model.Variables, result.Model.Integer)
	fmt.Fprintf(w, "Constraints: %d\n", result.Model.Constraints)
	for _, fc := range result.Model.Families {
		fmt.Fprintf(w, "  %-18s %d\n", fc.Family+":", fc.Count)
	}
	fmt.Fprintf(w, "Solve time: %v\n", result.SolveTime)
}

func writeVerification(w io.Writer, result *dto.PlanResult) {
	v := result.Verification
	if v == nil {
		return
	}
	fmt.Fprintln(w, "\n--- Verification ---")
	if v.Valid {
		fmt.Fprintf(w, "Plan verified: %d checks passed\n", v.Checks)
		return
	}
	fmt.Fprintf(w, "Plan verification failed: %d of %d checks\n", len(v.Violations), v.Checks)
	for _, violation := range v.Violations {
		fmt.Fprintf(w, "  [%s] %s\n", violation.Rule, violation.Message)
	}
}

func writeTimeline(w io.Writer, evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	fmt.Fprintln(w, "\n--- Run events ---")
	for _, e := range evts {
		fmt.Fprintf(w, "%s  %-22s %s\n", e.Timestamp().Format("15:04:05.000"), e.Type(), e.StreamID())
	}
}

// jsonReport is the document written by the json format
type jsonReport struct {
	Result *dto.PlanResult `json:"result"`
	Events []events.Event  `json:"events,omitempty"`
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PlanResult, config Config) error {
	jsonData, err := json.MarshalIndent(jsonReport{Result: result, Events: config.Events}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.writer(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "plan.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes orders, inventory and costs tables into the output directory
func generateCSVOutput(result *dto.PlanResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ordersFile := filepath.Join(config.OutputDir, "orders.csv")
	if err := writeCSV(ordersFile, ordersRows(result.Plan)); err != nil {
		return fmt.Errorf("failed to write orders CSV: %w", err)
	}

	inventoryFile := filepath.Join(config.OutputDir, "inventory.csv")
	if err := writeCSV(inventoryFile, inventoryRows(result)); err != nil {
		return fmt.Errorf("failed to write inventory CSV: %w", err)
	}

	costsFile := filepath.Join(config.OutputDir, "costs.csv")
	if err := writeCSV(costsFile, costRows(result.Plan)); err != nil {
		return fmt.Errorf("failed to write costs CSV: %w", err)
	}

	if config.Verbose {
		w := config.writer()
		fmt.Fprintf(w, "CSV results saved to:\n")
		fmt.Fprintf(w, "  Orders: %s\n", ordersFile)
		fmt.Fprintf(w, "  Inventory: %s\n", inventoryFile)
		fmt.Fprintf(w, "  Costs: %s\n", costsFile)
	}
	return nil
}

func writeCSV(filename string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(entities.NormalizeZero(v), 'f', -1, 64)
}

func ordersRows(plan *entities.Plan) [][]string {
	rows := [][]string{{"period", "product", "supplier", "quantity"}}
	for _, pp := range plan.Periods {
		for _, o := range pp.Orders {
			rows = append(rows, []string{
				strconv.Itoa(int(o.Period) + 1),
				strconv.Itoa(int(o.Product) + 1),
				strconv.Itoa(int(o.Supplier) + 1),
				formatFloat(entities.RoundTo(o.Quantity, 6)),
			})
		}
	}
	return rows
}

func inventoryRows(result *dto.PlanResult) [][]string {
	rows := [][]string{{"period", "product", "ending_inventory", "storage_used", "capacity"}}
	for _, pp := range result.Plan.Periods {
		capacity := 0.0
		if int(pp.Period) < len(result.Instance.Capacity) {
			capacity = result.Instance.Capacity[pp.Period]
		}
		for i := range pp.EndingInventory {
			rows = append(rows, []string{
				strconv.Itoa(int(pp.Period) + 1),
				strconv.Itoa(i + 1),
				formatFloat(endingInventory(pp, i)),
				formatFloat(entities.RoundTo(pp.StorageUsed, 2)),
				formatFloat(capacity),
			})
		}
	}
	return rows
}

func costRows(plan *entities.Plan) [][]string {
	rows := [][]string{{"component", "amount"}}
	if !plan.IsOptimal() {
		return rows
	}
	return append(rows,
		[]string{entities.OrderingCost.String(), plan.Costs.Ordering.StringFixed(2)},
		[]string{entities.PurchasingCost.String(), plan.Costs.Purchasing.StringFixed(2)},
		[]string{entities.HoldingCost.String(), plan.Costs.Holding.StringFixed(2)},
		[]string{"total", plan.Costs.Total.StringFixed(2)},
	)
}

// generateSVGOutput renders the plan chart to the output directory or stdout
func generateSVGOutput(result *dto.PlanResult, config Config) error {
	chart := NewPlanChart(result)
	svg := chart.GenerateSVG(result)

	if config.OutputDir == "" {
		fmt.Fprintln(config.writer(), svg)
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "plan.svg")
	if err := os.WriteFile(filename, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write SVG file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "SVG chart saved to: %s\n", filename)
	}
	return nil
}
