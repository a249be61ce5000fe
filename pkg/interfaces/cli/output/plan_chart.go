package output

import (
	"fmt"
	"html"
	"strings"

	"github.com/vsinha/lotsizing/pkg/application/dto"
	"github.com/vsinha/lotsizing/pkg/domain/entities"
)

// PlanChart lays out a plan as a grid: one column per period, one row per
// product with the quantities bought from each supplier, and a storage row
// comparing space used with capacity
type PlanChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	ColumnWidth  int
	// MaxOrdered scales bar widths: a full column is the largest quantity
	// ordered for one product in one period
	MaxOrdered float64
}

// ChartBar is a single order drawn in a product row
type ChartBar struct {
	Product  entities.ProductID
	Supplier entities.SupplierID
	Period   entities.Period
	Quantity float64
	X        int
	Width    int
	Color    string
}

// NewPlanChart sizes a chart for the plan in result
func NewPlanChart(result *dto.PlanResult) *PlanChart {
	chart := &PlanChart{
		Width:        800,
		Height:       200,
		MarginLeft:   150,
		MarginTop:    60,
		MarginRight:  50,
		MarginBottom: 80,
		RowHeight:    30,
		ColumnWidth:  200,
	}
	if !result.Plan.IsOptimal() {
		return chart
	}

	for _, pp := range result.Plan.Periods {
		for i := range result.Instance.Products {
			if q := pp.Ordered(entities.ProductID(i)); q > chart.MaxOrdered {
				chart.MaxOrdered = q
			}
		}
	}

	rows := result.Instance.NumProducts() + 1
	chart.Width = chart.MarginLeft + result.Instance.NumPeriods()*chart.ColumnWidth + chart.MarginRight
	chart.Height = chart.MarginTop + rows*chart.RowHeight + chart.MarginBottom
	return chart
}

// GenerateSVG creates an SVG representation of the plan
func (pc *PlanChart) GenerateSVG(result *dto.PlanResult) string {
	if !result.Plan.IsOptimal() {
		return pc.generateEmptyChart()
	}

	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, pc.Width, pc.Height))
	svg.WriteString(`<defs>`)
	svg.WriteString(`<style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.period-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.order-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.order-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(`</defs>`)

	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, pc.Width, pc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="30" class="title" text-anchor="middle">Ordering Plan - %s</text>`,
		pc.Width/2, html.EscapeString(result.Instance.Name)))

	pc.drawPeriodAxis(&svg, result.Instance.NumPeriods())
	pc.drawGrid(&svg, result.Instance.NumPeriods(), result.Instance.NumProducts()+1)

	for i := range result.Instance.Products {
		product := entities.ProductID(i)
		y := pc.MarginTop + i*pc.RowHeight
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
			pc.MarginLeft-15, y+pc.RowHeight/2+4, product.Label()))

		for _, bar := range pc.createBars(result, product) {
			pc.drawBar(&svg, bar, y)
		}
	}
	pc.drawStorageRow(&svg, result)
	pc.drawLegend(&svg, result.Instance.NumSuppliers())

	svg.WriteString(`</svg>`)
	return svg.String()
}

// createBars places the orders of one product side by side within each period column
func (pc *PlanChart) createBars(result *dto.PlanResult, product entities.ProductID) []ChartBar {
	var bars []ChartBar
	usable := pc.ColumnWidth - 10

	for _, pp := range result.Plan.Periods {
		x := pc.columnX(int(pp.Period)) + 5
		for j := range result.Instance.Suppliers {
			supplier := entities.SupplierID(j)
			qty := entities.NormalizeZero(pp.OrderedFrom(product, supplier))
			if qty <= 0 {
				continue
			}

			width := int(qty / pc.MaxOrdered * float64(usable))
			if width < 2 {
				width = 2 // Minimum width for visibility
			}
			bars = append(bars, ChartBar{
				Product:  product,
				Supplier: supplier,
				Period:   pp.Period,
				Quantity: qty,
				X:        x,
				Width:    width,
				Color:    supplierColor(supplier),
			})
			x += width
		}
	}
	return bars
}

func (pc *PlanChart) columnX(period int) int {
	return pc.MarginLeft + period*pc.ColumnWidth
}

func (pc *PlanChart) drawPeriodAxis(svg *strings.Builder, periods int) {
	axisY := pc.Height - pc.MarginBottom
	for t := 0; t < periods; t++ {
		x := pc.columnX(t) + pc.ColumnWidth/2
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="period-label" text-anchor="middle">%s</text>`,
			x, axisY+15, entities.Period(t).Label()))
	}
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		pc.MarginLeft, axisY, pc.Width-pc.MarginRight, axisY))
}

func (pc *PlanChart) drawGrid(svg *strings.Builder, periods, rows int) {
	gridBottom := pc.MarginTop + rows*pc.RowHeight
	for t := 0; t <= periods; t++ {
		x := pc.columnX(t)
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			x, pc.MarginTop, x, gridBottom))
	}
	for r := 1; r <= rows; r++ {
		y := pc.MarginTop + r*pc.RowHeight
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			pc.MarginLeft, y, pc.Width-pc.MarginRight, y))
	}
}

func (pc *PlanChart) drawBar(svg *strings.Builder, bar ChartBar, rowY int) {
	barHeight := pc.RowHeight - 4
	barY := rowY + 2

	svg.WriteString(`<g>`)
	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="order-bar"/>`,
		bar.X, barY, bar.Width, barHeight, bar.Color))
	if bar.Width > 40 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="order-text" text-anchor="middle">%.0f</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, bar.Quantity))
	}
	svg.WriteString(fmt.Sprintf(`<title>%s, %s, %s: %.0f units</title>`,
		bar.Product.Label(), bar.Supplier.Label(), bar.Period.Label(), bar.Quantity))
	svg.WriteString(`</g>`)
}

// drawStorageRow draws used storage as a share of each period's capacity
func (pc *PlanChart) drawStorageRow(svg *strings.Builder, result *dto.PlanResult) {
	y := pc.MarginTop + result.Instance.NumProducts()*pc.RowHeight
	barHeight := pc.RowHeight - 4
	usable := pc.ColumnWidth - 10

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" text-anchor="end">Storage</text>`,
		pc.MarginLeft-15, y+pc.RowHeight/2+4))

	for _, pp := range result.Plan.Periods {
		capacity := result.Instance.Capacity[pp.Period]
		x := pc.columnX(int(pp.Period)) + 5

		share := 0.0
		if capacity > 0 {
			share = pp.StorageUsed / capacity
		}
		color := "#607D8B"
		if share > 1 {
			share = 1
			color = "#F44336"
		}

		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="#f5f5f5" stroke="#ccc"/>`,
			x, y+2, usable, barHeight))
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
			x, y+2, int(share*float64(usable)), barHeight, color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="period-label" text-anchor="middle">%.2f / %.0f</text>`,
			x+usable/2, y+pc.RowHeight/2+4, entities.RoundTo(pp.StorageUsed, 2), capacity))
	}
}

// drawLegend draws a legend explaining the supplier colors
func (pc *PlanChart) drawLegend(svg *strings.Builder, suppliers int) {
	legendX := pc.MarginLeft
	legendY := pc.Height - pc.MarginBottom + 30

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="row-label" font-weight="bold">Legend</text>`,
		legendX, legendY+8))
	for j := 0; j < suppliers; j++ {
		supplier := entities.SupplierID(j)
		itemX := legendX + 60 + j*100
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`,
			itemX, legendY, supplierColor(supplier)))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="period-label">%s</text>`,
			itemX+18, legendY+8, supplier.Label()))
	}
}

var supplierPalette = []string{"#4CAF50", "#2196F3", "#FF9800", "#9C27B0", "#795548"}

// supplierColor returns a stable color per supplier
func supplierColor(supplier entities.SupplierID) string {
	if supplier < 0 {
		return "#9E9E9E"
	}
	return supplierPalette[int(supplier)%len(supplierPalette)]
}

// generateEmptyChart creates an empty chart when there is no plan to draw
func (pc *PlanChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Optimal Plan Found</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, pc.Width, pc.Height, pc.Width, pc.Height, pc.Width/2, pc.Height/2)
}
