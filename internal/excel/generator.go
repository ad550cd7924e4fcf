package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/taskmarket/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the marketplace stats workbook: a summary sheet plus
// breakdown sheets for task statuses, bid statuses and categories.
func (g *Generator) Generate(report model.MarketReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	tasksSheet := "Tasks by Status"
	file.NewSheet(tasksSheet)
	if err := g.writeBreakdown(file, tasksSheet, "Task Status", "Avg Budget", report.TaskStatusBreakdown); err != nil {
		return nil, err
	}

	bidsSheet := "Bids by Status"
	file.NewSheet(bidsSheet)
	if err := g.writeBreakdown(file, bidsSheet, "Bid Status", "Avg Amount", report.BidStatusBreakdown); err != nil {
		return nil, err
	}

	categoriesSheet := "Categories"
	file.NewSheet(categoriesSheet)
	if err := g.writeCategories(file, categoriesSheet, report.CategoryBreakdown); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.MarketReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Marketplace Activity Report")
	set("A2", "Generated At")
	set("B2", report.GeneratedAt.Format("2006-01-02 15:04"))
	set("A4", "Total Tasks")
	set("B4", report.TotalTasks)
	set("A5", "Total Task Budget")
	set("B5", report.TotalBudget)
	set("A6", "Total Bids")
	set("B6", report.TotalBids)
	set("A7", "Total Bid Amount")
	set("B7", report.TotalBidAmount)

	avgBids := 0.0
	if report.TotalTasks > 0 {
		avgBids = float64(report.TotalBids) / float64(report.TotalTasks)
	}
	set("A8", "Avg Bids per Task")
	set("B8", fmt.Sprintf("%.2f", avgBids))

	_ = file.SetColWidth(sheet, "A", "A", 30)
	_ = file.SetColWidth(sheet, "B", "B", 20)
	return nil
}

func (g *Generator) writeBreakdown(file *excelize.File, sheet, label, avgLabel string, rows []model.StatusCount) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", label)
	set("B1", "Count")
	set("C1", avgLabel)

	for i, row := range rows {
		set(fmt.Sprintf("A%d", i+2), row.Status)
		set(fmt.Sprintf("B%d", i+2), row.Count)
		set(fmt.Sprintf("C%d", i+2), row.AvgAmount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "C", 16)
	return nil
}

func (g *Generator) writeCategories(file *excelize.File, sheet string, rows []model.CategoryCount) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Category")
	set("B1", "Tasks")
	set("C1", "Avg Budget")

	for i, row := range rows {
		set(fmt.Sprintf("A%d", i+2), row.Category)
		set(fmt.Sprintf("B%d", i+2), row.Count)
		set(fmt.Sprintf("C%d", i+2), row.AvgBudget)
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "C", 16)
	return nil
}
