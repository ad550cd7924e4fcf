package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/taskmarket/internal/model"
)

const fontName = "Helvetica"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the completion statement for a finished task: task
// details, the accepted bid and the agreed amount, one page.
func (g *Generator) Generate(statement model.CompletionStatement) ([]byte, error) {
	task := statement.Task
	bid := statement.AcceptedBid

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, "Task Completion Statement", "", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Statement generated %s", formatDate(statement.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Task ID: %s", task.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Task", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	labelValue(pdf, "Title", task.Title)
	labelValue(pdf, "Category", string(task.Category))
	labelValue(pdf, "College", task.College)
	labelValue(pdf, "Posted by", task.OwnerName)
	labelValue(pdf, "Deadline", formatDate(task.Deadline))
	if task.CompletedAt != nil {
		labelValue(pdf, "Completed", formatDate(*task.CompletedAt))
	}
	pdf.Ln(2)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Accepted Bid", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	labelValue(pdf, "Freelancer", bid.FreelancerName)
	labelValue(pdf, "Email", bid.FreelancerEmail)
	labelValue(pdf, "Delivery time", fmt.Sprintf("%d days", bid.DeliveryTimeDays))
	if bid.AcceptedAt != nil {
		labelValue(pdf, "Accepted", formatDate(*bid.AcceptedAt))
	}
	pdf.Ln(2)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Amount", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	labelValue(pdf, "Posted budget", fmt.Sprintf("Rs. %.2f", task.Budget))
	labelValue(pdf, "Agreed amount", fmt.Sprintf("Rs. %.2f", bid.Amount))

	if task.SubmissionURL != nil && *task.SubmissionURL != "" {
		pdf.Ln(2)
		pdf.SetFont(fontName, "B", 12)
		pdf.CellFormat(0, 8, "Deliverable", "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, *task.SubmissionURL, "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont(fontName, "", 9)
	pdf.MultiCell(0, 5, "This statement confirms the task above was completed and approved by the client. The agreed amount was released from escrow to the freelancer.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func labelValue(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(45, 6, label+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}
