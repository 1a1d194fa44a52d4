package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/signmate-contracts/internal/model"
)

var typeTitles = map[model.ContractType]string{
	model.ContractTypeService:    "Service agreement",
	model.ContractTypeEmployment: "Employment contract",
	model.ContractTypeLease:      "Lease agreement",
	model.ContractTypeSale:       "Sale agreement",
	model.ContractTypeNDA:        "Non-disclosure agreement",
	model.ContractTypeOther:      "Contract",
}

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle(fmt.Sprintf("Contract %d", doc.Contract.ID), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, tr(title(doc.Contract.ContractType)), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("No. %d of %s", doc.Contract.ID, formatDate(doc.Contract.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	addPartyBlock(pdf, g.fontName, tr, "Writer", doc.Writer)
	pdf.Ln(3)
	addPartyBlock(pdf, g.fontName, tr, "Receiver", doc.Receiver)
	pdf.Ln(6)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Details", "", 1, "L", false, 0, "")

	widths := []float64{60, 110}
	drawTableRow(pdf, g.fontName, []string{"Field", "Value"}, widths, true)
	rows := [][]string{
		{"Contract type", doc.Contract.ContractType.String()},
		{"Created", formatDateTime(doc.Contract.CreatedAt)},
		{"Last modified", formatDateTime(doc.Contract.UpdatedAt)},
	}
	for _, row := range rows {
		drawTableRow(pdf, g.fontName, row, widths, false)
	}

	pdf.Ln(10)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Signatures", "", 1, "L", false, 0, "")
	signatureBlock(pdf, g.fontName, tr, "Writer", doc.Writer.DisplayName())
	signatureBlock(pdf, g.fontName, tr, "Receiver", doc.Receiver.DisplayName())

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func title(ct model.ContractType) string {
	if t, ok := typeTitles[ct]; ok {
		return t
	}
	return "Contract"
}

func addPartyBlock(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, label string, user model.User) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, label, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		safeValue(user.DisplayName()),
		fmt.Sprintf("Email: %s", safeValue(user.Email)),
		fmt.Sprintf("User ID: %d", user.ID),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name))), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02.01.2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02.01.2006 15:04")
}
