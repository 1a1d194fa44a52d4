package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/signmate-contracts/internal/model"
)

const (
	contractsSheet = "Contracts"
	summarySheet   = "By type"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(listing model.ContractListing) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", contractsSheet); err != nil {
		return nil, err
	}
	if err := g.writeContracts(file, listing); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, listing); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeContracts(file *excelize.File, listing model.ContractListing) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(contractsSheet, cell, value)
	}

	owner := "All users"
	if listing.Owner != nil {
		owner = listing.Owner.DisplayName()
	}
	set("A1", "Contracts of")
	set("B1", owner)
	set("A2", "Generated at")
	set("B2", formatDateTime(listing.GeneratedAt))
	set("A3", "Total")
	set("B3", len(listing.Documents))

	tableRow := 5
	headers := []string{
		"ID",
		"Type",
		"Writer",
		"Writer email",
		"Receiver",
		"Receiver email",
		"Created",
		"Updated",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), tableRow)
		_ = file.SetCellStyle(contractsSheet, fmt.Sprintf("A%d", tableRow), last, style)
	}

	for i, doc := range listing.Documents {
		row := tableRow + 1 + i
		values := []interface{}{
			doc.Contract.ID,
			doc.Contract.ContractType.String(),
			doc.Writer.DisplayName(),
			doc.Writer.Email,
			doc.Receiver.DisplayName(),
			doc.Receiver.Email,
			formatDateTime(doc.Contract.CreatedAt),
			formatDateTime(doc.Contract.UpdatedAt),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(contractsSheet, "A", "A", 14)
	_ = file.SetColWidth(contractsSheet, "B", "B", 16)
	_ = file.SetColWidth(contractsSheet, "C", "F", 28)
	_ = file.SetColWidth(contractsSheet, "G", "H", 20)
	return nil
}

func (g *Generator) writeSummary(file *excelize.File, listing model.ContractListing) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	counts := countByType(listing.Documents)

	set("A1", "Type")
	set("B1", "Contracts")
	for i, ct := range model.ContractTypes() {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), ct.String())
		set(fmt.Sprintf("B%d", row), counts[ct])
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 20)
	_ = file.SetColWidth(summarySheet, "B", "B", 12)
	return nil
}

func countByType(docs []model.ContractDocument) map[model.ContractType]int {
	counts := make(map[model.ContractType]int)
	for _, doc := range docs {
		counts[doc.Contract.ContractType]++
	}
	return counts
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
