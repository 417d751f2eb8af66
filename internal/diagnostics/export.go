package diagnostics

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the post-run report to a styled Excel workbook: one
// summary sheet plus per-brand and per-language breakdowns.
func ExportXLSX(report *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Summary"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, "A1", "Metric")
	f.SetCellValue(sheetName, "B1", "Value")
	f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	rows := []struct {
		label string
		value interface{}
	}{
		{"Categories", report.Categories},
		{"Lighting Types", report.LightingTypes},
		{"Products", report.Products},
		{"Specification Rows", report.SpecRows},
		{"Unit Count Coverage", fmt.Sprintf("%.1f%%", report.UnitCountPct)},
		{"Price Min", report.PriceMin},
		{"Price Max", report.PriceMax},
		{"Price Avg", report.PriceAvg},
	}
	for i, row := range rows {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+2), row.label)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+2), row.value)
	}
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 20)

	f.NewSheet("Brands")
	f.SetCellValue("Brands", "A1", "Brand")
	f.SetCellValue("Brands", "B1", "Products")
	f.SetCellStyle("Brands", "A1", "B1", headerStyle)
	for i, brand := range sortedReportKeys(report.ProductsByBrand) {
		f.SetCellValue("Brands", fmt.Sprintf("A%d", i+2), brand)
		f.SetCellValue("Brands", fmt.Sprintf("B%d", i+2), report.ProductsByBrand[brand])
	}
	f.SetColWidth("Brands", "A", "A", 25)

	f.NewSheet("Languages")
	f.SetCellValue("Languages", "A1", "Language")
	f.SetCellValue("Languages", "B1", "Specification Rows")
	f.SetCellStyle("Languages", "A1", "B1", headerStyle)
	for i, language := range sortedReportKeys(report.SpecsByLanguage) {
		f.SetCellValue("Languages", fmt.Sprintf("A%d", i+2), language)
		f.SetCellValue("Languages", fmt.Sprintf("B%d", i+2), report.SpecsByLanguage[language])
	}
	f.SetColWidth("Languages", "A", "B", 20)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}
