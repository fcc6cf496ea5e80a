package export

import (
	"fmt"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names of the yearly workbook
const (
	SheetForm103 = "Formulario 103"
	SheetForm104 = "Formulario 104"
)

// ExcelExporter writes yearly summaries to xlsx workbooks
type ExcelExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger, now: time.Now}
}

// Render builds a workbook with one sheet per form
func (e *ExcelExporter) Render(summary *models.YearlySummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetForm103); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetForm104); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	e.writeSheet(f, SheetForm103, summary, form103Table(summary.Form103Summary), summary.MissingMonths.Form103, styles)
	e.writeSheet(f, SheetForm104, summary, form104Table(summary.Form104Summary), summary.MissingMonths.Form104, styles)
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Excel summary generated",
		zap.String("razon_social", summary.RazonSocial),
		zap.String("year", summary.Year),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

type excelStyles struct {
	title, header, money, total int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1A73E8"}},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	moneyFormat := "#,##0.00"
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &moneyFormat,
		Border:       []excelize.Border{{Type: "top", Color: "000000", Style: 1}},
	}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	return s, nil
}

func (e *ExcelExporter) writeSheet(f *excelize.File, sheet string, summary *models.YearlySummary, t table, missing []int, st excelStyles) {
	e.setCell(f, sheet, 1, 1, t.title)
	e.setStyle(f, sheet, 1, 1, 1, st.title)
	e.setCell(f, sheet, 1, 2, "Razón Social: "+summary.RazonSocial)
	e.setCell(f, sheet, 1, 3, "Año fiscal: "+summary.Year)
	e.setCell(f, sheet, 1, 4, "Generado: "+e.now().Format("02-01-2006 15:04"))

	const headerRow = 6
	e.setCell(f, sheet, 1, headerRow, "Mes")
	e.setCell(f, sheet, 2, headerRow, "Período")
	for i, c := range t.columns {
		e.setCell(f, sheet, i+3, headerRow, c.title)
	}
	lastCol := len(t.columns) + 2
	e.setStyle(f, sheet, headerRow, 1, lastCol, st.header)

	row := headerRow + 1
	for i, month := range t.months {
		e.setCell(f, sheet, 1, row, month)
		e.setCell(f, sheet, 2, row, t.periods[i])
		for j, c := range t.columns {
			e.setCell(f, sheet, j+3, row, c.value(i))
		}
		e.setStyle(f, sheet, row, 3, lastCol, st.money)
		row++
	}

	e.setCell(f, sheet, 1, row, "TOTAL")
	for j, v := range t.totals {
		e.setCell(f, sheet, j+3, row, v)
	}
	e.setStyle(f, sheet, row, 1, lastCol, st.total)
	row += 2

	if len(summary.ExcludedMonths) > 0 {
		e.setCell(f, sheet, 1, row, "Meses excluidos: "+monthList(summary.ExcludedMonths))
		row++
	}
	if len(missing) > 0 {
		e.setCell(f, sheet, 1, row, "Meses faltantes: "+monthList(missing))
	}

	if err := f.SetColWidth(sheet, "A", "A", 8); err != nil {
		e.logger.Warn("Failed to set column width", zap.String("sheet", sheet), zap.Error(err))
	}
	last, _ := excelize.ColumnNumberToName(lastCol)
	if err := f.SetColWidth(sheet, "B", last, 22); err != nil {
		e.logger.Warn("Failed to set column width", zap.String("sheet", sheet), zap.Error(err))
	}
}

// setCell sets a cell value, logging instead of failing on bad coordinates
func (e *ExcelExporter) setCell(f *excelize.File, sheet string, col, row int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err == nil {
		err = f.SetCellValue(sheet, cell, value)
	}
	if err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.Int("col", col),
			zap.Int("row", row),
			zap.Error(err))
	}
}

func (e *ExcelExporter) setStyle(f *excelize.File, sheet string, row, fromCol, toCol, style int) {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return
	}
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		e.logger.Warn("Failed to set cell style", zap.String("sheet", sheet), zap.Error(err))
	}
}
