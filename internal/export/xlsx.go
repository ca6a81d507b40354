package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"time-value-analyser/fi-dashboard/internal/model"
)

// SheetName is the single sheet written by WriteForecastXLSX.
const SheetName = "Forecast"

// WriteForecastXLSX writes the same table as WriteForecastCSV to a workbook.
func WriteForecastXLSX(w io.Writer, scenario string, points []model.ForecastPoint) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, "A1", "year"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, "B1", scenario); err != nil {
		return err
	}
	for i, p := range points {
		yearCell, _ := excelize.CoordinatesToCellName(1, i+2)
		valCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := f.SetCellValue(SheetName, yearCell, p.Year); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, valCell, p.Value); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 18); err != nil {
		return err
	}
	return f.Write(w)
}
