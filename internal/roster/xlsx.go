package roster

import (
	"fmt"

	"github.com/andresmejia3/facenroll/internal/types"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by ExportXLSX.
const SheetName = "Roster"

// ExportXLSX writes records to an Excel workbook at path, one row per
// enrollment with the number of images found in dataDir.
func ExportXLSX(records []types.EnrollmentRecord, dataDir, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"ID", "Name", "Branch", "Images"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		count, err := ImageCount(dataDir, rec.ID)
		if err != nil {
			return fmt.Errorf("count images for %s: %w", rec.ID, err)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.ID, rec.Name, rec.Branch, count}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
