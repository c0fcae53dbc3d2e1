package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXRenderer writes the summary to a one-sheet workbook with Persian headers.
type XLSXRenderer struct{}

var xlsxHeaders = []string{"شناسه", "نام و نام خانوادگی", "مبلغ تعهدی", "وضعیت پرداخت"}

func (XLSXRenderer) Render(s Summary) (*Document, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%04d-%02d", s.Period.Year, s.Period.Month)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)}); err != nil {
		return nil, fmt.Errorf("set sheet direction: %w", err)
	}

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, r := range s.Rows {
		row := i + 2
		values := []interface{}{r.DonorID, r.FullName, r.PledgeAmount.IntPart(), StatusLabel(r.Status)}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	totalRow := len(s.Rows) + 3
	totals := [][]interface{}{
		{"جمع تعهدات", s.Totals.Pledged.IntPart()},
		{"جمع دریافتی", s.Totals.Collected.IntPart()},
	}
	for i, t := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(2, totalRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(3, totalRow+i)
		if err := f.SetCellValue(sheet, labelCell, t[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, valueCell, t[1]); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 30); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "C", "D", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx report: %w", err)
	}

	return &Document{
		Filename:    baseFilename(s) + ".xlsx",
		ContentType: ContentTypeXLSX,
		Body:        buf.Bytes(),
	}, nil
}

func boolPtr(b bool) *bool { return &b }
