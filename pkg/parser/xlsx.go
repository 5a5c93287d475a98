package parser

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/tealeg/xlsx"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
)

// ParseXLSX reads the first sheet and runs it through the same row pipeline
// as delimited files.
func (p *Parser) ParseXLSX(ctx context.Context, data []byte) (*database.CsvAnalysisResult, error) {
	if len(data) == 0 {
		return nil, common.ErrEmptyFile
	}

	fileData, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, errors.Wrap(err, "can not open spreadsheet")
	}

	if len(fileData.Sheets) == 0 {
		return nil, errors.New("no sheets found")
	}

	sheet := fileData.Sheets[0]

	if len(sheet.Rows) == 0 {
		return nil, common.ErrEmptyFile
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		var values []string
		if row != nil {
			for _, cell := range row.Cells {
				values = append(values, cell.String())
			}
		}

		rows = append(rows, values)
	}

	if h, headerRow, found := locateHeader(rows); found {
		dateIndex := h.index[columnDate]

		for i := headerRow + 1; i < len(sheet.Rows); i++ {
			row := sheet.Rows[i]
			if row == nil || dateIndex >= len(row.Cells) {
				continue
			}

			if formatted, ok := dateCell(row.Cells[dateIndex]); ok {
				rows[i][dateIndex] = formatted
			}
		}
	}

	return p.analyze(ctx, rows)
}

// dateCell renders serial date numbers day first, like the csv exports do.
func dateCell(cell *xlsx.Cell) (string, bool) {
	if cell == nil || cell.Type() != xlsx.CellTypeNumeric {
		return "", false
	}

	date, err := cell.GetTime(false)
	if err != nil {
		return "", false
	}

	return date.Format("02/01/2006"), true
}
