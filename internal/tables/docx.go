package tables

import (
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/fumiama/go-docx"
)

// DOCXSource reads native Word tables. DOCX has no fixed pagination, so every
// table is reported on page 1.
type DOCXSource struct{}

func (s *DOCXSource) Grids(path string) ([]Grid, error) {
	doc, err := layout.ParseDOCX(path)
	if err != nil {
		return nil, err
	}

	var grids []Grid
	for _, item := range doc.Document.Body.Items {
		tbl, ok := item.(*docx.Table)
		if !ok {
			continue
		}
		var rows [][]string
		for _, tr := range tbl.TableRows {
			row := make([]string, 0, len(tr.TableCells))
			for _, cell := range tr.TableCells {
				row = append(row, layout.DOCXCellText(cell))
			}
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			grids = append(grids, Grid{Page: 1, Rows: rows})
		}
	}
	return grids, nil
}
