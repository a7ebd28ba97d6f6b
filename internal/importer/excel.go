package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheets   = errors.New("excel file has no sheets")
	ErrEmptySheet = errors.New("excel sheet has no data rows")
	ErrNoName     = errors.New("header has no name column")
	ErrBadFile    = errors.New("not a readable xlsx workbook")
)

// Row is one product line of an import sheet. Err is set when the line could
// not be parsed; such rows are reported and skipped.
type Row struct {
	Line           int
	Name           string
	Description    string
	Price          *decimal.Decimal
	IsActive       bool
	ImageURL       string
	CategoryIDs    []uint
	CategoryTitles []string
	Stock          *int
	Err            error
}

// column aliases accepted in the header row
var headerAliases = map[string]string{
	"name":         "name",
	"title":        "name",
	"description":  "description",
	"price":        "price",
	"is_active":    "is_active",
	"active":       "is_active",
	"image_url":    "image_url",
	"image":        "image_url",
	"category_ids": "category_ids",
	"categories":   "categories",
	"stock":        "stock",
}

// ParseProducts reads the first sheet of an xlsx workbook. The first row is
// the header; columns are matched by name, in any order.
func ParseProducts(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	columns := mapColumns(rows[0])
	if _, ok := columns["name"]; !ok {
		return nil, ErrNoName
	}

	out := make([]Row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if isBlank(cells) {
			continue
		}
		out = append(out, parseRow(i+2, cells, columns))
	}
	if len(out) == 0 {
		return nil, ErrEmptySheet
	}
	return out, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := headerAliases[key]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}
	return columns
}

func parseRow(line int, cells []string, columns map[string]int) Row {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	row := Row{
		Line:        line,
		Name:        cell("name"),
		Description: cell("description"),
		ImageURL:    cell("image_url"),
	}

	if raw := cell("price"); raw != "" {
		price, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			row.Err = fmt.Errorf("line %d: invalid price %q", line, raw)
			return row
		}
		row.Price = &price
	}

	if raw := cell("is_active"); raw != "" {
		active, err := parseBool(raw)
		if err != nil {
			row.Err = fmt.Errorf("line %d: invalid is_active %q", line, raw)
			return row
		}
		row.IsActive = active
	}

	if raw := cell("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			row.Err = fmt.Errorf("line %d: invalid stock %q", line, raw)
			return row
		}
		row.Stock = &stock
	}

	for _, part := range splitList(cell("category_ids")) {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			row.Err = fmt.Errorf("line %d: invalid category id %q", line, part)
			return row
		}
		row.CategoryIDs = append(row.CategoryIDs, uint(id))
	}
	row.CategoryTitles = splitList(cell("categories"))

	return row
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y", "active":
		return true, nil
	case "no", "n", "draft", "inactive":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
