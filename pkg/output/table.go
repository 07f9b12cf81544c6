package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// TableFormatter formats output as a table using pterm. List responses
// become one row per item; single objects become a field/value table.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Supports returns true for objects, lists and list responses.
func (f *TableFormatter) Supports(data any) bool {
	generic, err := Generic(data)
	if err != nil {
		return false
	}
	switch generic.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// Format formats the data as a table and writes it to the writer.
func (f *TableFormatter) Format(w io.Writer, data any, config *FormatConfig) error {
	if config == nil {
		config = NewFormatConfig()
	}
	generic, err := Generic(data)
	if err != nil {
		return err
	}

	var tableData [][]string
	if items, ok := Items(generic); ok {
		if len(items) == 0 {
			_, err := io.WriteString(w, "No resources found\n")
			return err
		}
		tableData = f.listRows(items, config)
		if config.SortBy != "" {
			tableData = f.sortTableData(tableData, config)
		}
	} else {
		obj, ok := generic.(map[string]any)
		if !ok {
			return fmt.Errorf("unsupported data type for table formatting: %T", data)
		}
		fields := Flatten(obj)
		if len(fields) == 0 {
			return nil
		}
		if config.ShowHeaders {
			tableData = append(tableData, []string{"FIELD", "VALUE"})
		}
		for _, fl := range fields {
			tableData = append(tableData, []string{fl.Key, fl.Value})
		}
	}

	table := pterm.DefaultTable.WithHasHeader(config.ShowHeaders)
	if config.Colors {
		table = table.WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold))
	} else {
		pterm.DisableColor()
		defer pterm.EnableColor()
	}

	rendered, err := table.WithData(tableData).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func (f *TableFormatter) listRows(items []map[string]any, config *FormatConfig) [][]string {
	columns := config.columns()
	rows := make([][]string, 0, len(items)+1)
	if config.ShowHeaders {
		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = col.Header
		}
		rows = append(rows, headers)
	}
	for _, item := range items {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = cellValue(col.Field, lookup(item, col.Field))
			if col.Width > 3 && len(row[j]) > col.Width {
				row[j] = row[j][:col.Width-3] + "..."
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// sortTableData sorts rows by the column whose header matches SortBy.
func (f *TableFormatter) sortTableData(data [][]string, config *FormatConfig) [][]string {
	if !config.ShowHeaders || len(data) <= 2 {
		return data
	}
	colIndex := -1
	for i, header := range data[0] {
		if strings.EqualFold(header, config.SortBy) {
			colIndex = i
			break
		}
	}
	if colIndex == -1 {
		return data
	}

	rows := data[1:]
	sort.SliceStable(rows, func(i, j int) bool {
		if config.SortAsc {
			return rows[i][colIndex] < rows[j][colIndex]
		}
		return rows[i][colIndex] > rows[j][colIndex]
	})
	return data
}
