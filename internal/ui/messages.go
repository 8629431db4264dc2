// Package ui provides message printing utilities.
package ui

import (
	"fmt"
	"strings"
)

// Println prints an empty line.
func Println() {
	fmt.Println()
}

// PrintSuccess prints a success message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintSuccess(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(SuccessStyle.Render("✓ " + msg))
}

// PrintError prints an error message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(ErrorStyle.Render("✗ " + msg))
}

// PrintWarning prints a warning message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(WarningStyle.Render("⚠ " + msg))
}

// PrintInfo prints an informational message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(InfoStyle.Render(msg))
}

// PrintDim prints a dimmed message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintDim(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(DimStyle.Render(msg))
}

// PrintLink prints a labeled link.
//
// Parameters:
//   - label: The link label
//   - url: The URL
func PrintLink(label, url string) {
	fmt.Printf("%s %s\n", DimStyle.Render(label+":"), LinkStyle.Render(url))
}

// PrintBox prints content in a styled box.
//
// Parameters:
//   - title: Box title
//   - content: Box content
func PrintBox(title, content string) {
	titleStyled := BoxTitleStyle.Render(title)
	box := BoxStyle.Render(titleStyled + "\n" + content)
	fmt.Println(box)
}

// NextStep is one suggested follow-up command.
type NextStep struct {
	// Label describes the step (e.g., "Capture a screenshot:").
	Label string

	// Command is the command line to run.
	Command string
}

// PrintNextSteps prints a "Next steps" block with aligned labels and
// highlighted commands. Prints nothing when steps is empty or quiet
// mode is on.
//
// Parameters:
//   - steps: The steps to suggest
func PrintNextSteps(steps []NextStep) {
	if len(steps) == 0 || quietMode {
		return
	}
	Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	labelWidth := 0
	for _, s := range steps {
		if len(s.Label) > labelWidth {
			labelWidth = len(s.Label)
		}
	}
	for _, s := range steps {
		fmt.Printf("  %s %s\n", padRight(s.Label, labelWidth), CodeStyle.Render(s.Command))
	}
}

// tableColumnFloor is the narrowest a column may be squeezed when a
// table is wider than the terminal.
const tableColumnFloor = 4

// tableColumnGap separates adjacent table columns.
const tableColumnGap = "  "

// Table represents a table with dynamic column widths for formatted output.
type Table struct {
	// Headers contains the column header names.
	Headers []string

	// Rows contains all data rows.
	Rows [][]string

	// MinWidths specifies minimum width per column index.
	MinWidths map[int]int

	// MaxWidths specifies maximum width per column index (truncates with ellipsis).
	MaxWidths map[int]int
}

// NewTable creates a new table with the specified headers.
//
// Parameters:
//   - headers: Column header names
//
// Returns:
//   - *Table: A new table instance
func NewTable(headers ...string) *Table {
	return &Table{
		Headers:   headers,
		Rows:      make([][]string, 0),
		MinWidths: make(map[int]int),
		MaxWidths: make(map[int]int),
	}
}

// AddRow adds a data row to the table.
//
// Parameters:
//   - values: Cell values for the row
func (t *Table) AddRow(values ...string) {
	t.Rows = append(t.Rows, values)
}

// SetMinWidth sets the minimum width for a column.
//
// Parameters:
//   - col: Column index (0-based)
//   - width: Minimum width in characters
func (t *Table) SetMinWidth(col, width int) {
	t.MinWidths[col] = width
}

// SetMaxWidth sets the maximum width for a column.
// Values exceeding this width will be truncated with ellipsis.
//
// Parameters:
//   - col: Column index (0-based)
//   - width: Maximum width in characters
func (t *Table) SetMaxWidth(col, width int) {
	t.MaxWidths[col] = width
}

// calculateColumnWidths computes the natural width for each column.
//
// Returns:
//   - []int: Width for each column
func (t *Table) calculateColumnWidths() []int {
	numCols := len(t.Headers)
	widths := make([]int, numCols)

	// Start with header widths
	for i, header := range t.Headers {
		widths[i] = len(header)
	}

	// Check all row values
	for _, row := range t.Rows {
		for i, val := range row {
			if i < numCols && len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	// Apply min/max constraints
	for i := range widths {
		if min, ok := t.MinWidths[i]; ok && widths[i] < min {
			widths[i] = min
		}
		if max, ok := t.MaxWidths[i]; ok && widths[i] > max {
			widths[i] = max
		}
	}

	return widths
}

// columnFloors returns the narrowest allowed width per column. A
// configured minimum wins over the global floor.
func (t *Table) columnFloors() []int {
	floors := make([]int, len(t.Headers))
	for i := range floors {
		floors[i] = tableColumnFloor
		if min, ok := t.MinWidths[i]; ok && min > floors[i] {
			floors[i] = min
		}
	}
	return floors
}

// fitWidths shrinks column widths until the full row, gaps included,
// fits within limit. The widest column gives up space first, and no
// column drops below its floor. A limit of 0 disables fitting.
func fitWidths(widths, floors []int, limit int) []int {
	if limit <= 0 || len(widths) == 0 {
		return widths
	}

	total := func() int {
		sum := len(tableColumnGap) * (len(widths) - 1)
		for _, w := range widths {
			sum += w
		}
		return sum
	}

	for total() > limit {
		widest := -1
		for i, w := range widths {
			if w <= floors[i] {
				continue
			}
			if widest < 0 || w > widths[widest] {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		widths[widest]--
	}
	return widths
}

// truncateWithEllipsis truncates a string to the specified width with ellipsis.
//
// Parameters:
//   - s: String to truncate
//   - width: Maximum width
//
// Returns:
//   - string: Truncated string with ellipsis if needed
func truncateWithEllipsis(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// padRight pads a string to the specified width with spaces.
//
// Parameters:
//   - s: String to pad
//   - width: Target width
//
// Returns:
//   - string: Padded string
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Render prints the table with calculated column widths. Headers are
// styled with TableHeaderStyle, cells with TableCellStyle. When stdout
// is a terminal, columns are squeezed to fit its width.
func (t *Table) Render() {
	if len(t.Headers) == 0 {
		return
	}

	widths := fitWidths(t.calculateColumnWidths(), t.columnFloors(), TerminalWidth())

	// Print header row
	var headerCells []string
	for i, header := range t.Headers {
		cell := padRight(truncateWithEllipsis(header, widths[i]), widths[i])
		headerCells = append(headerCells, TableHeaderStyle.Render(cell))
	}
	fmt.Println(strings.Join(headerCells, tableColumnGap))

	// Print separator
	totalWidth := len(tableColumnGap) * (len(widths) - 1)
	for _, w := range widths {
		totalWidth += w
	}
	fmt.Println(DimStyle.Render(strings.Repeat("─", totalWidth)))

	// Print data rows
	for _, row := range t.Rows {
		var cells []string
		for i := 0; i < len(t.Headers); i++ {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			cell := padRight(truncateWithEllipsis(val, widths[i]), widths[i])
			cells = append(cells, TableCellStyle.Render(cell))
		}
		fmt.Println(strings.Join(cells, tableColumnGap))
	}
}
