// Package render prints a unit report as a terminal tree.
package render

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/jsonutil"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
)

const (
	// Unknown replaces a reference value whose lookup failed.
	Unknown = "Unknown"
	// NotAvailable replaces a missing or null value.
	NotAvailable = "N/A"
	// NoData is printed in place of the history tree for an empty report.
	NoData = "No data found"
)

// DFColumns are the direction-finding channels shown for each DF test.
var DFColumns = []string{"VL", "AL", "VX", "AX", "VY", "AY", "VN"}

// hiddenKeys are either shown elsewhere or carry no information for the reader.
var hiddenKeys = []string{
	models.FieldDBTable,
	models.FieldTransactionID,
	models.FieldTransactionTime,
	models.FieldSerialNumber,
}

// Resolver resolves reference columns to display text.
type Resolver interface {
	EmployeeName(ctx context.Context, employeeID any) (string, error)
	FailureDescription(ctx context.Context, failureCode any) (string, error)
}

type styles struct {
	section lipgloss.Style
	header  lipgloss.Style
	stage   lipgloss.Style
	key     lipgloss.Style
	branch  lipgloss.Style
	border  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		section: r.NewStyle().Bold(true).Underline(true),
		header:  r.NewStyle().Bold(true),
		stage:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		key:     r.NewStyle().Foreground(lipgloss.Color("245")),
		branch:  r.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1),
		border:  r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Renderer writes reports to a terminal or any other writer. Colors are
// dropped automatically when w is not a terminal.
type Renderer struct {
	w        io.Writer
	resolver Resolver
	styles   styles
	logger   *zap.Logger
}

// New creates a Renderer. A nil resolver renders every reference as Unknown.
func New(w io.Writer, resolver Resolver, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		w:        w,
		resolver: resolver,
		styles:   newStyles(lipgloss.NewRenderer(w)),
		logger:   logger.Named("render"),
	}
}

// Render writes the unit header, the DF values of every DF test and the
// stage history of r.
func (r *Renderer) Render(ctx context.Context, rep *models.Report) error {
	var b strings.Builder

	b.WriteString(r.styles.section.Render("Beacon Information"))
	b.WriteString("\n")
	b.WriteString(r.styles.header.Render(Header(rep)))
	b.WriteString("\n")

	records := rep.Records()
	for _, rec := range records {
		if rec.Table() != models.DFTestingTable {
			continue
		}
		b.WriteString(r.dfTable(rec))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(r.styles.section.Render("Manufacturing Information"))
	b.WriteString("\n")

	if len(records) == 0 {
		b.WriteString(NoData)
		b.WriteString("\n")
	} else {
		history := tree.New().
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(r.styles.branch)
		for _, rec := range records {
			history.Child(r.recordNode(ctx, rec))
		}
		b.WriteString(history.String())
		b.WriteString("\n")
	}

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Header returns the one-line unit summary.
func Header(rep *models.Report) string {
	first := NotAvailable
	if v, ok := rep.FirstScanned(); ok {
		first = DisplayValue(v)
	}
	return fmt.Sprintf("Serial Number: %s, First Scanned: %s", rep.SerialNumber(), first)
}

// DFValues returns the DF channel readings of rec in DFColumns order.
func DFValues(rec models.StageRecord) []string {
	values := make([]string, len(DFColumns))
	for i, col := range DFColumns {
		v, ok := rec[col]
		if !ok || v == nil {
			values[i] = NotAvailable
			continue
		}
		values[i] = strings.ToUpper(DisplayValue(v))
	}
	return values
}

func (r *Renderer) dfTable(rec models.StageRecord) string {
	headers := append([]string{""}, DFColumns...)
	row := append([]string{"DF Values:"}, DFValues(rec)...)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.border).
		Headers(headers...).
		Row(row...).
		String()
}

func (r *Renderer) recordNode(ctx context.Context, rec models.StageRecord) *tree.Tree {
	title := fmt.Sprintf("%s: %s", DisplayValue(rec[models.FieldTransactionTime]), rec.Table().Label())
	node := tree.Root(r.styles.stage.Render(title)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(r.styles.branch)

	keys := make([]string, 0, len(rec))
	for k := range rec {
		if !slices.Contains(hiddenKeys, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, key := range keys {
		val := rec[key]
		var children []any

		switch key {
		case models.FieldEmployeeID:
			children = []any{r.employeeName(ctx, val)}
		case models.FieldFailureCode:
			if isZeroCode(val) {
				continue
			}
			children = []any{fmt.Sprintf("%s: %s", DisplayValue(val), r.failureDescription(ctx, val))}
		case models.FieldFailureDescription:
			if val == nil || DisplayValue(val) == "Pass" {
				continue
			}
			for _, line := range strings.Split(DisplayValue(val), "\r\n") {
				children = append(children, line)
			}
		default:
			children = []any{DisplayValue(val)}
		}

		node.Child(tree.Root(r.styles.key.Render(models.ColumnLabel(key))).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(r.styles.branch).
			Child(children...))
	}
	return node
}

func (r *Renderer) employeeName(ctx context.Context, id any) string {
	if r.resolver == nil {
		return Unknown
	}
	name, err := r.resolver.EmployeeName(ctx, id)
	if err != nil {
		r.logger.Debug("Employee lookup failed",
			zap.String("employee_id", DisplayValue(id)),
			logging.Error(err))
		return Unknown
	}
	return name
}

func (r *Renderer) failureDescription(ctx context.Context, code any) string {
	if r.resolver == nil {
		return Unknown
	}
	desc, err := r.resolver.FailureDescription(ctx, code)
	if err != nil {
		r.logger.Debug("Failure code lookup failed",
			zap.String("failure_code", DisplayValue(code)),
			logging.Error(err))
		return Unknown
	}
	return desc
}

// DisplayValue renders a column value for the reader. Times use their
// canonical text form and null becomes N/A.
func DisplayValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return NotAvailable
	case time.Time:
		return models.FormatTimestamp(tv)
	case *time.Time:
		if tv == nil {
			return NotAvailable
		}
		return models.FormatTimestamp(*tv)
	}
	return jsonutil.FlexibleStringValue(v)
}

func isZeroCode(v any) bool {
	return v == nil || jsonutil.FlexibleStringValue(v) == "0"
}
