package portal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"semisto-service/internal/models"
)

const (
	impactSheet  = "Impact"
	historySheet = "Historique"
	fundingSheet = "Financements"
)

// ImpactReport renders the partner's impact metrics, monthly history and
// fundings as an XLSX workbook. It returns the workbook and a file name.
func ImpactReport(partner models.Partner, metrics models.ImpactMetrics, fundings []models.Funding) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(impactSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#5B5781"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	f.SetColWidth(impactSheet, "A", "A", 34)
	f.SetColWidth(impactSheet, "B", "B", 16)
	f.SetCellValue(impactSheet, "A1", fmt.Sprintf("Rapport d'impact : %s", partner.Name))
	f.MergeCell(impactSheet, "A1", "B1")
	f.SetCellStyle(impactSheet, "A1", "B1", headerStyle)

	summary := []struct {
		label string
		value any
	}{
		{"Montant investi (€)", metrics.TotalInvested},
		{"Hectares", metrics.HectaresContributed},
		{"Arbres plantés", metrics.TreesPlanted},
		{"Arbres prévus", metrics.TreesPlanned},
		{"Participants mobilisés", metrics.ParticipantsMobilized},
		{"Événements soutenus", metrics.EventsSponsored},
		{"CO2 compensé (t)", metrics.CO2OffsetTons},
		{"Projets soutenus", metrics.ProjectsSupported},
		{"Labs touchés", metrics.LabsReached},
	}
	for i, row := range summary {
		f.SetCellValue(impactSheet, cell("A", i+3), row.label)
		f.SetCellValue(impactSheet, cell("B", i+3), row.value)
	}

	if err := writeTable(f, historySheet, headerStyle,
		[]string{"Mois", "Investi (€)", "Arbres", "Hectares"},
		len(metrics.History), func(i int) []any {
			h := metrics.History[i]
			return []any{h.Month, h.Invested, h.Trees, h.Hectares}
		}); err != nil {
		return nil, "", err
	}

	if err := writeTable(f, fundingSheet, headerStyle,
		[]string{"Projet", "Lab", "Montant (€)", "Date", "Statut"},
		len(fundings), func(i int) []any {
			fd := fundings[i]
			return []any{fd.ProposalTitle, fd.LabName, fd.Amount, fd.Date, fd.Status}
		}); err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	name := fmt.Sprintf("impact-%s.xlsx", strings.ToLower(strings.ReplaceAll(partner.ID, " ", "-")))
	return buf, name, nil
}

func writeTable(f *excelize.File, sheet string, headerStyle int, headers []string, rows int, row func(i int) []any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	for i, h := range headers {
		col := colName(i)
		f.SetColWidth(sheet, col, col, 20)
		f.SetCellValue(sheet, cell(col, 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	for r := 0; r < rows; r++ {
		for c, v := range row(r) {
			f.SetCellValue(sheet, cell(colName(c), r+2), v)
		}
	}
	return nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
