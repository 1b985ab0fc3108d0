package seasonservice

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/xuri/excelize/v2"
)

var (
	nameHeaders   = []string{"driver", "name", "competitor"}
	resultHeaders = []string{"result", "position", "pos", "finish", "rank"}
)

// ParseRaceSheet reads a race sheet into submission tokens. The sheet has a
// name column and a result column, located by header when one is present and
// otherwise taken as the first two columns. Tokens are passed through
// unvalidated; the ledger decides whether they are acceptable.
func ParseRaceSheet(filename string, data []byte) (map[string]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSVRows(data)
	case ".xlsx":
		rows, err = readXLSXRows(data)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidSheet, filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	return tokensFromRows(rows)
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func tokensFromRows(rows [][]string) (map[string]string, error) {
	nameCol, resultCol, start := 0, 1, 0
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if n, r, ok := headerColumns(row); ok {
			nameCol, resultCol, start = n, r, i+1
		} else {
			start = i
		}
		break
	}

	tokens := make(map[string]string)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			return nil, fmt.Errorf("%w: row %d has no name", ErrInvalidSheet, i+1)
		}
		if _, dup := tokens[name]; dup {
			return nil, fmt.Errorf("%w: %s appears more than once", ErrInvalidSheet, name)
		}
		tokens[name] = strings.TrimSpace(cell(row, resultCol))
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: sheet has no results", ErrInvalidSheet)
	}
	return tokens, nil
}

func headerColumns(row []string) (nameCol, resultCol int, ok bool) {
	nameCol, resultCol = -1, -1
	for i, c := range row {
		h := strings.ToLower(strings.TrimSpace(c))
		switch {
		case nameCol < 0 && slices.Contains(nameHeaders, h):
			nameCol = i
		case resultCol < 0 && slices.Contains(resultHeaders, h):
			resultCol = i
		}
	}
	return nameCol, resultCol, nameCol >= 0 && resultCol >= 0
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ExportStandings writes the driver and team tables to an XLSX workbook.
func (s *SeasonService) ExportStandings(ctx context.Context) ([]byte, error) {
	st, err := read(s, ctx, "ExportStandings", func(context.Context) (seasondomain.Standings, error) {
		return s.ledger.Standings(), nil
	})
	if err != nil {
		return nil, err
	}
	return StandingsWorkbook(st)
}

// StandingsWorkbook renders standings as a two-sheet workbook.
func StandingsWorkbook(st seasondomain.Standings) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const drivers, teams = "Drivers", "Teams"
	if err := f.SetSheetName("Sheet1", drivers); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(teams); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	driverRows := [][]any{{"Pos", "Driver", "Team", "Points", "P1", "P2", "P3", "DNF", "Races", "Avg Pos", "Rating", "Trend"}}
	for _, c := range st.Competitors {
		trend := ""
		if c.Trend != nil {
			trend = fmt.Sprintf("%s %d", c.TrendGlyph(), *c.Trend)
		}
		driverRows = append(driverRows, []any{
			c.Position, c.Name, c.Team, c.Points, c.P1, c.P2, c.P3, c.DNFs, c.Races,
			optionalAverage(c.AveragePosition), c.Rating.InexactFloat64(), trend,
		})
	}

	teamRows := [][]any{{"Pos", "Team", "Drivers", "Points", "P1", "P2", "P3", "DNF", "Avg Pos", "Avg Rating"}}
	for _, t := range st.Teams {
		teamRows = append(teamRows, []any{
			t.Position, t.Name, t.Members[0] + " / " + t.Members[1], t.Points, t.P1, t.P2, t.P3, t.DNFs,
			optionalAverage(t.AveragePosition), t.AverageRating.InexactFloat64(),
		})
	}

	for sheet, rows := range map[string][][]any{drivers: driverRows, teams: teamRows} {
		for i, row := range rows {
			ref, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, ref, &row); err != nil {
				return nil, fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
			}
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optionalAverage(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
