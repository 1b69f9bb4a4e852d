// Package importer parses score spreadsheets exported by scoring-hut software.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Dosada05/clay-tournament/models"
)

// Row is one ledger write read from a spreadsheet.
type Row struct {
	Line       int                    `json:"line"`
	AthleteID  int                    `json:"athlete_id"`
	Discipline string                 `json:"discipline"`
	Round      int                    `json:"round"`
	Station    int                    `json:"station"`
	Thrown     int                    `json:"thrown"`
	Hit        int                    `json:"hit"`
	Stations   []models.StationResult `json:"stations,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Final      bool                   `json:"final"`
}

var (
	ErrNoRows        = errors.New("no score rows")
	ErrMissingColumn = errors.New("missing required column")
)

// ParseError locates a bad cell.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var requiredColumns = []string{"athlete_id", "discipline", "round", "thrown", "hit"}

// ParseCSV reads a header row followed by one row per athlete station. Required columns are
// athlete_id, discipline, round, thrown and hit; station, stations, notes and final are
// optional. The stations cell lists "hit/thrown" pairs separated by ';', numbered from 1.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		row, err := parseRecord(line, record, columns)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseRecord(line int, record []string, columns map[string]int) (Row, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	number := func(name string, required bool) (int, error) {
		raw := cell(name)
		if raw == "" && !required {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, &ParseError{Line: line, Column: name, Err: fmt.Errorf("not a whole number: %q", raw)}
		}
		return n, nil
	}

	row := Row{Line: line, Discipline: strings.ToLower(cell("discipline")), Notes: cell("notes")}
	if row.Discipline == "" {
		return row, &ParseError{Line: line, Column: "discipline", Err: errors.New("empty")}
	}

	var err error
	if row.AthleteID, err = number("athlete_id", true); err != nil {
		return row, err
	}
	if row.Round, err = number("round", true); err != nil {
		return row, err
	}
	if row.Station, err = number("station", false); err != nil {
		return row, err
	}
	if row.Thrown, err = number("thrown", true); err != nil {
		return row, err
	}
	if row.Hit, err = number("hit", true); err != nil {
		return row, err
	}
	if raw := cell("stations"); raw != "" {
		if row.Stations, err = parseStations(raw); err != nil {
			return row, &ParseError{Line: line, Column: "stations", Err: err}
		}
	}
	if raw := cell("final"); raw != "" {
		if row.Final, err = strconv.ParseBool(raw); err != nil {
			return row, &ParseError{Line: line, Column: "final", Err: fmt.Errorf("not a boolean: %q", raw)}
		}
	}
	return row, nil
}

func parseStations(raw string) ([]models.StationResult, error) {
	parts := strings.Split(raw, ";")
	stations := make([]models.StationResult, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hitStr, thrownStr, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("station %d: expected hit/thrown, got %q", i+1, part)
		}
		hit, err := strconv.Atoi(strings.TrimSpace(hitStr))
		if err != nil {
			return nil, fmt.Errorf("station %d: bad hit count %q", i+1, hitStr)
		}
		thrown, err := strconv.Atoi(strings.TrimSpace(thrownStr))
		if err != nil {
			return nil, fmt.Errorf("station %d: bad thrown count %q", i+1, thrownStr)
		}
		stations = append(stations, models.StationResult{Station: i + 1, Thrown: thrown, Hit: hit})
	}
	return stations, nil
}
