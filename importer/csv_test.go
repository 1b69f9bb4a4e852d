package importer

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	csvData := `athlete_id,discipline,round,station,thrown,hit,stations,notes,final
12,Skeet,1,0,25,23,3/4;4/4;2/2;4/4;3/4;2/2;2/2;3/3,,true
13,skeet,1,0,25,25,,"perfect, straight",false

14,skeet,2,,25,20,,,`

	rows, err := ParseCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.AthleteID != 12 || first.Discipline != "skeet" || first.Round != 1 || first.Thrown != 25 || first.Hit != 23 || !first.Final {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if len(first.Stations) != 8 {
		t.Fatalf("expected 8 stations, got %d", len(first.Stations))
	}
	if s := first.Stations[7]; s.Station != 8 || s.Hit != 3 || s.Thrown != 3 {
		t.Fatalf("unexpected station 8: %+v", s)
	}

	if rows[1].Notes != "perfect, straight" || rows[1].Final {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Line != 5 || rows[2].Station != 0 || rows[2].Round != 2 {
		t.Fatalf("unexpected third row: %+v", rows[2])
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name       string
		csvData    string
		wantErr    error
		wantLine   int
		wantColumn string
	}{
		{
			name:    "header only",
			csvData: "athlete_id,discipline,round,thrown,hit\n",
			wantErr: ErrNoRows,
		},
		{
			name:    "missing column",
			csvData: "athlete_id,discipline,round,thrown\n1,trap,1,25\n",
			wantErr: ErrMissingColumn,
		},
		{
			name:       "bad number",
			csvData:    "athlete_id,discipline,round,thrown,hit\n1,trap,1,25,23\n2,trap,one,25,20\n",
			wantLine:   3,
			wantColumn: "round",
		},
		{
			name:       "bad station pair",
			csvData:    "athlete_id,discipline,round,thrown,hit,stations\n1,trap,1,25,23,5-5\n",
			wantLine:   2,
			wantColumn: "stations",
		},
		{
			name:       "empty discipline",
			csvData:    "athlete_id,discipline,round,thrown,hit\n1,,1,25,23\n",
			wantLine:   2,
			wantColumn: "discipline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.csvData))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %T: %v", err, err)
			}
			if pe.Line != tt.wantLine || pe.Column != tt.wantColumn {
				t.Fatalf("expected line %d column %s, got line %d column %s", tt.wantLine, tt.wantColumn, pe.Line, pe.Column)
			}
		})
	}
}
