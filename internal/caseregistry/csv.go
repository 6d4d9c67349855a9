package caseregistry

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"auctionwatch-backend/internal/civil"
)

// The registry's flat-file flavor: web/foreclosures/cases.csv with the
// same upsert-by-key semantics applied in memory before rewrite.

var csvHeader = []string{"case_number", "borough", "auction_date", "case_name"}

func ReadCSV(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []Case
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == csvHeader[0] {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("row %d: want at least 3 fields, got %d", i+1, len(rec))
		}
		c := Case{CaseNumber: rec[0], Borough: rec[1]}
		if rec[2] != "" {
			c.AuctionDate, err = civil.Parse(rec[2])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		if len(rec) > 3 {
			c.CaseName = rec[3]
		}
		out = append(out, c)
	}
	return out, nil
}

func WriteCSV(path string, cases []Case) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range cases {
		err := writer.Write([]string{c.CaseNumber, c.Borough, dateString(c.AuctionDate), c.CaseName})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

type key struct {
	caseNumber string
	borough    string
}

// MergeCases applies sightings onto rows with upsert semantics: known
// keys get auction_date/case_name refreshed in place (order preserved),
// unseen keys are appended.
func MergeCases(rows []Case, sightings []Case) []Case {
	index := make(map[key]int, len(rows))
	for i, c := range rows {
		index[key{c.CaseNumber, c.Borough}] = i
	}

	out := make([]Case, len(rows))
	copy(out, rows)
	for _, s := range sightings {
		if i, ok := index[key{s.CaseNumber, s.Borough}]; ok {
			out[i].AuctionDate = s.AuctionDate
			out[i].CaseName = s.CaseName
			continue
		}
		index[key{s.CaseNumber, s.Borough}] = len(out)
		out = append(out, s)
	}
	return out
}

// ImportCSV rebuilds the dashboard-facing sqlite registry from the CSV
// flavor, upserting every row in one transaction.
func ImportCSV(ctx context.Context, store Store, csvPath string) (int, error) {
	rows, err := ReadCSV(csvPath)
	if err != nil {
		return 0, err
	}
	if err := store.Merge(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
