// Package caseregistry persists the authoritative case/auction-date
// registry produced by the calendar sweep and consumed by filing
// acquisition. Cases are keyed by (case_number, borough); sightings
// refresh the mutable fields in place and rows are never deleted.
package caseregistry

import (
	"context"
	"database/sql"

	"auctionwatch-backend/internal/civil"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

import _ "embed"

//go:embed schema.sql
var Schema string

type Case struct {
	CaseNumber  string
	Borough     string
	AuctionDate civil.Date
	CaseName    string
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open prepares a local registry database with the schema applied and the
// WAL journal enabled.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec("PRAGMA journal_mode = WAL"); err != nil {
		database.Close()
		return nil, err
	}
	if _, err := database.Exec(Schema); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// a case sighted without a known auction date persists as ""
func dateString(d civil.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

const upsertQuery = `
INSERT INTO cases (case_number, borough, auction_date, case_name)
VALUES (?, ?, ?, ?)
ON CONFLICT (case_number, borough) DO UPDATE SET
    auction_date = excluded.auction_date,
    case_name = excluded.case_name
`

// Upsert inserts a newly sighted case or refreshes the auction date and
// name of a known one.
func (s Store) Upsert(ctx context.Context, c Case) error {
	_, err := s.db.ExecContext(ctx, upsertQuery,
		c.CaseNumber, c.Borough, dateString(c.AuctionDate), c.CaseName)
	return err
}

// Merge upserts a batch of sightings inside one transaction.
func (s Store) Merge(ctx context.Context, cases []Case) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range cases {
		_, err := tx.ExecContext(ctx, upsertQuery,
			c.CaseNumber, c.Borough, dateString(c.AuctionDate), c.CaseName)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns the whole registry ordered by auction date.
func (s Store) List(ctx context.Context) ([]Case, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_number, borough, auction_date, case_name
		FROM cases
		ORDER BY auction_date, borough, case_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		var c Case
		var auctionDate string
		if err := rows.Scan(&c.CaseNumber, &c.Borough, &auctionDate, &c.CaseName); err != nil {
			return nil, err
		}
		if auctionDate != "" {
			c.AuctionDate, err = civil.Parse(auctionDate)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
