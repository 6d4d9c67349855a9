package caseregistry

import (
	"path/filepath"
	"testing"
	"time"

	"auctionwatch-backend/internal/civil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMergeCases(t *testing.T) {
	existing := []Case{
		{CaseNumber: "1/2024", Borough: "Queens", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 1}, CaseName: "Bank v. Smith"},
		{CaseNumber: "2/2024", Borough: "Bronx", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 5}},
	}
	sightings := []Case{
		// recalendared
		{CaseNumber: "1/2024", Borough: "Queens", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 15}, CaseName: "Bank v. Smith"},
		// new
		{CaseNumber: "3/2024", Borough: "Brooklyn", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 8}},
	}

	got := MergeCases(existing, sightings)
	want := []Case{
		{CaseNumber: "1/2024", Borough: "Queens", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 15}, CaseName: "Bank v. Smith"},
		{CaseNumber: "2/2024", Borough: "Bronx", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 5}},
		{CaseNumber: "3/2024", Borough: "Brooklyn", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 8}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged cases mismatch (-want +got):\n%s", diff)
	}

	// the input slice is untouched
	require.Equal(t, "2025-03-01", existing[0].AuctionDate.String())
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")

	cases := []Case{
		{CaseNumber: "1/2024", Borough: "Queens", AuctionDate: civil.Date{Year: 2025, Month: time.March, Day: 1}, CaseName: "Bank v. Smith"},
		{CaseNumber: "2/2024", Borough: "Staten Island"},
	}
	require.NoError(t, WriteCSV(path, cases))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, cases[0], got[0])
	require.True(t, got[1].AuctionDate.IsZero())
}
