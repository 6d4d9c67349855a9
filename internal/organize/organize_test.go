package organize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"auctionwatch-backend/internal/civil"
	"auctionwatch-backend/internal/docstore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	noticeDir := filepath.Join(root, "noticeofsale")

	writeFile(t, filepath.Join(noticeDir, "11111-2020.pdf"), "dated")
	writeFile(t, filepath.Join(noticeDir, "22222-2020.pdf"), "undated")
	writeFile(t, filepath.Join(noticeDir, "33333-2020.pdf"), "dated")
	// a copy already sorted into the partition
	writeFile(t, filepath.Join(noticeDir, "2025-03-15", "33333-2020.pdf"), "sorted earlier")
	// already-partitioned files and strays are not swept
	writeFile(t, filepath.Join(noticeDir, "notes.txt"), "not a pdf")
	writeFile(t, filepath.Join(root, "surplusmoney", "44444-2020.pdf"), "other filing type")

	texts := map[string]string{
		"11111-2020.pdf": "sale on the 15th day of March, 2025 at 2:30 PM",
		"22222-2020.pdf": "no usable date in here",
		"33333-2020.pdf": "sale on the 15th day of March, 2025 at 2:30 PM",
	}
	organizer := Organizer{
		Store: docstore.Store{Root: root},
		Extract: func(ctx context.Context, path string) string {
			return texts[filepath.Base(path)]
		},
	}

	results, err := organizer.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	march15 := civil.Date{Year: 2025, Month: time.March, Day: 15}
	want := []FileResult{
		{Name: "11111-2020.pdf", Status: StatusMoved, AuctionDate: march15},
		{Name: "22222-2020.pdf", Status: StatusSkipped},
		{Name: "33333-2020.pdf", Status: StatusDuplicate, AuctionDate: march15},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	require.FileExists(t, filepath.Join(noticeDir, "2025-03-15", "11111-2020.pdf"))
	require.NoFileExists(t, filepath.Join(noticeDir, "11111-2020.pdf"))

	// undated file stays flat for manual review
	require.FileExists(t, filepath.Join(noticeDir, "22222-2020.pdf"))

	// duplicate removed, the earlier sorted copy untouched
	require.NoFileExists(t, filepath.Join(noticeDir, "33333-2020.pdf"))
	content, err := os.ReadFile(filepath.Join(noticeDir, "2025-03-15", "33333-2020.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "sorted earlier", string(content))
}

func TestRunMissingDirectory(t *testing.T) {
	organizer := New(docstore.Store{Root: t.TempDir()})
	results, err := organizer.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)
}
