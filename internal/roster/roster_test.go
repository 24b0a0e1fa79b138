package roster

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/andresmejia3/facenroll/internal/types"
	"github.com/xuri/excelize/v2"
)

func TestEnsureDirectoryIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Data")

	for i := 0; i < 2; i++ {
		if err := EnsureDirectory(dir); err != nil {
			t.Fatalf("EnsureDirectory call %d failed: %v", i+1, err)
		}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("Expected directory at %s: %v", dir, err)
	}
}

func TestAppendRecordKeepsDuplicates(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), DefaultLogPath)
	rec := types.EnrollmentRecord{ID: "12", Name: "ada", Branch: "cse"}

	// Same person enrolled twice
	for i := 0; i < 2; i++ {
		if err := AppendRecord(rec, logPath); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := "12 ada cse\n12 ada cse\n"; string(data) != want {
		t.Errorf("log = %q, want %q", data, want)
	}
}

func TestReadAll(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), DefaultLogPath)
	content := "12 ada cse\n\n7 alan computer science\n99\n"
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadAll(logPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []types.EnrollmentRecord{
		{ID: "12", Name: "ada", Branch: "cse"},
		{ID: "7", Name: "alan", Branch: "computer science"},
		{ID: "99"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadAll() = %+v, want %+v", got, want)
	}
}

func TestReadAllMissingLog(t *testing.T) {
	got, err := ReadAll(filepath.Join(t.TempDir(), "nope.txt"))
	if err != nil || len(got) != 0 {
		t.Errorf("Expected empty roster, got %v, %v", got, err)
	}
}

func TestImageCount(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1_1.jpg", "1_2.jpg", "1_x.jpg", "12_1.jpg", "1_3.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := ImageCount(dir, "1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("ImageCount() = %d, want 2", n)
	}
}

func TestImageCountUnusualIDs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"4[2_1.jpg", "4[2_2.jpg", "4*_1.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		id   string
		want int
	}{
		{"4[2", 2},
		{"4*", 1},
		{"4?", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n, err := ImageCount(dir, tt.id)
			if err != nil {
				t.Fatalf("ImageCount(%q) failed: %v", tt.id, err)
			}
			if n != tt.want {
				t.Errorf("ImageCount(%q) = %d, want %d", tt.id, n, tt.want)
			}
		})
	}

	if n, err := ImageCount(filepath.Join(dir, "missing"), "1"); err != nil || n != 0 {
		t.Errorf("Expected 0 images for a missing directory, got %d, %v", n, err)
	}
}

func TestExportXLSX(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, DefaultDataDir)
	if err := EnsureDirectory(dataDir); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dataDir, "12_1.jpg"), nil, 0644)

	out := filepath.Join(dir, "roster.xlsx")
	records := []types.EnrollmentRecord{
		{ID: "12", Name: "ada", Branch: "cse"},
		{ID: "7", Name: "alan", Branch: "ece"},
	}
	if err := ExportXLSX(records, dataDir, out); err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"ID", "Name", "Branch", "Images"},
		{"12", "ada", "cse", "1"},
		{"7", "alan", "ece", "0"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}
