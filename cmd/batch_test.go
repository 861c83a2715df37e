// cmd/batch_test.go - Tests for batch command helpers
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/valpere/boundary_staticmap/internal/batch"
	"github.com/valpere/boundary_staticmap/internal/boundary"
)

func TestSplitCodes(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"31,32,33", []string{"31", "32", "33"}},
		{" 31 , ,32,", []string{"31", "32"}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := splitCodes(tt.input); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("splitCodes(%q): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestReadCodesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.txt")
	content := "# regencies of Jakarta\n3171\n\n 3172 \n3173\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	codes, err := readCodesFile(path)
	if err != nil {
		t.Fatalf("readCodesFile: %v", err)
	}
	if expected := []string{"3171", "3172", "3173"}; !reflect.DeepEqual(codes, expected) {
		t.Errorf("Expected %v, got %v", expected, codes)
	}

	if _, err := readCodesFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestPrintSummary(t *testing.T) {
	req, _ := boundary.NewRequest("regency", "3172")
	summary := &batch.Summary{
		Progress: batch.Progress{Total: 2, Processed: 2, Succeeded: 1, Failed: 1},
		Duration: 1500 * time.Millisecond,
		Stages:   map[string]int{"high_quality": 1},
		Results: []*batch.ItemResult{
			{},
			{Item: batch.Item{Request: req}, Error: "boundary not found"},
		},
	}

	var text bytes.Buffer
	if err := printSummary(&text, summary, "text"); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	for _, want := range []string{"failed:", "stage high_quality:", "FAILED regency/3172:", "boundary not found"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("Expected text summary to contain %q, got:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := printSummary(&js, summary, "json"); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	if !strings.Contains(js.String(), `"failed": 1`) {
		t.Errorf("Expected JSON summary, got %s", js.String())
	}
}

func TestConsoleProgressReporter(t *testing.T) {
	var out bytes.Buffer
	reporter := newConsoleProgressReporter(&out)

	reporter.ReportProgress(batch.Progress{Total: 10, Processed: 5, StartTime: time.Now().Add(-5 * time.Second)})
	if !strings.Contains(out.String(), "5/10 areas") || !strings.Contains(out.String(), "ETA 5s") {
		t.Errorf("Expected progress with an ETA, got %q", out.String())
	}

	// Updates within a second are dropped
	reporter.ReportProgress(batch.Progress{Total: 10, Processed: 6, StartTime: time.Now().Add(-6 * time.Second)})
	if strings.Contains(out.String(), "6/10") {
		t.Errorf("Expected rate-limited update, got %q", out.String())
	}
}
