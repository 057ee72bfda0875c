package universe

import (
	"os"
	"path/filepath"
	"testing"
)

func writeUniverseFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constituents.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write universe file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "newline separated",
			content: "AAPL\nMSFT\nGOOG\n",
			want:    []string{"AAPL", "MSFT", "GOOG"},
		},
		{
			name:    "comma separated",
			content: "AAPL,MSFT,GOOG",
			want:    []string{"AAPL", "MSFT", "GOOG"},
		},
		{
			name:    "csv with header",
			content: "Ticker\nAAPL\nMSFT\n",
			want:    []string{"AAPL", "MSFT"},
		},
		{
			name:    "duplicates and case",
			content: "aapl\nAAPL\nmsft\n",
			want:    []string{"AAPL", "MSFT"},
		},
		{
			name:    "blank lines and spaces",
			content: " AAPL \n\n MSFT\n",
			want:    []string{"AAPL", "MSFT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeUniverseFile(t, tt.content)
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	path := writeUniverseFile(t, "\n,\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for empty universe")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
