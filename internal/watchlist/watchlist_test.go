package watchlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rewired-gh/stakewatch/internal/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "coin,duration\nBTC,30\neth,60D\nDOT,\nbtc,30\n")

	keys, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := []models.ProductKey{
		models.NewProductKey("btc", "30"),
		models.NewProductKey("eth", "60d"),
		models.NewProductKey("dot", "flexible"),
		models.NewProductKey("btc", "30"),
	}
	if len(keys) != len(expected) {
		t.Fatalf("Expected %d keys, got %d: %v", len(expected), len(keys), keys)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("keys[%d] = %v, expected %v", i, keys[i], expected[i])
		}
	}
}

func TestParse_HeaderVariants(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.ProductKey
	}{
		{
			name:    "reordered and extra columns",
			content: "note,Duration,Coin\nmain,90,AXS\n",
			want:    []models.ProductKey{models.NewProductKey("axs", "90")},
		},
		{
			name:    "byte order mark",
			content: "\ufeffcoin,duration\nsol,\n",
			want:    []models.ProductKey{models.NewProductKey("sol", "flexible")},
		},
		{
			name:    "blank rows skipped",
			content: "coin,duration\n\n,\nada,120\n",
			want:    []models.ProductKey{models.NewProductKey("ada", "120")},
		},
		{
			name:    "header only",
			content: "coin,duration\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, expected %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{"empty file", "", 0},
		{"missing duration column", "coin\nbtc\n", 1},
		{"missing coin value", "coin,duration\nbtc,30\n,60\n", 3},
		{"bad quoting", "coin,duration\nbt\"c,30\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			_, err := Load(path)

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Expected *LoadError, got %T: %v", err, err)
			}
			if loadErr.Path != path {
				t.Errorf("Expected path %s, got %s", path, loadErr.Path)
			}
			if loadErr.Line != tt.wantLine {
				t.Errorf("Expected line %d, got %d (%v)", tt.wantLine, loadErr.Line, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := File{Path: filepath.Join(t.TempDir(), "nope.csv")}.Load()

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *LoadError, got %T: %v", err, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}
