// Package watchlist loads the user-edited CSV files naming the products to track.
//
// A watchlist file has a header row with at least the columns "coin" and
// "duration". An empty duration means the flexible product:
//
//	coin,duration
//	BTC,30
//	DOT,
package watchlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rewired-gh/stakewatch/internal/models"
)

// LoadError reports an unreadable or malformed watchlist file.
type LoadError struct {
	Path string
	Line int // zero when the error is not tied to a row
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("watchlist %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("watchlist %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the watchlist at path. Entries are returned in file order and
// are not deduplicated.
func Load(path string) ([]models.ProductKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	keys, err := Parse(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return keys, nil
}

// Parse reads watchlist rows from r.
func Parse(r io.Reader) ([]models.ProductKey, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, &LoadError{Line: 1, Err: err}
	}

	coinCol, durationCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "coin":
			coinCol = i
		case "duration":
			durationCol = i
		}
	}
	if coinCol < 0 || durationCol < 0 {
		return nil, &LoadError{Line: 1, Err: errors.New(`header must contain "coin" and "duration" columns`)}
	}

	var keys []models.ProductKey
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			le := &LoadError{Err: err}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				le.Line = pe.Line
			}
			return nil, le
		}
		line, _ := reader.FieldPos(0)

		coin := field(record, coinCol)
		if coin == "" {
			if isBlank(record) {
				continue
			}
			return nil, &LoadError{Line: line, Err: errors.New("coin is required")}
		}
		keys = append(keys, models.NewProductKey(coin, field(record, durationCol)))
	}
	return keys, nil
}

func field(record []string, col int) string {
	if col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// File binds a watchlist path for repeated loading.
type File struct {
	Path string
}

// Load re-reads the file.
func (f File) Load() ([]models.ProductKey, error) {
	return Load(f.Path)
}
