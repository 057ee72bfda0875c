// Package universe loads the static ticker list a screen runs over.
package universe

import (
	"fmt"
	"os"
	"strings"
)

// Load reads ticker symbols from a plain text file. Symbols may be
// separated by newlines or commas; a single-column CSV with a "Ticker" or
// "Symbol" header also works. Symbols are trimmed, upper-cased and
// de-duplicated with the first occurrence winning, preserving file order.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}

	seen := make(map[string]struct{})
	symbols := make([]string, 0, 128)

	for _, line := range strings.Split(string(data), "\n") {
		for _, field := range strings.Split(line, ",") {
			sym := strings.ToUpper(strings.TrimSpace(field))
			if sym == "" || sym == "TICKER" || sym == "SYMBOL" {
				continue
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			symbols = append(symbols, sym)
		}
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe file %s contains no symbols", path)
	}

	return symbols, nil
}
