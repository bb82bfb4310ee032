package common

import (
	"fmt"
	"strings"
)

// NormalizeTicker uppercases and trims a ticker symbol, validating it
// against the character set FMP accepts (letters, digits, '.', '-').
// Class shares like "BRK.B" and hyphenated symbols are allowed.
func NormalizeTicker(symbol string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(symbol))
	if ticker == "" {
		return "", fmt.Errorf("ticker symbol is empty")
	}
	if len(ticker) > 10 {
		return "", fmt.Errorf("ticker symbol %q exceeds 10 characters", ticker)
	}
	for _, r := range ticker {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return "", fmt.Errorf("ticker symbol %q contains invalid character %q", ticker, r)
		}
	}
	if ticker[0] == '.' || ticker[0] == '-' {
		return "", fmt.Errorf("ticker symbol %q must start with a letter or digit", ticker)
	}
	return ticker, nil
}
