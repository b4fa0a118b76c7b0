// Package outwriter renders analyses, history and graphs as text, JSON or CSV.
package outwriter

import (
	"os"

	"github.com/huangsam/archflow/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableTextWidth calculates the maximum width of free-text columns such
// as descriptions, based on terminal width and the fixed table columns.
func GetMaxTableTextWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Feature + Confidence/Priority + Label with borders/padding
	baseWidth := 60

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}
