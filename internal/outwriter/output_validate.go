package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
)

// ValidationReport is the outcome of checking one archive.
type ValidationReport struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"media_type"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
}

// NewValidationReport pairs an archive with the result of validating it.
func NewValidationReport(archive schema.Archive, err error) ValidationReport {
	report := ValidationReport{
		Name:      archive.Name,
		Size:      archive.Size,
		MediaType: archive.MediaType,
		Valid:     err == nil,
	}
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			report.Reason = verr.Reason
		} else {
			report.Reason = err.Error()
		}
	}
	return report
}

// WriteValidation outputs a validation report.
func WriteValidation(report ValidationReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"name", "size", "media_type", "valid", "reason"}
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				return csvWriter.Write([]string{
					report.Name,
					strconv.FormatInt(report.Size, 10),
					report.MediaType,
					strconv.FormatBool(report.Valid),
					report.Reason,
				})
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationText(w, report)
		}, "Wrote text")
	}
}

func writeValidationText(w io.Writer, report ValidationReport) error {
	if report.Valid {
		_, err := fmt.Fprintf(w, "✅ %s (%s, %s) is ready for upload\n", report.Name, formatBytes(report.Size), report.MediaType)
		return err
	}
	_, err := fmt.Fprintf(w, "❌ %s: %s\n", report.Name, report.Reason)
	return err
}
