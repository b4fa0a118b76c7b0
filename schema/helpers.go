package schema

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// ExportFilename returns the PNG file name for a project graph. Ids that are
// empty or would form a path fall back to "project".
func ExportFilename(projectID string) string {
	if !isPlainName(projectID) {
		projectID = "project"
	}
	return fmt.Sprintf("workflow-graph-%s.png", projectID)
}

// isPlainName reports whether s can be used as a single path element.
func isPlainName(s string) bool {
	if strings.TrimSpace(s) == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return false
	}
	return filepath.Base(s) == s
}

// WorkflowName extracts a display name from an opaque workflow suggestion.
// Plain strings are returned as-is; objects yield their "name" or "id" field.
func WorkflowName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Name != "" {
		return obj.Name
	}
	return obj.ID
}

// UnmarshalJSON reads a priority case-insensitively, so "High" is HighPriority.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = Priority(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// PriorityRank orders priorities from most to least urgent. Unknown values sort last.
func PriorityRank(p Priority) int {
	switch p {
	case UrgentPriority:
		return 0
	case HighPriority:
		return 1
	case MediumPriority:
		return 2
	case LowPriority:
		return 3
	default:
		return 4
	}
}

// JoinOrDash joins values with a comma, or returns "-" when empty.
func JoinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
