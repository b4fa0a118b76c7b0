package iocache

import (
	"fmt"
	"io"

	"github.com/huangsam/archflow/schema"
)

// PrintSlotStatus prints history store status information.
func PrintSlotStatus(w io.Writer, status schema.SlotStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Slots: %d\n", status.TotalSlots)
	if status.TotalSlots > 0 {
		_, _ = fmt.Fprintf(w, "Last Write: %s\n", status.LastWriteTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Write: %s\n", status.OldestWriteTime.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
}
