package ebml

import "fmt"

// formatID renders an element ID (marker bit included) the way this
// package's String()/Summary() methods and log messages print it.
func formatID(id uint32) string {
	return fmt.Sprintf("0x%X", id)
}
