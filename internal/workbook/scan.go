package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// lockPrefix marks the owner/lock files Office writes next to open workbooks.
const lockPrefix = "~$"

// ScanDir lists the .xlsx workbooks directly inside dir, sorted by name.
//
// Subdirectories are not visited. Lock files ("~$Book.xlsx") are skipped.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsWorkbookName(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// IsWorkbookName reports whether a file name looks like a workbook this
// package processes.
func IsWorkbookName(name string) bool {
	if strings.HasPrefix(name, lockPrefix) {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}
