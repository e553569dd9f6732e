package pipeline

import (
	"path/filepath"
	"strings"

	"sheetetl/internal/schema"
)

// Destination returns where the store for the workbook at path goes.
//
// For "sqlite" it is <dir>/<basename>.db next to the workbook. Server
// backends take a schema name: the UpperCamel form of the basename.
func Destination(kind, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if kind == "sqlite" {
		return filepath.Join(filepath.Dir(path), base+".db")
	}
	return schema.UpperCamel(base)
}
