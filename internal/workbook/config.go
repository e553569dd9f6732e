package workbook

import "github.com/xuri/excelize/v2"

// Config holds the workbook-opening options fixed at startup.
//
// It is a plain value: pass it by value, never mutate a shared copy. There
// is no process-wide workbook state.
type Config struct {
	// Password opens encrypted workbooks. Empty for none.
	Password string `json:"password,omitempty"`

	// UnzipSizeLimit and UnzipXMLSizeLimit cap decompression, in bytes.
	// Zero keeps the excelize defaults.
	UnzipSizeLimit    int64 `json:"unzip_size_limit,omitempty"`
	UnzipXMLSizeLimit int64 `json:"unzip_xml_size_limit,omitempty"`

	// ShortDatePattern overrides how date-formatted cells render as text
	// (e.g. "yyyy-mm-dd"). Empty keeps the workbook's own number format.
	ShortDatePattern string `json:"short_date_pattern,omitempty"`
}

// options converts c into excelize options. RawCellValue is always false:
// extraction works on displayed text.
func (c Config) options() excelize.Options {
	return excelize.Options{
		Password:          c.Password,
		UnzipSizeLimit:    c.UnzipSizeLimit,
		UnzipXMLSizeLimit: c.UnzipXMLSizeLimit,
		ShortDatePattern:  c.ShortDatePattern,
	}
}
