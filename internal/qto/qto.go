// Package qto loads quantity-takeoff files and validates their rows before
// anything downstream sees them. The calculator assumes positive quantities
// and non-empty descriptions and units; this package is where that contract
// is enforced. Problem rows are collected and reported, never silently
// dropped and never fatal for the rest of the file.
package qto

import "fmt"

// ValidationIssue describes one problem found in a takeoff row. Row numbers
// are 1-based spreadsheet rows, so the first data row under the header is
// row 2.
type ValidationIssue struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("row %d, %s: %s", v.Row, v.Field, v.Message)
}

func issue(row int, field, message string) ValidationIssue {
	return ValidationIssue{Row: row, Field: field, Message: message}
}
