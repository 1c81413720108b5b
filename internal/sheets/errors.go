package sheets

import "fmt"

// WriteError is a spreadsheet write that failed with the retry budget spent.
// There is no partial-write recovery; the failure aborts the run.
type WriteError struct {
	SpreadsheetID string
	Range         string
	Err           error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s in spreadsheet %s: %v", e.Range, e.SpreadsheetID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
