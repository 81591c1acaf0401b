package models

// ChecksumResult is the materialized output of one checksum query execution:
// the relation's row count plus one value per generated aggregate field.
// Immutable after construction; a field that was never produced reads as
// null.
type ChecksumResult struct {
	rowCount int64
	fields   map[string]Value
}

func NewChecksumResult(rowCount int64, fields map[string]Value) *ChecksumResult {
	copied := make(map[string]Value, len(fields))
	for name, value := range fields {
		copied[name] = value
	}
	return &ChecksumResult{rowCount: rowCount, fields: copied}
}

func (r *ChecksumResult) RowCount() int64 {
	return r.rowCount
}

// Field returns the named value, or null when the field is absent. Partial
// result sets are tolerated here; the detector treats the null like any
// other null.
func (r *ChecksumResult) Field(name string) Value {
	return r.fields[name]
}

// FieldCount returns the number of populated fields.
func (r *ChecksumResult) FieldCount() int {
	return len(r.fields)
}

// ColumnMatchResult is the verdict for one leaf (sub-)column. Message is
// empty when matched and otherwise renders the control and test values that
// differed.
type ColumnMatchResult struct {
	Matched bool    `json:"matched" yaml:"matched"`
	Column  *Column `json:"-" yaml:"-"`
	Message string  `json:"message" yaml:"message"`
}

// VerificationReport is the outcome of one verification run.
type VerificationReport struct {
	RunID           string                        `json:"runId" yaml:"runId"`
	Table           string                        `json:"table" yaml:"table"`
	ControlRowCount int64                         `json:"controlRowCount" yaml:"controlRowCount"`
	TestRowCount    int64                         `json:"testRowCount" yaml:"testRowCount"`
	Mismatches      map[string]*ColumnMatchResult `json:"mismatches" yaml:"mismatches"`
}

// Matched reports whether the run verified cleanly: equal row counts and no
// mismatched columns.
func (r *VerificationReport) Matched() bool {
	return r.ControlRowCount == r.TestRowCount && len(r.Mismatches) == 0
}
