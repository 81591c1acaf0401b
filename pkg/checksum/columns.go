package checksum

import (
	"fmt"

	"go.verisql.io/verifier/pkg/models"
	"go.verisql.io/verifier/pkg/query"
)

// expandRowColumn decomposes a row column into one synthetic sub-column per
// member field: named fields dereference by name and join with "$", anonymous
// fields subscript by 1-based position and join with "$$col<n>". The builder
// and the detector expand through this one function so their field sets stay
// identical.
func expandRowColumn(col *models.Column) []*models.Column {
	fields := col.Type.Fields()
	subs := make([]*models.Column, 0, len(fields))
	for i, field := range fields {
		var sub models.Column
		if field.Name != "" {
			sub.Name = col.Name + models.FieldSeparator + field.Name
			sub.Expression = &query.Dereference{Base: col.Expression, Field: field.Name}
		} else {
			sub.Name = fmt.Sprintf("%s%scol%d", col.Name, models.PositionalSeparator, i+1)
			sub.Expression = &query.Subscript{Base: col.Expression, Index: i + 1}
		}
		sub.Type = field.Type
		subs = append(subs, &sub)
	}
	return subs
}

// validateColumns rejects caller-supplied columns whose names use the
// reserved separators, before any field names are generated from them.
func validateColumns(columns []*models.Column) error {
	for _, col := range columns {
		if _, err := models.NewColumn(col.Name, col.Expression, col.Type); err != nil {
			return err
		}
	}
	return nil
}
