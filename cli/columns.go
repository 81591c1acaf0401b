package cli

import (
	"fmt"
	"os"

	yamlLib "gopkg.in/yaml.v3"

	"go.verisql.io/verifier/pkg/models"
	"go.verisql.io/verifier/pkg/types"
)

// ColumnSpec is one entry of the columns file: the column name and its type
// signature as reported by the source catalog.
type ColumnSpec struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

type columnsFile struct {
	Columns []ColumnSpec `yaml:"columns" json:"columns"`
}

// LoadColumns reads the columns file and resolves every entry into a typed
// column referencing its own identifier.
func LoadColumns(path string) ([]*models.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns file: %w", err)
	}
	var file columnsFile
	if err := yamlLib.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse columns file: %w", err)
	}
	if len(file.Columns) == 0 {
		return nil, fmt.Errorf("columns file %s lists no columns", path)
	}
	columns := make([]*models.Column, 0, len(file.Columns))
	for _, spec := range file.Columns {
		t, err := types.Parse(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", spec.Name, err)
		}
		col, err := models.NewIdentifierColumn(spec.Name, t)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, nil
}
