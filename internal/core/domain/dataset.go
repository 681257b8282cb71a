package domain

// Row is one output row of a topic dataset. Dims holds the varying
// dimension columns (including date); Indicator and Value are always present.
type Row struct {
	Dims      map[string]string
	Indicator string
	Value     float64
}

// Dataset is one topic-partitioned output table. Columns lists the schema
// in order: varying dimension columns, then "indicator", then "value".
type Dataset struct {
	ID      string
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the schema contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// DatasetMetadata describes a published dataset.
type DatasetMetadata struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	ColumnDescriptions map[string]string `json:"column_descriptions"`
	RunID              string            `json:"run_id,omitempty"`
}
