package reftable

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names a capacity CSV must carry in its header row. Column order
// is free; unknown columns are ignored.
var requiredColumns = []string{
	"joint_type", "section", "species", "grade",
	"allowable_moment", "allowable_shear", "rotational_stiffness",
}

// ParseCSV reads capacity rows from CSV data. The first row is the
// header. The peg_config column is optional and defaults to "none".
func ParseCSV(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reftable: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("reftable: missing column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reftable: line %d: %w", line, err)
		}

		row := Row{
			JointType: field(record, col, "joint_type"),
			Section:   field(record, col, "section"),
			Species:   field(record, col, "species"),
			Grade:     field(record, col, "grade"),
			PegConfig: field(record, col, "peg_config"),
		}
		if row.PegConfig == "" {
			row.PegConfig = "none"
		}
		if row.JointType == "" {
			return nil, fmt.Errorf("reftable: line %d: empty joint_type", line)
		}

		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"allowable_moment", &row.AllowableMoment},
			{"allowable_shear", &row.AllowableShear},
			{"rotational_stiffness", &row.RotationalStiffness},
		} {
			v, err := strconv.ParseFloat(field(record, col, f.name), 64)
			if err != nil {
				return nil, fmt.Errorf("reftable: line %d: %s: %w", line, f.name, err)
			}
			*f.dst = v
		}

		rows = append(rows, row)
	}
	return rows, nil
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
