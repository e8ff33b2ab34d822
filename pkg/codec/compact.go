// Package codec packs retrieval preview rows into a compact tabular payload
// before they are attached to the reply prompt. Column names are hoisted into
// a single header and repeated string values are interned into a dictionary,
// which matters because task rows share facility names, assignees and status
// labels almost every time.
package codec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metrics reports how much the packed payload saved against plain JSON rows.
type Metrics struct {
	RawSize        int     `json:"raw_size"`
	CompressedSize int     `json:"compressed_size"`
	ReductionPct   float64 `json:"reduction_pct"`
}

type payload struct {
	Fields []string        `json:"fields"`
	Dict   []string        `json:"dict,omitempty"`
	Rows   [][]interface{} `json:"rows"`
}

// minInternLen keeps the dictionary from filling up with strings shorter than
// their own reference.
const minInternLen = 4

// Encode packs rows into the compact payload. Field order is the sorted union
// of all row keys so the output is deterministic.
func Encode(rows []map[string]interface{}) (string, Metrics, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return "", Metrics{}, fmt.Errorf("marshal raw rows: %w", err)
	}

	fieldSet := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			fieldSet[k] = true
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for k := range fieldSet {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	// First pass: count string occurrences eligible for interning.
	counts := map[string]int{}
	for _, row := range rows {
		for _, f := range fields {
			if s, ok := row[f].(string); ok && len(s) >= minInternLen {
				counts[s]++
			}
		}
	}
	repeated := make([]string, 0)
	for s, n := range counts {
		if n >= 2 {
			repeated = append(repeated, s)
		}
	}
	sort.Strings(repeated)
	dictIndex := make(map[string]int, len(repeated))
	for i, s := range repeated {
		dictIndex[s] = i
	}

	p := payload{
		Fields: fields,
		Dict:   repeated,
		Rows:   make([][]interface{}, len(rows)),
	}
	for i, row := range rows {
		packed := make([]interface{}, len(fields))
		for j, f := range fields {
			v, ok := row[f]
			if !ok {
				packed[j] = nil
				continue
			}
			if s, isStr := v.(string); isStr {
				if idx, interned := dictIndex[s]; interned {
					packed[j] = fmt.Sprintf("~%d", idx)
					continue
				}
				if strings.HasPrefix(s, "~") {
					packed[j] = "~" + s
					continue
				}
			}
			packed[j] = v
		}
		p.Rows[i] = packed
	}

	out, err := json.Marshal(p)
	if err != nil {
		return "", Metrics{}, fmt.Errorf("marshal packed payload: %w", err)
	}

	m := Metrics{
		RawSize:        len(raw),
		CompressedSize: len(out),
	}
	if m.RawSize > 0 {
		m.ReductionPct = 100 * float64(m.RawSize-m.CompressedSize) / float64(m.RawSize)
	}
	return string(out), m, nil
}

// Decode restores the original rows from a packed payload.
func Decode(packed string) ([]map[string]interface{}, error) {
	var p payload
	if err := json.Unmarshal([]byte(packed), &p); err != nil {
		return nil, fmt.Errorf("unmarshal packed payload: %w", err)
	}

	rows := make([]map[string]interface{}, len(p.Rows))
	for i, packedRow := range p.Rows {
		if len(packedRow) != len(p.Fields) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(packedRow), len(p.Fields))
		}
		row := make(map[string]interface{}, len(p.Fields))
		for j, f := range p.Fields {
			v := packedRow[j]
			if v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && strings.HasPrefix(s, "~") {
				if strings.HasPrefix(s, "~~") {
					row[f] = s[1:]
					continue
				}
				var idx int
				if _, err := fmt.Sscanf(s, "~%d", &idx); err != nil || idx < 0 || idx >= len(p.Dict) {
					return nil, fmt.Errorf("row %d field %q: bad dictionary reference %q", i, f, s)
				}
				row[f] = p.Dict[idx]
				continue
			}
			row[f] = v
		}
		rows[i] = row
	}
	return rows, nil
}
