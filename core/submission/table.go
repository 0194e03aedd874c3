package submission

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/kaushal/core/export"
)

// Table flattens records into an export table: fixed columns, then one "<step>.<field>" column
// per leaf value found in any payload, in step order.
func Table(title string, records []Record) export.Table {
	fixed := []string{"id", "flow", "draft_key", "submitted_at"}

	var dynamic []string
	seen := make(map[string]struct{})
	flat := make([]map[string]string, len(records))
	for i, rec := range records {
		flat[i] = make(map[string]string)
		for _, st := range rec.Payload.Steps {
			var cols []string
			flatten(st.ID, map[string]interface{}(st.State), flat[i], &cols)
			sort.Strings(cols)
			for _, c := range cols {
				if _, ok := seen[c]; !ok {
					seen[c] = struct{}{}
					dynamic = append(dynamic, c)
				}
			}
		}
	}

	table := export.Table{Title: title, Columns: append(fixed, dynamic...)}
	for i, rec := range records {
		row := []string{rec.ID.String(), rec.Flow, rec.DraftKey, rec.SubmittedAt.UTC().Format(time.RFC3339)}
		for _, c := range dynamic {
			row = append(row, flat[i][c])
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func flatten(prefix string, v interface{}, out map[string]string, cols *[]string) {
	if obj, ok := v.(map[string]interface{}); ok {
		for k, vv := range obj {
			flatten(prefix+"."+k, vv, out, cols)
		}
		return
	}
	out[prefix] = cell(v)
	*cols = append(*cols, prefix)
}

func cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if strings.HasPrefix(val, "data:") {
			return "[attachment]"
		}
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []interface{}:
		data, _ := json.Marshal(val)
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
