package shift

import "strings"

// ParseCSV is a quote-aware comma parser for the shift sheet export.
//
// Guarantees:
//   - quoted fields may contain commas, newlines and doubled quotes
//     ("" inside quotes yields a literal ")
//   - \r\n terminators are handled: the \r is discarded, never a field break
//   - a trailing unterminated record (no final newline) is still emitted
//   - the row count equals the number of newline-delimited records
func ParseCSV(raw string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(raw) && raw[i+1] == '"' {
					field.WriteByte('"') // escaped quote
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\n':
			endRow()
		case '\r':
			// discarded, the following \n terminates the record
		default:
			field.WriteByte(ch)
		}
	}

	// Trailing record without a final newline.
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}
