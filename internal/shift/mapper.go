package shift

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fleetline/rosterwatch/internal/logger"
)

// Mapper converts raw shift payloads (CSV sheet export or JSON records)
// into a normalized Map.
type Mapper struct {
	layout Layout
	logger logger.Logger
}

func NewMapper(layout Layout, log logger.Logger) *Mapper {
	return &Mapper{layout: layout, logger: log}
}

// MapPayload builds a Map from a raw shifts payload, sniffing the source
// mode: a JSON array of records or raw CSV text.
func (m *Mapper) MapPayload(body []byte) (Map, error) {
	if looksLikeJSON(body) {
		return m.mapJSON(body)
	}
	return m.mapCSV(ParseCSV(string(body))), nil
}

// mapCSV applies the configured layout to parsed sheet rows. Rows without
// a license are skipped; duplicate licenses resolve last-seen-wins.
func (m *Mapper) mapCSV(rows [][]string) Map {
	sm := make(Map, len(rows))

	for i, row := range rows {
		if i < m.layout.SkipRows {
			continue
		}

		license := NormalizeLicense(cell(row, m.layout.LicenseCol))
		if license == "" {
			continue
		}

		var roles []string
		for _, rc := range m.layout.RoleCols {
			if isMember(cell(row, rc.Col)) {
				roles = append(roles, rc.Role)
			}
		}

		if _, dup := sm[license]; dup {
			m.logger.Debug("duplicate license in shift sheet, last row wins",
				logger.String("license", license),
				logger.Int("row", i+1))
		}

		sm[license] = Assignment{
			License: license,
			ICName:  orPlaceholder(cell(row, m.layout.NameCol)),
			Role:    joinedOrPlaceholder(roles),
		}
	}

	return sm
}

// jsonRecord mirrors the tabular API's record shape. Role is either a
// string or a list of role tags.
type jsonRecord struct {
	License string          `json:"License"`
	ICName  string          `json:"IC Name"`
	Role    json.RawMessage `json:"Role"`
}

// mapJSON projects JSON records field-by-field with trim-and-default
// semantics.
func (m *Mapper) mapJSON(body []byte) (Map, error) {
	var records []jsonRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("malformed shift records: %w", err)
	}

	sm := make(Map, len(records))
	for i, rec := range records {
		license := NormalizeLicense(rec.License)
		if license == "" {
			continue
		}

		if _, dup := sm[license]; dup {
			m.logger.Debug("duplicate license in shift records, last record wins",
				logger.String("license", license),
				logger.Int("record", i+1))
		}

		sm[license] = Assignment{
			License: license,
			ICName:  orPlaceholder(rec.ICName),
			Role:    roleField(rec.Role),
		}
	}

	return sm, nil
}

// roleField accepts a bare string or a list of tags joined with the
// role separator.
func roleField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return Placeholder
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return orPlaceholder(one)
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		trimmed := make([]string, 0, len(many))
		for _, r := range many {
			if r = strings.TrimSpace(r); r != "" {
				trimmed = append(trimmed, r)
			}
		}
		return joinedOrPlaceholder(trimmed)
	}

	return Placeholder
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{')
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// isMember treats any non-empty cell as membership, except explicit
// negative markers the sheet uses for empty slots.
func isMember(v string) bool {
	switch strings.ToLower(v) {
	case "", Placeholder, "no", "0", "false":
		return false
	}
	return true
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Placeholder
	}
	return s
}

func joinedOrPlaceholder(roles []string) string {
	if len(roles) == 0 {
		return Placeholder
	}
	return strings.Join(roles, RoleSeparator)
}
