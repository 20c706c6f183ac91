package shift

import "strings"

// RoleSeparator joins the role tags of one assignment ("Shift-1 • Staff").
const RoleSeparator = " • "

// Placeholder is displayed for fields the shift sheet does not provide.
const Placeholder = "-"

// Assignment is one license's duty assignment as read from the shift sheet.
type Assignment struct {
	License string `json:"license"` // normalized (trimmed, lower-case)
	ICName  string `json:"icName"`
	Role    string `json:"role"` // role tags joined with RoleSeparator
}

// Map indexes assignments by normalized license. It is always built fresh
// and replaced wholesale, never mutated incrementally.
type Map map[string]Assignment

// NormalizeLicense makes license lookups deterministic regardless of
// upstream casing or padding.
func NormalizeLicense(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Roles splits a joined role field into its tags.
func Roles(role string) []string {
	if role == "" || role == Placeholder {
		return nil
	}
	parts := strings.Split(role, RoleSeparator)
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}
