package domain

import "strings"

// SplitAuthors splits a joined author field into trimmed, non-empty names.
// " Alice ; ;Bob" yields [Alice Bob].
func SplitAuthors(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	parts := strings.Split(field, AuthorSeparator)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SplitAuthorIDs splits a joined author id field, keeping empty slots so the
// ids stay aligned with the author names. "7; ;9" yields [7  9].
func SplitAuthorIDs(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	ids := strings.Split(field, AuthorSeparator)
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	return ids
}

// JoinAuthors joins names with AuthorSeparator.
func JoinAuthors(names []string) string {
	return strings.Join(names, AuthorSeparator)
}

// FormatAuthorName renders a detail-endpoint author as "Last, First".
// It returns "" when both parts are blank.
func FormatAuthorName(firstName, lastName string) string {
	name := strings.TrimSpace(strings.TrimSpace(lastName) + ", " + strings.TrimSpace(firstName))
	if name == "," {
		return ""
	}
	return name
}
