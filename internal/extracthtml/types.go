package extracthtml

// FieldMatches maps a logical field name to the trimmed text of every element
// its selector matched, in document order. A field whose selector matched
// nothing maps to an empty (possibly nil) slice.
type FieldMatches map[string][]string

// Count returns the number of matches for field.
func (m FieldMatches) Count(field string) int { return len(m[field]) }
