package reviews

import "reviewetl/internal/config"

// Align zips per-field match sequences into reviews.
//
// The count is n = min(len(name), len(title), len(comment)). If any required
// sequence is empty the result is empty: partial required data produces no
// records at all rather than records with blank required fields.
//
// Optional fields degrade per index: review i takes fields[f][i] when the
// sequence is long enough and the field's placeholder otherwise. Missing keys
// behave like empty sequences.
//
// Only sequence length gates the result. Empty strings inside a required
// sequence are accepted as-is, and nothing is reordered or deduplicated.
func Align(fields map[string][]string) []Review {
	n := -1
	for _, f := range config.RequiredFields {
		l := len(fields[f])
		if n < 0 || l < n {
			n = l
		}
	}
	if n <= 0 {
		return []Review{}
	}

	out := make([]Review, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Review{
			Name:     fields[config.FieldName][i],
			Title:    fields[config.FieldTitle][i],
			Comment:  fields[config.FieldComment][i],
			Rating:   optionalAt(fields, config.FieldRating, i),
			Date:     optionalAt(fields, config.FieldDate, i),
			Verified: optionalAt(fields, config.FieldVerified, i),
		})
	}
	return out
}

func optionalAt(fields map[string][]string, field string, i int) string {
	seq := fields[field]
	if i < len(seq) {
		return seq[i]
	}
	return sentinel(field)
}
