// Package reviews holds the review record and the logic that zips per-field
// match sequences into records.
package reviews

import "reviewetl/internal/config"

// Placeholders substituted when an optional field runs out of matches.
const (
	Unavailable = "unavailable"
	NotVerified = "not verified"
)

// Review is one extracted customer review. It is built once by Align and
// never mutated afterwards.
type Review struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Comment  string `json:"comment"`
	Rating   string `json:"rating"`
	Date     string `json:"date"`
	Verified string `json:"verified"`
}

// Values returns the fields in export column order (config.AllFields).
func (r Review) Values() []string {
	return []string{r.Name, r.Title, r.Comment, r.Rating, r.Date, r.Verified}
}

// Map returns the review keyed by logical field name.
func (r Review) Map() map[string]string {
	vals := r.Values()
	out := make(map[string]string, len(vals))
	for i, f := range config.AllFields {
		out[f] = vals[i]
	}
	return out
}

// sentinel returns the placeholder for an optional field.
func sentinel(field string) string {
	if field == config.FieldVerified {
		return NotVerified
	}
	return Unavailable
}
