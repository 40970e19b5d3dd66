package reviews

import (
	"fmt"
	"io"
)

// Print writes each review as a fixed six-line block followed by a blank line.
func Print(w io.Writer, rs []Review) error {
	for _, r := range rs {
		if _, err := fmt.Fprintf(w,
			"Profile name: %s\nReview title: %s\nReview text: %s\nRating: %s\nDate: %s\nVerified purchase: %s\n\n",
			r.Name, r.Title, r.Comment, r.Rating, r.Date, r.Verified,
		); err != nil {
			return fmt.Errorf("print review: %w", err)
		}
	}
	return nil
}
