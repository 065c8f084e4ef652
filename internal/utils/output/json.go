package output

import (
	"encoding/json"
	"io"

	"github.com/law-makers/scavenger/pkg/models"
)

// WriteJSON writes scraps as an indented JSON array.
func WriteJSON(w io.Writer, scraps []models.Scrap) error {
	if scraps == nil {
		scraps = []models.Scrap{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(scraps)
}
