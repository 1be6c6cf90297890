package usecase

import (
	"fmt"
	"strings"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

const maxContextEntities = 5

// buildContextText renders the ranked results into the grounding text fed
// to downstream generation: one block per result with a source label, the
// chunk text, and up to five related entities.
func buildContextText(results []domain.FusedResult) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}

		label := r.Metadata.Filename
		if label == "" {
			label = r.DocumentID
		}
		fmt.Fprintf(&b, "[Source %d: %s, chunk %d]\n", i+1, label, r.ChunkIndex)
		b.WriteString(strings.TrimSpace(r.Text))

		if len(r.RelatedEntities) > 0 {
			entities := r.RelatedEntities
			if len(entities) > maxContextEntities {
				entities = entities[:maxContextEntities]
			}
			fmt.Fprintf(&b, "\nRelated entities: %s", strings.Join(entities, ", "))
		}
	}
	return b.String()
}
