package ports

import (
	"context"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// PassageSearcher is the inbound contract for hybrid passage retrieval.
type PassageSearcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}
