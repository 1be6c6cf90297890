package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

// statusClientClosedRequest mirrors nginx's non-standard 499: the caller
// cancelled before the pipeline finished.
const statusClientClosedRequest = 499

func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrEmbedding):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrInvalidConfig):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
