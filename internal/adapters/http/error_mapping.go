package httpadapter

import (
	"net/http"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrStageTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
