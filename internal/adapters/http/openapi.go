package httpadapter

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	apiRouterOnce sync.Once
	apiRouter     routers.Router
	apiRouterErr  error
)

func loadAPIRouter() (routers.Router, error) {
	apiRouterOnce.Do(func() {
		loader := &openapi3.Loader{Context: context.Background()}
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			apiRouterErr = fmt.Errorf("load openapi spec: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			apiRouterErr = fmt.Errorf("validate openapi spec: %w", err)
			return
		}
		apiRouter, apiRouterErr = legacyrouter.NewRouter(doc)
	})
	return apiRouter, apiRouterErr
}

// requestValidationMiddleware rejects bodies that do not satisfy the embedded
// OpenAPI contract before they reach the handlers. Routes absent from the
// spec pass through untouched.
func requestValidationMiddleware(next http.Handler) http.Handler {
	router, err := loadAPIRouter()
	if err != nil {
		slog.Error("openapi_spec_unavailable", "error", err)
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
