package server

import (
	"net/http"

	"github.com/desertthunder/ytmp/internal/docs"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// endpoints converts the route table for the docs generator.
func (s *Server) endpoints() []docs.Endpoint {
	var out []docs.Endpoint
	for _, h := range s.areas {
		for _, route := range h.Routes() {
			out = append(out, docs.Endpoint{
				Method:  route.Method,
				Path:    route.Pattern,
				Summary: route.Summary,
				Tag:     h.Tag(),
			})
		}
	}
	return out
}

// mountDocs serves Swagger UI at /docs/ and the generated document at /docs/doc.json.
func (s *Server) mountDocs(r *ChiRouter) {
	if err := docs.Register(s.version, s.endpoints()); err != nil {
		s.logger.Warn("failed to build api docs", "error", err)
		return
	}
	r.Handle(http.MethodGet, "/docs", http.RedirectHandler("/docs/", http.StatusMovedPermanently))
	r.Handle(http.MethodGet, "/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))
}
