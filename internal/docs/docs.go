// Package docs builds the Swagger 2.0 document served under /docs from the server's route table
// and registers it with swag so http-swagger can serve it.
package docs

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/swaggo/swag"
)

// Title of the generated document.
const Title = "YouTube Music API Proxy"

const description = "REST proxy over the unofficial YouTube Music API. " +
	"Failures are classified and returned as {\"detail\": {...}} with a Retry-After header when a retry is worthwhile."

// Endpoint is one documented route.
type Endpoint struct {
	Method  string
	Path    string
	Summary string
	Tag     string
}

var pathParam = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Build renders the endpoints as a Swagger 2.0 JSON document.
func Build(version string, endpoints []Endpoint) ([]byte, error) {
	paths := map[string]map[string]any{}
	tags := map[string]bool{}

	for _, e := range endpoints {
		ops, ok := paths[e.Path]
		if !ok {
			ops = map[string]any{}
			paths[e.Path] = ops
		}
		if e.Tag != "" {
			tags[e.Tag] = true
		}
		ops[strings.ToLower(e.Method)] = operation(e)
	}

	names := make([]string, 0, len(tags))
	for t := range tags {
		names = append(names, t)
	}
	sort.Strings(names)
	tagList := make([]map[string]string, 0, len(names))
	for _, t := range names {
		tagList = append(tagList, map[string]string{"name": t})
	}

	doc := map[string]any{
		"swagger": "2.0",
		"info": map[string]any{
			"title":       Title,
			"description": description,
			"version":     version,
		},
		"basePath": "/",
		"produces": []string{"application/json"},
		"tags":     tagList,
		"paths":    paths,
		"definitions": map[string]any{
			"ErrorDetail": map[string]any{
				"type":     "object",
				"required": []string{"error", "message"},
				"properties": map[string]any{
					"error":             map[string]string{"type": "string"},
					"message":           map[string]string{"type": "string"},
					"operation":         map[string]string{"type": "string"},
					"identifier":        map[string]string{"type": "string"},
					"solution":          map[string]string{"type": "string"},
					"technical_details": map[string]string{"type": "string"},
					"recommendation":    map[string]string{"type": "string"},
					"retry_after":       map[string]string{"type": "string"},
				},
			},
			"ErrorResponse": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"detail": map[string]string{"$ref": "#/definitions/ErrorDetail"},
				},
			},
		},
	}
	return json.Marshal(doc)
}

func operation(e Endpoint) map[string]any {
	params := []map[string]any{}
	for _, m := range pathParam.FindAllStringSubmatch(e.Path, -1) {
		params = append(params, map[string]any{
			"name":     m[1],
			"in":       "path",
			"required": true,
			"type":     "string",
		})
	}
	if e.Method == http.MethodPost || e.Method == http.MethodPatch || e.Method == http.MethodDelete {
		params = append(params, map[string]any{
			"name":     "body",
			"in":       "body",
			"required": false,
			"schema":   map[string]string{"type": "object"},
		})
	}

	op := map[string]any{
		"summary":    e.Summary,
		"parameters": params,
		"responses": map[string]any{
			"200":     map[string]string{"description": "OK"},
			"default": map[string]any{"description": "Classified failure", "schema": map[string]string{"$ref": "#/definitions/ErrorResponse"}},
		},
	}
	if e.Tag != "" {
		op["tags"] = []string{e.Tag}
	}
	return op
}

// document is the registered swag instance. Servers built later replace its content.
type document struct {
	mu  sync.RWMutex
	doc string
}

func (d *document) ReadDoc() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

var (
	current  = &document{}
	register sync.Once
)

// Register builds the document and serves it as the default swag instance.
func Register(version string, endpoints []Endpoint) error {
	doc, err := Build(version, endpoints)
	if err != nil {
		return err
	}
	current.mu.Lock()
	current.doc = string(doc)
	current.mu.Unlock()

	register.Do(func() { swag.Register(swag.Name, current) })
	return nil
}
