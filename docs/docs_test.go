package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type response struct {
	Schema struct {
		Ref string `json:"$ref"`
	} `json:"schema"`
}

type operation struct {
	Responses map[string]response `json:"responses"`
}

type document struct {
	Info struct {
		Title string `json:"title"`
	} `json:"info"`
	Paths       map[string]map[string]operation `json:"paths"`
	Definitions map[string]json.RawMessage      `json:"definitions"`
}

func readDocument(t *testing.T) document {
	t.Helper()
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestDocument_Routes(t *testing.T) {
	doc := readDocument(t)
	assert.Equal(t, "DevEvents API", doc.Info.Title)

	routes := map[string][]string{
		"/api/events":                {"get", "post", "delete"},
		"/api/events/{id}":           {"patch"},
		"/api/events/{slug}":         {"get"},
		"/api/events/{slug}/similar": {"get"},
		"/api/bookings":              {"post"},
		"/healthz":                   {"get"},
	}
	require.Len(t, doc.Paths, len(routes))
	for path, methods := range routes {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
	assert.Contains(t, doc.Paths["/api/events"]["post"].Responses, "413")
	assert.Contains(t, doc.Paths["/api/bookings"]["post"].Responses, "422")
}

func TestDocument_RefsResolve(t *testing.T) {
	doc := readDocument(t)
	for path, ops := range doc.Paths {
		for method, op := range ops {
			for code, resp := range op.Responses {
				if resp.Schema.Ref == "" {
					continue
				}
				name := resp.Schema.Ref[len("#/definitions/"):]
				assert.Contains(t, doc.Definitions, name, "%s %s %s", method, path, code)
			}
		}
	}
}
