package docs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveDoc(t *testing.T, serverURL, version string) OpenAPISpec {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(serverURL, version)(rec, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc OpenAPISpec
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	return doc
}

func TestHandler_ValidDocument(t *testing.T) {
	doc := serveDoc(t, "https://nippou.example.com", "1.4.0")

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Nippou API", doc.Info.Title)
	assert.Equal(t, "1.4.0", doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://nippou.example.com", doc.Servers[0].URL)
}

func TestHandler_Defaults(t *testing.T) {
	doc := serveDoc(t, "", "")

	assert.Equal(t, "http://localhost:8080", doc.Servers[0].URL)
	assert.Equal(t, "dev", doc.Info.Version)
}

func TestDocument_ContainsEndpoints(t *testing.T) {
	doc := Document("", "")

	want := map[string][]string{
		"/api/auth/register":           {http.MethodPost},
		"/api/auth/verify":             {http.MethodGet},
		"/api/auth/login":              {http.MethodPost},
		"/api/auth/me":                 {http.MethodGet},
		"/api/auth/logout":             {http.MethodPost},
		"/api/auth/forgot-password":    {http.MethodPost},
		"/api/auth/verify-reset-token": {http.MethodGet},
		"/api/auth/reset-password":     {http.MethodPost},
		"/api/reports":                 {http.MethodGet, http.MethodPost},
		"/api/reports/{id}":            {http.MethodPut, http.MethodDelete},
	}
	for path, methods := range want {
		item, ok := doc.Paths[path]
		require.True(t, ok, "missing path %s", path)
		for _, m := range methods {
			assert.NotNil(t, item.Operation(m), "missing %s %s", m, path)
		}
	}
}

func TestDocument_SchemaRefsResolve(t *testing.T) {
	doc := Document("", "")
	prefix := "#/components/schemas/"

	check := func(where string, s *Schema) {
		if s == nil || s.Ref == "" {
			return
		}
		name := s.Ref[len(prefix):]
		assert.Contains(t, doc.Components.Schemas, name, "%s refers to unknown schema %s", where, name)
	}

	for path, item := range doc.Paths {
		for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
			op := item.Operation(m)
			if op == nil {
				continue
			}
			if op.RequestBody != nil {
				check(m+" "+path, op.RequestBody.Content["application/json"].Schema)
			}
			for code, resp := range op.Responses {
				if mt, ok := resp.Content["application/json"]; ok {
					check(m+" "+path+" "+code, mt.Schema)
					check(m+" "+path+" "+code, mt.Schema.Items)
				}
			}
		}
	}
}

func TestDocument_ReportAndErrorSchemas(t *testing.T) {
	doc := Document("", "")

	report := doc.Components.Schemas["Report"]
	require.NotNil(t, report)
	assert.Equal(t, []string{"content"}, report.Required)
	for _, f := range []string{"id", "userId", "userName", "team", "date", "tags", "content"} {
		assert.Contains(t, report.Properties, f)
	}

	user := doc.Components.Schemas["UserResponse"]
	require.NotNil(t, user)
	assert.NotContains(t, user.Properties, "password")
	assert.NotContains(t, user.Properties, "passwordHash")

	envelope := doc.Components.Schemas["ErrorResponse"]
	require.NotNil(t, envelope)
	inner := envelope.Properties["error"]
	require.NotNil(t, inner)
	assert.ElementsMatch(t, []string{"code", "message", "meta", "request_id"}, keys(inner.Properties))

	me := doc.Paths["/api/auth/me"].Get
	require.NotNil(t, me)
	require.Len(t, me.Security, 1)
	assert.Contains(t, me.Security[0], "cookieAuth")
	assert.Equal(t, "auth_token", doc.Components.SecuritySchemes["cookieAuth"].Name)
}

func keys(m map[string]*Schema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
