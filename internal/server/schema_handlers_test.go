package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialdesk-dev/trialdesk/internal/models"
)

func (ts *testServer) createProject(token, name string) ProjectResponse {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/project", token, CreateProjectRequest{Name: name})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[ProjectResponse](ts.t, w)
}

func TestSchemas(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser("user@example.com", models.RoleUser)
	project := ts.createProject(token, "Extraction")
	base := "/api/project/" + project.ID

	w := ts.do(http.MethodPost, base+"/schema", token, CreateSchemaRequest{
		Name:       "invoice",
		Definition: json.RawMessage(`{"type":"object","properties":{"total":{"type":"number"}}}`),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	schema := decode[SchemaResponse](t, w)
	assert.Equal(t, project.ID, schema.ProjectID)
	assert.JSONEq(t, `{"type":"object","properties":{"total":{"type":"number"}}}`, string(schema.Definition))

	w = ts.do(http.MethodPost, base+"/schema", token, CreateSchemaRequest{Name: "invoice", Definition: json.RawMessage(`{}`)})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(http.MethodGet, base+"/schemas", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]SchemaResponse](t, w), 1)

	w = ts.do(http.MethodGet, base+"/schema/"+schema.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invoice", decode[SchemaResponse](t, w).Name)

	w = ts.do(http.MethodDelete, base+"/schema/"+schema.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, base+"/schema/"+schema.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchemas_DefinitionMustBeObject(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser("user@example.com", models.RoleUser)
	project := ts.createProject(token, "Extraction")

	for _, def := range []string{`[1,2]`, `"text"`, `null`} {
		w := ts.do(http.MethodPost, "/api/project/"+project.ID+"/schema", token, CreateSchemaRequest{
			Name:       "bad",
			Definition: json.RawMessage(def),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, def)
	}

	w := ts.do(http.MethodPost, "/api/project/"+project.ID+"/schema", token, map[string]string{"name": "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocuments(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.createUser("user@example.com", models.RoleUser)
	project := ts.createProject(token, "Corpus")
	base := "/api/project/" + project.ID

	w := ts.do(http.MethodPost, base+"/documents", token, CreateDocumentRequest{
		Name:     "report.txt",
		Text:     "quarterly numbers",
		Metadata: json.RawMessage(`{"pages":3}`),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[DocumentResponse](t, w)

	w = ts.do(http.MethodPost, base+"/documents", token, CreateDocumentRequest{
		Name:     "bad.txt",
		Text:     "x",
		Metadata: json.RawMessage(`[1]`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, base+"/documents", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]DocumentResponse](t, w)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Text)
	assert.JSONEq(t, `{"pages":3}`, string(list[0].Metadata))

	w = ts.do(http.MethodGet, base+"/document/"+doc.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quarterly numbers", decode[DocumentResponse](t, w).Text)

	w = ts.do(http.MethodGet, base+"/document/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchemasAndDocuments_OwnerScoping(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.createUser("alice@example.com", models.RoleUser)
	_, bob := ts.createUser("bob@example.com", models.RoleUser)
	project := ts.createProject(alice, "Private")
	base := "/api/project/" + project.ID

	for _, path := range []string{base + "/schemas", base + "/documents"} {
		w := ts.do(http.MethodGet, path, bob, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = ts.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
