package view_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/view"
	_ "github.com/haulboard/haulboard/testing"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/login.html", view.TemplateData{Title: "Sign in"})
	require.NoError(t, err)
	assert.Contains(t, res.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, res.Body.String(), "<form")
}

func TestRenderUnknownTemplateFails(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/missing.html", view.TemplateData{})
	assert.Error(t, err)
}

func TestRenderDefaultsCanToDeny(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	// The clients list template gates its "New client" button behind Can.
	// Rendering without a Can func must behave like a role with no grants.
	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/clients/list.html", view.TemplateData{
		Title: "Clients",
		Data: map[string]any{
			"Clients": nil,
			"Filters": shared.ListFilters{},
			"Total":   0,
			"Errors":  map[string]string{},
		},
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(res.Body.String(), "New client"))
}
