package policydesk_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/pkg/actions"
	"github.com/aretw0/policydesk/pkg/adapters/memory"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/editor"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePolicy() *assertions.All {
	return &assertions.All{Items: []domain.Assertion{
		&assertions.AddHeader{Name: "X-Trace", Operation: "add"},
		&assertions.HTTPRouting{URL: "https://svc"},
		&assertions.Include{PolicyName: "shared", Items: []domain.Assertion{
			&assertions.AddHeader{Name: "X-Shared", Operation: "add"},
		}},
	}}
}

func TestConsole_Defaults(t *testing.T) {
	console, err := policydesk.New()
	require.NoError(t, err)

	assert.True(t, console.Registry().Frozen())
	assert.Contains(t, console.Registry().Kinds(), assertions.KindHTTPRouting)

	err = console.Registry().Register(registry.Descriptor{Kind: "late"})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestConsole_EditCommitsAndNotifies(t *testing.T) {
	store := memory.NewStore(assertions.JSONCodec{})
	console, err := policydesk.New(
		policydesk.WithStore(store),
		policydesk.WithServiceLocator(ports.StaticLocator{ConnectionNames: []string{"backend"}}),
	)
	require.NoError(t, err)

	var events []*domain.AssertionEvent
	console.Observers().Subscribe(func(ctx context.Context, ev *domain.AssertionEvent) {
		events = append(events, ev)
	})

	tree := assertions.NewTree(samplePolicy())
	node, err := tree.Find("0.1")
	require.NoError(t, err)

	ctx := context.Background()
	session, err := console.Edit(ctx, node, false)
	require.NoError(t, err)
	assert.Equal(t, "HTTP Routing Properties", session.Title())
	assert.False(t, session.ReadOnly())

	require.NoError(t, session.SetField("connection", "backend"))
	ok, err := session.Confirm(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	saved, err := store.Load(ctx, "0.1")
	require.NoError(t, err)
	assert.Equal(t, &assertions.HTTPRouting{URL: "https://svc", Connection: "backend"}, saved)

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventAssertionEdited, events[0].Type)
	assert.Equal(t, "0.1", events[0].Path)
}

func TestConsole_Localizer(t *testing.T) {
	console, err := policydesk.New(policydesk.WithLocalizer(ports.CatalogLocalizer{
		"HTTP Routing Properties": "Routage HTTP",
		"Delete":                  "Supprimer",
	}))
	require.NoError(t, err)

	node, err := assertions.NewTree(samplePolicy()).Find("0.1")
	require.NoError(t, err)

	var names []string
	for _, a := range console.Actions(node) {
		names = append(names, a.Name)
	}
	assert.Equal(t, "Routage HTTP", names[0])
	assert.Contains(t, names, "Supprimer")
	assert.Contains(t, names, "Move Up", "keys without a translation are kept")

	session, err := console.Edit(context.Background(), node, false)
	require.NoError(t, err)
	assert.Equal(t, "Routage HTTP", session.Title())
}

func TestConsole_IncludedNodesOpenReadOnly(t *testing.T) {
	console, err := policydesk.New()
	require.NoError(t, err)

	tree := assertions.NewTree(samplePolicy())
	node, err := tree.Find("0.2.0")
	require.NoError(t, err)

	session, err := console.Edit(context.Background(), node, false)
	require.NoError(t, err)
	assert.True(t, session.ReadOnly())
	assert.False(t, session.ConfirmEnabled())

	composite, err := tree.Find("0")
	require.NoError(t, err)
	_, err = console.Edit(context.Background(), composite, false)
	assert.ErrorContains(t, err, "has no property editor")
}

func TestConsole_PropertiesActionOpensEditor(t *testing.T) {
	var opened []editor.Opener
	tree := assertions.NewTree(samplePolicy())

	console, err := policydesk.New(
		policydesk.WithEditorHandler(func(ctx context.Context, s editor.Opener) error {
			opened = append(opened, s)
			return nil
		}),
		policydesk.WithResolverOptions(actions.WithInvoker(tree.Apply)),
	)
	require.NoError(t, err)

	node, err := tree.Find("0.0")
	require.NoError(t, err)
	set := console.Actions(node)
	require.Equal(t, domain.ActionProperties, set[0].ID)
	assert.Equal(t, "Add Header Properties", set[0].Name)

	require.NoError(t, set[0].Perform(context.Background()))
	require.Len(t, opened, 1)
	assert.Equal(t, assertions.KindAddHeader, opened[0].Kind())
}

func TestConsole_LoadWizard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Add Header
steps:
  - id: header
    fields:
      - name: name
        required: true
`), 0644))

	notes := &ports.RecordingNotifier{}
	console, err := policydesk.New(policydesk.WithNotifier(notes))
	require.NoError(t, err)

	w, err := console.LoadWizard(path)
	require.NoError(t, err)
	assert.Equal(t, "Add Header", w.Title())

	ok, err := w.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	last, found := notes.Last()
	require.True(t, found)
	assert.Equal(t, "name may not be empty", last.Message)
}
