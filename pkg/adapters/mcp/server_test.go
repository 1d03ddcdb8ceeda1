package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/session"
	"github.com/aretw0/policydesk/pkg/wizard"
)

const policy = `{"kind":"all","children":[{"kind":"add-header","data":{"name":"X-A","operation":"add"}},{"kind":"http-routing","data":{"url":"https://svc"}}]}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	console, err := policydesk.New()
	require.NoError(t, err)
	return NewServer(console, session.NewManager(), nil)
}

func TestListKinds(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.handleListKinds(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)

	var names []string
	for _, k := range resp.Kinds {
		names = append(names, k.Kind)
	}
	assert.Contains(t, names, "add-header")
	assert.Contains(t, names, "include")
}

func TestResolveAndInvoke(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleResolveActions(ctx, mcp.CallToolRequest{}, PolicyArgs{Policy: policy, Path: "0.1"})
	require.NoError(t, err)
	assert.Equal(t, "0.1", resp.Path)
	require.NotEmpty(t, resp.Actions)
	assert.Equal(t, "properties", resp.Actions[0].ID)
	assert.Equal(t, "HTTP Routing Properties", resp.Actions[0].Name)

	edited, err := s.handleInvokeAction(ctx, mcp.CallToolRequest{}, PolicyArgs{Policy: policy, Path: "0.1", Action: "move-up"})
	require.NoError(t, err)
	assert.Contains(t, string(edited.Policy), `"children":[{"kind":"http-routing"`)

	_, err = s.handleInvokeAction(ctx, mcp.CallToolRequest{}, PolicyArgs{Policy: policy, Path: "0", Action: "explode"})
	assert.Error(t, err)

	_, err = s.handleResolveActions(ctx, mcp.CallToolRequest{}, PolicyArgs{Policy: policy, Path: "0.5"})
	assert.ErrorIs(t, err, domain.ErrAssertionNotFound)
}

func TestWizardTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	view, err := s.handleStartWizard(ctx, req, WizardArgs{Definition: `
title: Rename
steps:
  - id: one
    fields:
      - name: name
        label: Name
        required: true
`})
	require.NoError(t, err)
	assert.Equal(t, "Rename", view.Title)
	id := view.ID

	view, err = s.handleTransition(ctx, req, WizardArgs{ID: id, Action: "next"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusActive, view.Status)
	require.Len(t, view.Notifications, 1)

	view, err = s.handleTransition(ctx, req, WizardArgs{ID: id, Action: "help"})
	require.NoError(t, err)
	require.NotNil(t, view.Help)
	assert.Equal(t, "one", view.Help.Topic)

	_, err = s.handleInput(ctx, req, WizardArgs{ID: id, Values: `{"name":"gateway"}`})
	require.NoError(t, err)

	_, err = s.handleInput(ctx, req, WizardArgs{ID: id, Values: `not json`})
	assert.Error(t, err)

	view, err = s.handleTransition(ctx, req, WizardArgs{ID: id, Action: "finish"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusFinished, view.Status)
	assert.Equal(t, "gateway", view.Settings["name"])

	_, err = s.handleTransition(ctx, req, WizardArgs{ID: id, Action: "next"})
	assert.ErrorIs(t, err, domain.ErrWizardTerminated)

	_, err = s.handleGetWizard(ctx, req, WizardArgs{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
