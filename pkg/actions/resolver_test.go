package actions_test

import (
	"context"
	"testing"

	"github.com/aretw0/policydesk/pkg/actions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/editor"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kindOnly domain.Kind

func (k kindOnly) Kind() domain.Kind { return domain.Kind(k) }

type fakeNode struct {
	kind      domain.Kind
	composite bool
	included  bool
}

func (n fakeNode) Assertion() domain.Assertion { return kindOnly(n.kind) }
func (n fakeNode) IsComposite() bool           { return n.composite }
func (n fakeNode) IsDescendantOfInclude() bool { return n.included }
func (n fakeNode) Path() string                { return "0" }

func noopFactory(ctx context.Context, obj domain.Assertion, cfg editor.SessionConfig, opts ...editor.SessionOption) (editor.Opener, error) {
	return nil, nil
}

func ids(set []domain.Action) []domain.ActionID {
	out := make([]domain.ActionID, 0, len(set))
	for _, a := range set {
		out = append(out, a.ID)
	}
	return out
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(registry.Descriptor{
		Kind:          "add-header",
		ShortName:     "add header",
		EditorFactory: noopFactory,
	}))
	require.NoError(t, reg.Register(registry.Descriptor{
		Kind:      "all",
		ShortName: "All",
		Composite: true,
		ActionFactory: domain.ActionFactoryFunc(func(node domain.Node) (domain.Action, bool) {
			return domain.Action{ID: "expand", Name: "Expand"}, true
		}),
	}))
	require.NoError(t, reg.Register(registry.Descriptor{Kind: "comment"}))
	reg.Freeze()
	return reg
}

func TestResolve_LeafWithEditor(t *testing.T) {
	r := actions.NewResolver(newRegistry(t))

	set := r.Resolve(fakeNode{kind: "add-header"})

	require.NotEmpty(t, set)
	assert.Equal(t, domain.ActionProperties, set[0].ID)
	assert.Equal(t, "Add Header Properties", set[0].Name)
	assert.Equal(t, "Change the properties of the add header assertion.", set[0].Description)
	assert.Equal(t, []domain.ActionID{
		domain.ActionProperties,
		domain.ActionCut, domain.ActionCopy, domain.ActionPaste, domain.ActionDelete,
		domain.ActionMoveUp, domain.ActionMoveDown, domain.ActionDisable, domain.ActionEnable,
		domain.ActionAddIdentityConstraint,
	}, ids(set))
}

func TestResolve_CompositeDropsIdentityConstraint(t *testing.T) {
	r := actions.NewResolver(newRegistry(t))

	set := r.Resolve(fakeNode{kind: "all", composite: true})

	assert.Equal(t, domain.ActionID("expand"), set[0].ID)
	assert.NotContains(t, ids(set), domain.ActionAddIdentityConstraint)
	assert.Contains(t, ids(set), domain.ActionAddAll)
	assert.Contains(t, ids(set), domain.ActionAddOneOrMore)
}

func TestResolve_NoFactoryNoPreferred(t *testing.T) {
	r := actions.NewResolver(newRegistry(t))

	set := r.Resolve(fakeNode{kind: "comment"})
	assert.Equal(t, domain.ActionCut, set[0].ID)

	_, ok := r.Preferred(fakeNode{kind: "comment"})
	assert.False(t, ok)

	// Unknown kinds still get the base actions.
	set = r.Resolve(fakeNode{kind: "mystery"})
	assert.Equal(t, domain.ActionCut, set[0].ID)
}

func TestResolve_IncludeDescendantIsNotEditable(t *testing.T) {
	r := actions.NewResolver(newRegistry(t))

	set := r.Resolve(fakeNode{kind: "all", composite: true, included: true})

	assert.Equal(t, []domain.ActionID{"expand", domain.ActionCut, domain.ActionCopy, domain.ActionPaste}, ids(set))
}

func TestResolve_FreshSliceEachCall(t *testing.T) {
	r := actions.NewResolver(newRegistry(t))
	node := fakeNode{kind: "add-header"}

	first := r.Resolve(node)
	first[0].Name = "mutated"

	second := r.Resolve(node)
	assert.Equal(t, "Add Header Properties", second[0].Name)
	assert.Len(t, second, 10)
}

func TestResolve_OptionsWireInvokeAndFilters(t *testing.T) {
	var opened []string
	var invoked []domain.ActionID

	r := actions.NewResolver(newRegistry(t),
		actions.WithOpen(func(ctx context.Context, node domain.Node) error {
			opened = append(opened, string(node.Assertion().Kind()))
			return nil
		}),
		actions.WithInvoker(func(ctx context.Context, node domain.Node, id domain.ActionID) error {
			invoked = append(invoked, id)
			return nil
		}),
		actions.WithFilter(func(node domain.Node, a domain.Action) bool {
			return a.ID != domain.ActionPaste
		}),
	)

	set := r.Resolve(fakeNode{kind: "add-header"})
	assert.NotContains(t, ids(set), domain.ActionPaste)

	ctx := context.Background()
	require.NoError(t, set[0].Perform(ctx))
	require.NoError(t, set[1].Perform(ctx))
	assert.Equal(t, []string{"add-header"}, opened)
	assert.Equal(t, []domain.ActionID{domain.ActionCut}, invoked)
}

func TestResolve_CustomBase(t *testing.T) {
	r := actions.NewResolver(newRegistry(t), actions.WithBase(actions.BaseContributorFunc(func(node domain.Node) []domain.Action {
		return []domain.Action{{ID: domain.ActionDelete, Editing: true}, {ID: domain.ActionCopy}}
	})))

	set := r.Resolve(fakeNode{kind: "add-header", included: true})
	assert.Equal(t, []domain.ActionID{domain.ActionProperties, domain.ActionCopy}, ids(set))
}

func TestPropertiesActionName_Override(t *testing.T) {
	d := registry.Descriptor{ShortName: "routing", PropertiesActionName: "Configure Routing", PropertiesActionDesc: "Edit routing."}
	assert.Equal(t, "Configure Routing", actions.PropertiesActionName(d))
	assert.Equal(t, "Edit routing.", actions.PropertiesActionDesc(d))
}

func TestResolve_Localizer(t *testing.T) {
	r := actions.NewResolver(newRegistry(t), actions.WithLocalizer(ports.CatalogLocalizer{
		"Add Header Properties": "Propriétés de l'en-tête",
		"Change the properties of the add header assertion.": "Modifier l'en-tête.",
	}))

	set := r.Resolve(fakeNode{kind: "add-header"})
	require.NotEmpty(t, set)
	assert.Equal(t, domain.ActionProperties, set[0].ID)
	assert.Equal(t, "Propriétés de l'en-tête", set[0].Name)
	assert.Equal(t, "Modifier l'en-tête.", set[0].Description)
}
