package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
	"github.com/aretw0/policydesk/pkg/registry"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, assertions.RegisterDefaults(reg, ports.StaticLocator{}, nil, nil))
	return reg
}

func TestValidatePolicy(t *testing.T) {
	reg := newRegistry(t)

	valid := assertions.NewTree(&assertions.All{Items: []domain.Assertion{
		&assertions.AddHeader{Name: "X-Trace", Operation: "add"},
		&assertions.Include{PolicyName: "shared", Items: []domain.Assertion{&assertions.HTTPRouting{URL: "https://svc"}}},
	}})
	assert.NoError(t, ValidatePolicy(reg, valid))

	broken := assertions.NewTree(&assertions.All{Items: []domain.Assertion{
		&assertions.AddHeader{Operation: "add"},
		&assertions.Include{},
		&assertions.OneOrMore{},
	}})
	err := ValidatePolicy(reg, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 3 errors")
	assert.Contains(t, err.Error(), "0.0 (add-header): header name is empty")
	assert.Contains(t, err.Error(), "0.1 (include): include has no policy name")
	assert.Contains(t, err.Error(), "0.2 (one-or-more): composite has no children")
}

func TestValidatePolicy_UnregisteredKind(t *testing.T) {
	reg := registry.NewRegistry()
	err := ValidatePolicy(reg, assertions.NewTree(&assertions.All{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion kind 'all'")
}

func TestValidateWizard(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
title: Header
steps:
  - id: one
    fields:
      - name: name
        label: Name
`), 0o644))
	assert.NoError(t, ValidateWizard(good))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
title: Header
steps:
  - id: one
    advance_when: "name =="
`), 0o644))
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, ValidateWizard(bad), &cfgErr)
}
