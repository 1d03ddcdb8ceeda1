package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/registry"
)

// ValidatePolicy walks the tree and reports unregistered kinds, unnamed
// includes, empty composites and leaves missing their key field.
func ValidatePolicy(reg *registry.Registry, tree *assertions.Tree) error {
	var errors []string
	report := func(n *assertions.TreeNode, format string, args ...any) {
		errors = append(errors, fmt.Sprintf("%s (%s): %s", n.Path(), n.Assertion().Kind(), fmt.Sprintf(format, args...)))
	}

	tree.Walk(func(n *assertions.TreeNode) bool {
		if _, err := reg.Lookup(n.Assertion().Kind()); err != nil {
			report(n, "%v", err)
		}

		switch a := n.Assertion().(type) {
		case *assertions.Include:
			if strings.TrimSpace(a.PolicyName) == "" {
				report(n, "include has no policy name")
			}
		case *assertions.AddHeader:
			if a.Name == "" {
				report(n, "header name is empty")
			}
		case *assertions.HTTPRouting:
			if a.URL == "" {
				report(n, "routing URL is empty")
			}
		case *assertions.IdentityConstraint:
			if a.Identity == "" {
				report(n, "identity is empty")
			}
		default:
			if n.IsComposite() && len(n.Children()) == 0 && n.Parent() != nil {
				report(n, "composite has no children")
			}
		}
		return true
	})

	return joined(errors)
}

// ValidateWizard compiles the wizard definition at path, including its
// guard expressions.
func ValidateWizard(path string) error {
	b, err := dsl.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := b.Build(); err != nil {
		return err
	}
	return nil
}

func joined(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
}
