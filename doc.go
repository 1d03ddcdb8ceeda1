/*
Package policydesk is the headless core of a policy administration console.

It bundles three pieces behind one Console:

  - a wizard engine that walks a fixed chain of steps over a shared
    settings bag (package wizard, with declarative steps in package dsl);
  - a property-editor contract run inside a modal session (package editor);
  - a metadata-driven resolver that composes the actions offered on each
    node of a policy tree (packages actions and registry).

Rendering is left to hosts. The repository ships three: a line-oriented
terminal runner (package runner), an HTTP API (package adapters/http) and an
MCP tool server (package adapters/mcp).

# Usage

	console, err := policydesk.New(
		policydesk.WithServiceLocator(ports.StaticLocator{ConnectionNames: []string{"backend"}}),
	)
	if err != nil {
		log.Fatal(err)
	}

	tree := assertions.NewTree(policy)
	node, _ := tree.Find("0.1")

	for _, action := range console.Actions(node) {
		fmt.Println(action.Name)
	}

	session, err := console.Edit(ctx, node, false)
	if err != nil {
		log.Fatal(err)
	}
	_ = session.SetField("url", "https://backend.internal")
	ok, err := session.Confirm(ctx)
*/
package policydesk
