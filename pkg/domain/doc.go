/*
Package domain contains the core domain models of the policydesk console.

It defines the entities shared by the wizard engine, the property editors and
the action resolver. This package is kept pure and free of I/O, following the
same hexagonal split as the rest of the module: adapters live elsewhere and
talk to the core through the interfaces in package ports.

# Key Entities

  - Settings: the mutable bag shared by all steps of one wizard run.
  - Assertion: a policy configuration bean edited by a property editor.
  - Node: a visual policy tree node wrapping an Assertion.
  - Action: an operation offered on a Node (context menu / default action).
  - ValidationError, ConfigurationError, LookupError: the error taxonomy.
*/
package domain
