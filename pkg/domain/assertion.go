package domain

// Kind identifies an assertion variant (e.g. "add-header", "all").
// It is the key of the metadata registry.
type Kind string

// Assertion is one policy configuration unit, edited through a property editor.
// Assertions are owned by the policy tree; editors only borrow them.
type Assertion interface {
	Kind() Kind
}

// Composite is an Assertion that groups child assertions.
type Composite interface {
	Assertion
	Children() []Assertion
}

// Node is the visual tree node representing an Assertion.
type Node interface {
	// Assertion returns the bound domain object.
	Assertion() Assertion

	// IsComposite reports whether the node groups children.
	IsComposite() bool

	// IsDescendantOfInclude reports whether the node lives inside an
	// included policy fragment, where structural edits are not allowed.
	IsDescendantOfInclude() bool

	// Path is a stable, human-readable position such as "0.2.1".
	Path() string
}
