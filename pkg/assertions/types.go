package assertions

import "github.com/aretw0/policydesk/pkg/domain"

// Assertion kinds.
const (
	KindAddHeader          domain.Kind = "add-header"
	KindHTTPRouting        domain.Kind = "http-routing"
	KindIdentityConstraint domain.Kind = "identity-constraint"
	KindAll                domain.Kind = "all"
	KindOneOrMore          domain.Kind = "one-or-more"
	KindInclude            domain.Kind = "include"
)

// Header operations.
const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

// AddHeader adds, replaces or removes an HTTP header.
type AddHeader struct {
	Name      string `json:"name"`
	Value     string `json:"value,omitempty"`
	Operation string `json:"operation"`
}

func (*AddHeader) Kind() domain.Kind { return KindAddHeader }

// HTTPRouting forwards the request to URL through an optional named
// connection. Password names a stored secure password, never the secret.
type HTTPRouting struct {
	URL        string `json:"url"`
	Connection string `json:"connection,omitempty"`
	Password   string `json:"password,omitempty"`
}

func (*HTTPRouting) Kind() domain.Kind { return KindHTTPRouting }

// IdentityConstraint restricts its target to one identity.
type IdentityConstraint struct {
	Identity string `json:"identity"`
}

func (*IdentityConstraint) Kind() domain.Kind { return KindIdentityConstraint }

// MutableComposite is a composite whose children can be replaced.
type MutableComposite interface {
	domain.Composite
	SetChildren(children []domain.Assertion)
}

// All succeeds when every child succeeds.
type All struct {
	Items []domain.Assertion
}

func (*All) Kind() domain.Kind                     { return KindAll }
func (a *All) Children() []domain.Assertion        { return a.Items }
func (a *All) SetChildren(items []domain.Assertion) { a.Items = items }

// OneOrMore succeeds when at least one child succeeds.
type OneOrMore struct {
	Items []domain.Assertion
}

func (*OneOrMore) Kind() domain.Kind                     { return KindOneOrMore }
func (o *OneOrMore) Children() []domain.Assertion        { return o.Items }
func (o *OneOrMore) SetChildren(items []domain.Assertion) { o.Items = items }

// Include inlines a shared policy fragment. Its descendants are read-only
// in the tree of the including policy.
type Include struct {
	PolicyName string
	Items      []domain.Assertion
}

func (*Include) Kind() domain.Kind                     { return KindInclude }
func (i *Include) Children() []domain.Assertion        { return i.Items }
func (i *Include) SetChildren(items []domain.Assertion) { i.Items = items }
