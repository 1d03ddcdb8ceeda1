package assertions

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/policydesk/pkg/domain"
)

// JSONCodec encodes assertion trees as nested {kind, data, children} objects.
type JSONCodec struct{}

type envelope struct {
	Kind     domain.Kind     `json:"kind"`
	Data     json.RawMessage `json:"data,omitempty"`
	Children []envelope      `json:"children,omitempty"`
}

type includeData struct {
	PolicyName string `json:"policy_name"`
}

func (JSONCodec) Encode(a domain.Assertion) ([]byte, error) {
	env, err := toEnvelope(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func (JSONCodec) Decode(data []byte) (domain.Assertion, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode assertion: %w", err)
	}
	return fromEnvelope(env)
}

func toEnvelope(a domain.Assertion) (envelope, error) {
	env := envelope{Kind: a.Kind()}

	var payload any
	switch v := a.(type) {
	case *AddHeader, *HTTPRouting, *IdentityConstraint:
		payload = v
	case *Include:
		payload = includeData{PolicyName: v.PolicyName}
	case *All, *OneOrMore:
	default:
		return envelope{}, fmt.Errorf("cannot encode assertion kind '%s'", a.Kind())
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, fmt.Errorf("failed to encode %s: %w", a.Kind(), err)
		}
		env.Data = raw
	}

	if c, ok := a.(domain.Composite); ok {
		for _, child := range c.Children() {
			ce, err := toEnvelope(child)
			if err != nil {
				return envelope{}, err
			}
			env.Children = append(env.Children, ce)
		}
	}
	return env, nil
}

func fromEnvelope(env envelope) (domain.Assertion, error) {
	var a domain.Assertion
	switch env.Kind {
	case KindAddHeader:
		a = &AddHeader{}
	case KindHTTPRouting:
		a = &HTTPRouting{}
	case KindIdentityConstraint:
		a = &IdentityConstraint{}
	case KindAll:
		a = &All{}
	case KindOneOrMore:
		a = &OneOrMore{}
	case KindInclude:
		var d includeData
		if err := unmarshalData(env, &d); err != nil {
			return nil, err
		}
		a = &Include{PolicyName: d.PolicyName}
	default:
		return nil, fmt.Errorf("cannot decode assertion kind '%s'", env.Kind)
	}

	if mc, ok := a.(MutableComposite); ok {
		children := make([]domain.Assertion, 0, len(env.Children))
		for _, ce := range env.Children {
			child, err := fromEnvelope(ce)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		mc.SetChildren(children)
		return a, nil
	}

	if err := unmarshalData(env, a); err != nil {
		return nil, err
	}
	return a, nil
}

func unmarshalData(env envelope, out any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", env.Kind, err)
	}
	return nil
}
