package middleware

import "github.com/aretw0/policydesk/pkg/ports"

// Middleware allows wrapping an AssertionCodec to add behavior. Stores run
// every value through their codec, so a wrapped codec applies to all of them.
type Middleware func(ports.AssertionCodec) ports.AssertionCodec
