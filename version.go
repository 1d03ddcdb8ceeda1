package policydesk

// Version is the release of this module. Release builds override it with
// -ldflags "-X github.com/aretw0/policydesk.Version=...".
var Version = "0.1.0"
