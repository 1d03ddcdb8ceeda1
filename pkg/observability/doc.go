/*
Package observability turns wizard lifecycle events into logs and metrics.

Both helpers return domain.WizardHooks; combine them with domain.ChainHooks
and pass the result to wizard.WithLifecycleHooks or policydesk.WithWizardHooks.
*/
package observability
