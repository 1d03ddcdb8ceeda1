/*
Package ports defines the driven ports (interfaces) of the policydesk core.

These interfaces decouple the wizard engine, the editor sessions and the action
resolver from the host that embeds them, so a terminal runner, an HTTP service
or a test double can all stand in for the windowing layer.

# Key Interfaces

  - Notifier: non-blocking side channel for user-facing messages.
  - ServiceLocator: enumerates external registries (connections, passwords).
  - AssertionStore: receives confirmed assertions for persistence.
  - SettingsBuilder: consumes the finalized settings of a wizard run.
  - HelpProvider, Localizer: narrow callbacks into help and string resources.
*/
package ports
