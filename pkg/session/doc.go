/*
Package session owns the wizard runs of multi-client hosts.

Engines are single-threaded. The Manager keeps every run in memory under a
generated id and serializes access per run with a reference-counted lock, so
HTTP or MCP handlers can drive different runs in parallel while calls on the
same run happen one at a time.
*/
package session
