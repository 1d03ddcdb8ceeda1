/*
Package editor defines the property-editor binding contract and the modal
session that runs an editor against one domain object.

A PropertyEditor is a form bound to an assertion type. SetData copies the
object into the form; GetData validates the form and copies it back. The
Session wraps an editor with the dialog lifecycle: it decides when GetData is
called, keeps the dialog open on validation failures, honors read-only mode,
and hands the confirmed object to an optional commit sink.

Hosts that do not know the concrete assertion type work through Opener, the
type-erased view of a Session produced by a Factory.
*/
package editor
