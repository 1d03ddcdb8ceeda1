/*
Package wizard implements the multi-step wizard navigation engine.

A wizard is a fixed, acyclic chain of Steps sharing one domain.Settings bag.
The Engine owns the bag for the lifetime of a run and drives the chain with
four transitions:

  - Next: runs the current step's advance guard, writes the step back and
    enters the successor (or finishes after the last step).
  - Back: returns to the previous step without validation or write-back.
  - Finish: allowed from any step whose finish guard accepts the settings.
  - Cancel: always succeeds and discards the settings.

Finished and Cancelled are terminal; a new Engine is needed for another run.

A failing guard is never fatal. The engine stays where it is and reports the
reason through the ports.Notifier side channel, so a host can show it and let
the user correct the input.

The Engine is single-threaded. Hosts that drive it from several goroutines
must serialize access (see package session).
*/
package wizard
