/*
Package agenda is a conversational scheduling assistant.

It accepts free-text chat messages, recognises booking requests, extracts a date and
time, negotiates availability with a calendar and drives a short yes/no confirmation
before creating the event.

# Architecture

The Assistant composes four pieces:

  - a temporal extractor that turns phrases such as "Friday at 2pm" into instants,
  - a slot resolver that shifts weekends and scans for free 30-minute slots,
  - a dialogue machine that owns the per-session conversation state,
  - a session manager that serialises turns per session over a pluggable store.

The calendar is an injected ports.Calendar (in-memory or Google Calendar) and the
store an injected ports.StateStore (memory, file, Redis or SQLite).

# Usage

	cal := memory.NewCalendar()
	assistant, err := agenda.New(cal, agenda.WithLocation(loc))
	if err != nil {
		log.Fatal(err)
	}

	reply, state, err := assistant.ProcessTurn(ctx, "session-123", "Book Friday at 2pm")

Calendar failures never surface as errors: the reply apologises and the state is left
as it was. ProcessTurn only fails for rejected input and for storage failures.
*/
package agenda
