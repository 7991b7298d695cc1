/*
Package domain contains the core models of the scheduling assistant.

It is kept free of I/O and persistence concerns so that the dialogue, the slot
resolver and every adapter can share the same vocabulary.

# Key Entities

  - DialogueState: the per-session conversational record (greeting, intent, pending slot, proposal).
  - Candidate: a date/time phrase extracted from a message.
  - Proposal: an instant offered to the user for confirmation, with how it was found.
  - Booking: the outcome of creating a calendar event.
  - LifecycleHooks: callbacks used by observability to follow turns and calendar calls.
*/
package domain
