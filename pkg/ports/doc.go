/*
Package ports defines the driven ports (interfaces) of the scheduling assistant.

These interfaces decouple the dialogue core from concrete infrastructure, so the
same core runs against in-memory fakes in tests and against Redis, SQLite and
Google Calendar in production.

# Key Interfaces

  - StateStore: persists and loads per-session DialogueState.
  - DistributedLocker: serialises turns of one session across replicas.
  - Calendar: the Availability Port (check a slot, create an event).
*/
package ports
