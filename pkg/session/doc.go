/*
Package session serialises access to conversation state.

A Manager wraps a ports.StateStore with a per-session mutex (reference counted so idle
sessions hold no memory) and, when configured, a ports.DistributedLocker so that turns
for the same session never interleave across replicas.
*/
package session
