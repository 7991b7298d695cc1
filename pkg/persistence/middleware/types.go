// Package middleware decorates a ports.StateStore with at-rest protections:
// AES-GCM encryption with key rotation and redaction of reply text.
package middleware

import "github.com/aretw0/agenda/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain wraps store so that the first middleware sees a Save first.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
