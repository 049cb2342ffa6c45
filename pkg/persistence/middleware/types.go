// Package middleware decorates a ports.DocumentStore with behavior applied to
// every persisted document, such as encryption at rest or secret masking.
package middleware

import "github.com/aretw0/promptflow/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore

// Chain wraps store with mws. The first middleware is the outermost, so it
// sees documents first on Save and last on Load.
func Chain(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
