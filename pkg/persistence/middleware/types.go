// Package middleware wraps a ports.LayoutStore with extra behavior.
package middleware

import "github.com/aretw0/wayfinder/pkg/ports"

// Middleware allows wrapping a LayoutStore to add behavior.
type Middleware func(ports.LayoutStore) ports.LayoutStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.LayoutStore, mws ...Middleware) ports.LayoutStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
