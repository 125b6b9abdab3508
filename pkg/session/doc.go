/*
Package session manages the live visualizer sessions of a process and the
named layouts they are created from.

Layout writes are serialized per name with reference-counted local locks and,
when several replicas share a store, an optional distributed locker.
*/
package session
