// Package memory provides the in-memory key-value store for keyden.
//
// The store is a plain map guarded by a read-write mutex. Every
// operation is atomic with respect to every other operation; concurrent
// reads proceed in parallel, writes take the lock exclusively.
//
// Thread Safety:
//
// All methods are safe for concurrent use. The store is created once at
// startup and shared by every connection handler; it holds no reference
// to networking or protocol state.
package memory
