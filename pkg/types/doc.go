// Package types defines the entity records, entity kinds, client
// configuration, and the error taxonomy shared by the sndeals store,
// gateway, and command-line packages.
//
// Entities are structured records with a fixed set of optional fields.
// An entity with a nil ID is an unsaved draft.
package types
