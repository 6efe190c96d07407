// Package roster defines the presence board's data model: people
// ([Record]), their in/out [Status], the static team table ([Group]),
// and the pure projection that groups records for display.
//
// This package is internal to inoutboard. It has no dependencies on
// storage or transport so that the store, the server and the public
// SDK can all share the same types without import cycles.
package roster
