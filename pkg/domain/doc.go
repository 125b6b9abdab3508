/*
Package domain contains the core models of the wayfinder visualizer.

It defines the walkable grid, the instrumented nodes whose exploration writes are
captured as Operations, the controller states and events, and the snapshots that
front ends render. The package is kept free of I/O, timers and persistence; those
live behind the interfaces in package ports.

# Key Entities

  - Grid: a fixed-size rectangle of Nodes carrying walkability.
  - Node: one cell; writes to its opened/closed/tested flags are recorded.
  - Operation: a single recorded exploration write, replayed later in order.
  - OperationLog: the FIFO of Operations captured during the last search.
  - State / Event: the finite states of the controller and the events moving it.
  - Layout: a stored grid configuration (size, walls, endpoints, named locations).
*/
package domain
