/*
Package ports defines the driven ports (interfaces) of the wayfinder controller.

These interfaces decouple the state machine and the playback engine from the
pathfinding algorithm, the rendering surface, timers and layout persistence.

# Key Interfaces

  - Finder: the black-box pathfinding function, run synchronously against an instrumented grid.
  - Renderer: the visual collaborator that receives attribute writes, paths and statistics.
  - Clock: the source of timers; the controller never sleeps or blocks.
  - LayoutStore: persistence for named layouts (floor plans and location tables).
  - DistributedLocker: serializes layout writes across replicas.
*/
package ports
