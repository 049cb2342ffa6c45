/*
Package domain contains the core models of the prompt flow editor.

It defines the in-memory graph (nodes, edges and the start pointer), the issues
produced by validation and the change events published by the graph store. The
package is kept pure and free of I/O so every other layer can depend on it.

# Key Entities

  - Node: A prompt step carrying a label, a description, the prompt text and a canvas position.
  - Edge: A directed, conditioned transition between two nodes.
  - Graph: The immutable aggregate of nodes, edges and the start node pointer.
  - Issue / Result: Errors and warnings produced by validation and analysis.
  - ChangeEvent: What a store publishes to its subscribers after a change commits.
*/
package domain
