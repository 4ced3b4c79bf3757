// Package construct implements the construction tree that every synthesized
// document is derived from.
//
// # Model
//
// A tree is rooted in an [App]. Interior nodes are either [Stack] instances,
// which are the unit of document output, or plain [Group] constructs used for
// organization. Leaves are typically [Resource], [Parameter], or [Output]
// constructs. Every tree member implements the [Construct] interface by
// exposing its [Node], which owns identity, scope, and child bookkeeping.
//
// Construct ids are unique among siblings and a node's path (the ids from the
// root down to the node) is unique across the whole tree. Paths are computed
// lazily and cached; they never change once observed.
//
// # Capabilities
//
// Behavior beyond addressability is expressed through narrow capability
// interfaces rather than a type hierarchy: [DependencyProducer] for explicit
// ordering constraints and [Emitter] for constructs that contribute an entity
// record to their stack's document. Concrete kinds implement only the
// capabilities they need.
//
// # Lifecycle
//
// Trees are built single-threaded during a construction phase, then frozen
// before synthesis. Mutating a frozen tree fails with [ErrTreeFrozen].
// Synthesis itself never mutates the tree.
package construct
