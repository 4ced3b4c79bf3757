// Package model is the Go representation of source configuration.
//
// It has two layers. The block structs (File, StackBlock, ResourceBlock,
// ...) are direct decode targets carrying `hcl` tags; they mirror the shape
// of the source files and hold unevaluated expressions. The normalized
// structs (Unit, Stack, Resource, ...) are what the rest of the system
// consumes: stacks merged across files, properties flattened into
// per-attribute expressions, parameter types resolved.
//
// Expressions stay unevaluated here. Evaluation needs the full construct
// tree in scope, so it happens later, when the frontend builds the tree.
package model
