// Package hclfront turns source files into a construct tree.
//
// The pipeline has three stages:
//
//   - Discover and parse: resolve a path to a sorted list of .hcl files and
//     decode each one into the block structs of [model].
//
//   - Normalize: merge stacks declared across files into one [model.Unit],
//     flatten resource properties into per-attribute expressions, and
//     resolve parameter type constraints.
//
//   - Build: create the construct tree. Resources are created first with
//     empty property bags so that every expression scope can hand out
//     references to them, then each property expression is evaluated
//     against that scope and written into its resource.
//
// Values that are unknown until deployment flow through expressions as
// capsule-wrapped tokens. A template like "${resource.Bucket.Arn}/logs"
// cannot be evaluated to a string, so the frontend takes it apart and
// lowers it to a concatenation token instead.
//
// All user-facing errors are reported as hcl.Diagnostics carrying source
// ranges.
package hclfront
