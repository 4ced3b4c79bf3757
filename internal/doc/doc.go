// Package doc models the synthesized output document of a single stack and
// its serialization.
//
// A [Template] holds the document sections keyed by logical id. Deferred
// expressions that survive into the document (references, joins, imports)
// are represented by the intrinsic types [Ref], [GetAtt], [Join], [Select],
// [Split], and [ImportValue]; each serializes to the corresponding
// provider intrinsic form.
//
// Serialization is canonical: object keys are emitted in sorted order, HTML
// characters are not escaped, and identical templates always encode to
// byte-identical output. [Encode] produces the indented JSON written to
// disk, [EncodeCompact] the single-line form digests are computed over, and
// [EncodeYAML] the YAML rendering derived from the canonical JSON.
package doc
