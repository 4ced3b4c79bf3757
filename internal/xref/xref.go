// Package xref rewrites references that cross a stack boundary into
// export/import pairs.
//
// A reference from stack B to a value produced in stack A becomes three
// things: an output with an export name in A's document, an import-by-name
// expression in B's document, and a deployment-ordering dependency of B on
// A. The registry deduplicates exports by producer path and attribute, so
// exporting the same value many times yields a single output and the same
// import handle.
//
// # Concurrency
//
// One registry is shared by every stack's resolution pass, which may run
// concurrently. Both key spaces are write-once: an export's content is a
// pure function of its key, so whichever goroutine wins the LoadOrStore
// race stores exactly the value every loser would have stored. Readers must
// only consume the registry after all resolution passes have finished.
package xref

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/doc"
	"github.com/harwell/strata/internal/logicalid"
)

// Export is one value a producer stack makes available for import.
type Export struct {
	// Name is the stable export name consumers import by.
	Name string
	// OutputKey is the logical id of the generated output in the producer's
	// document.
	OutputKey string
	// Value is the producer-side expression for the exported value.
	Value any
	// ProducerStack is the path of the producing stack.
	ProducerStack string
	// TargetPath is the full path of the producing construct.
	TargetPath string
	// Attribute is the exported attribute, empty for the primary value.
	Attribute string
}

// Registry collects exports and stack-level dependency edges discovered
// while resolving references.
type Registry struct {
	exports   sync.Map // target path + attribute -> *Export
	stackDeps sync.Map // consumer path + producer path -> stackEdge
}

type stackEdge struct {
	consumer *construct.Stack
	producer *construct.Stack
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// ResolveCrossStack rewrites a consumer-side reference to target.attribute
// into an import expression. As side effects it registers the export on the
// producer stack and records the consumer's deployment dependency on it.
//
// The producer and consumer must live under the same root; otherwise there
// is no deployable unit that could carry the export/import pair and the
// resolution fails with an *UnresolvableReferenceError.
func (r *Registry) ResolveCrossStack(consumer *construct.Stack, target construct.Construct, attribute string) (doc.ImportValue, error) {
	producer, err := construct.StackOf(target)
	if err != nil {
		return doc.ImportValue{}, fmt.Errorf("cross-stack reference to %q: %w", target.Node().PathString(), err)
	}
	if producer == consumer {
		return doc.ImportValue{}, fmt.Errorf("reference to %q does not cross a stack boundary", target.Node().PathString())
	}
	if consumer.Node().Root() != target.Node().Root() {
		return doc.ImportValue{}, &UnresolvableReferenceError{
			Consumer: consumer.Node().PathString(),
			Producer: target.Node().PathString(),
		}
	}

	exp, err := r.registerExport(producer, target, attribute)
	if err != nil {
		return doc.ImportValue{}, err
	}
	r.RecordStackDependency(consumer, producer)
	return doc.ImportValue{Name: exp.Name}, nil
}

// registerExport returns the export handle for (target, attribute),
// creating it on first use. Repeated registrations return the same handle.
func (r *Registry) registerExport(producer *construct.Stack, target construct.Construct, attribute string) (*Export, error) {
	key := target.Node().PathString() + "\x00" + attribute
	if existing, ok := r.exports.Load(key); ok {
		return existing.(*Export), nil
	}

	rel, err := producer.RelativePathOf(target)
	if err != nil {
		return nil, err
	}
	id, err := logicalid.ID(rel)
	if err != nil {
		return nil, err
	}

	var value any
	attrLabel := attribute
	if attribute == "" {
		value = doc.Ref{LogicalID: id}
		attrLabel = "Ref"
	} else {
		value = doc.GetAtt{LogicalID: id, Attribute: attribute}
	}

	exp := &Export{
		Name:          producer.Name() + ":" + id + ":" + attrLabel,
		OutputKey:     "Export" + id + alnumOnly(attrLabel),
		Value:         value,
		ProducerStack: producer.Node().PathString(),
		TargetPath:    target.Node().PathString(),
		Attribute:     attribute,
	}
	actual, _ := r.exports.LoadOrStore(key, exp)
	return actual.(*Export), nil
}

// RecordStackDependency records that consumer must be deployed after
// producer. Recording the same pair twice is a no-op, as is a same-stack
// pair.
func (r *Registry) RecordStackDependency(consumer, producer *construct.Stack) {
	if consumer == producer {
		return
	}
	key := consumer.Node().PathString() + "\x00" + producer.Node().PathString()
	r.stackDeps.LoadOrStore(key, stackEdge{consumer: consumer, producer: producer})
}

// ExportsOf returns the exports registered on producer, sorted by output
// key. Call only after all resolution passes have completed.
func (r *Registry) ExportsOf(producer *construct.Stack) []*Export {
	path := producer.Node().PathString()
	var out []*Export
	r.exports.Range(func(_, v any) bool {
		exp := v.(*Export)
		if exp.ProducerStack == path {
			out = append(out, exp)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].OutputKey < out[j].OutputKey })
	return out
}

// StackDependenciesOf returns the stacks consumer depends on through
// resolved references, sorted by stack path. Call only after all resolution
// passes have completed.
func (r *Registry) StackDependenciesOf(consumer *construct.Stack) []*construct.Stack {
	path := consumer.Node().PathString()
	var out []*construct.Stack
	r.stackDeps.Range(func(_, v any) bool {
		edge := v.(stackEdge)
		if edge.consumer.Node().PathString() == path {
			out = append(out, edge.producer)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Node().PathString() < out[j].Node().PathString()
	})
	return out
}

// alnumOnly strips every character outside the document identifier
// alphabet, matching the logical id alphabet.
func alnumOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// UnresolvableReferenceError reports a cross-stack reference whose producer
// and consumer share no common deployable root.
type UnresolvableReferenceError struct {
	Consumer string
	Producer string
}

func (e *UnresolvableReferenceError) Error() string {
	return fmt.Sprintf("cannot resolve reference from %q to %q: no common deployable root", e.Consumer, e.Producer)
}
