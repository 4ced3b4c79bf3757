package xref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/doc"
	"github.com/harwell/strata/internal/logicalid"
)

type xrefFixture struct {
	app      *construct.App
	producer *construct.Stack
	consumer *construct.Stack
	bucket   *construct.Resource
}

func newXrefFixture(t *testing.T) *xrefFixture {
	t.Helper()
	app := construct.NewApp()
	producer, err := construct.NewStack(app, "StackA")
	require.NoError(t, err)
	consumer, err := construct.NewStack(app, "StackB")
	require.NoError(t, err)
	bucket, err := construct.NewResource(producer, "Bucket", "Bucket", nil)
	require.NoError(t, err)
	return &xrefFixture{app: app, producer: producer, consumer: consumer, bucket: bucket}
}

func TestResolveCrossStack_RegistersExportAndImport(t *testing.T) {
	f := newXrefFixture(t)
	reg := NewRegistry()

	imp, err := reg.ResolveCrossStack(f.consumer, f.bucket, "Arn")
	require.NoError(t, err)

	id, err := logicalid.ID([]string{"Bucket"})
	require.NoError(t, err)
	assert.Equal(t, doc.ImportValue{Name: "StackA:" + id + ":Arn"}, imp)

	exports := reg.ExportsOf(f.producer)
	require.Len(t, exports, 1)
	exp := exports[0]
	assert.Equal(t, "StackA:"+id+":Arn", exp.Name)
	assert.Equal(t, "Export"+id+"Arn", exp.OutputKey)
	assert.Equal(t, doc.GetAtt{LogicalID: id, Attribute: "Arn"}, exp.Value)
	assert.Equal(t, "StackA/Bucket", exp.TargetPath)

	deps := reg.StackDependenciesOf(f.consumer)
	require.Len(t, deps, 1)
	assert.Same(t, f.producer, deps[0])
}

func TestResolveCrossStack_PrimaryValueExportsRef(t *testing.T) {
	f := newXrefFixture(t)
	reg := NewRegistry()

	imp, err := reg.ResolveCrossStack(f.consumer, f.bucket, "")
	require.NoError(t, err)

	id, err := logicalid.ID([]string{"Bucket"})
	require.NoError(t, err)
	assert.Equal(t, "StackA:"+id+":Ref", imp.Name)

	exports := reg.ExportsOf(f.producer)
	require.Len(t, exports, 1)
	assert.Equal(t, doc.Ref{LogicalID: id}, exports[0].Value)
}

func TestResolveCrossStack_DeduplicatesByTargetAndAttribute(t *testing.T) {
	f := newXrefFixture(t)
	reg := NewRegistry()

	first, err := reg.ResolveCrossStack(f.consumer, f.bucket, "Arn")
	require.NoError(t, err)
	second, err := reg.ResolveCrossStack(f.consumer, f.bucket, "Arn")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, reg.ExportsOf(f.producer), 1)

	// A different attribute of the same producer is a distinct export.
	_, err = reg.ResolveCrossStack(f.consumer, f.bucket, "Name")
	require.NoError(t, err)
	assert.Len(t, reg.ExportsOf(f.producer), 2)
}

func TestResolveCrossStack_SameStackRejected(t *testing.T) {
	f := newXrefFixture(t)
	reg := NewRegistry()

	_, err := reg.ResolveCrossStack(f.producer, f.bucket, "Arn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not cross a stack boundary")
}

func TestResolveCrossStack_NoCommonRoot(t *testing.T) {
	f := newXrefFixture(t)

	otherApp := construct.NewApp()
	otherStack, err := construct.NewStack(otherApp, "Elsewhere")
	require.NoError(t, err)

	reg := NewRegistry()
	_, err = reg.ResolveCrossStack(otherStack, f.bucket, "Arn")
	require.Error(t, err)

	var unres *UnresolvableReferenceError
	require.ErrorAs(t, err, &unres)
	assert.Equal(t, "Elsewhere", unres.Consumer)
	assert.Equal(t, "StackA/Bucket", unres.Producer)
}

func TestRecordStackDependency(t *testing.T) {
	f := newXrefFixture(t)
	reg := NewRegistry()

	reg.RecordStackDependency(f.consumer, f.producer)
	reg.RecordStackDependency(f.consumer, f.producer)
	reg.RecordStackDependency(f.consumer, f.consumer)

	deps := reg.StackDependenciesOf(f.consumer)
	require.Len(t, deps, 1)
	assert.Same(t, f.producer, deps[0])
	assert.Empty(t, reg.StackDependenciesOf(f.producer))
}

func TestStackDependenciesOf_Sorted(t *testing.T) {
	app := construct.NewApp()
	consumer, err := construct.NewStack(app, "Consumer")
	require.NoError(t, err)
	var producers []*construct.Stack
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		s, err := construct.NewStack(app, name)
		require.NoError(t, err)
		producers = append(producers, s)
	}

	reg := NewRegistry()
	for _, p := range producers {
		reg.RecordStackDependency(consumer, p)
	}

	deps := reg.StackDependenciesOf(consumer)
	var names []string
	for _, d := range deps {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, names)
}

func TestResolveCrossStack_ConcurrentRegistrationsConverge(t *testing.T) {
	f := newXrefFixture(t)
	reg := NewRegistry()

	var g errgroup.Group
	results := make([]doc.ImportValue, 16)
	for i := range results {
		i := i
		g.Go(func() error {
			imp, err := reg.ResolveCrossStack(f.consumer, f.bucket, "Arn")
			if err != nil {
				return err
			}
			results[i] = imp
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, imp := range results {
		assert.Equal(t, results[0], imp)
	}
	assert.Len(t, reg.ExportsOf(f.producer), 1)
}
