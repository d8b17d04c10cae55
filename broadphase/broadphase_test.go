package broadphase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galvanizedlogic/collide/lin"
)

func box(minX, maxX float64) lin.AABB[float64] {
	return lin.AABB[float64]{Min: lin.Vec3[float64]{minX, 0, 0}, Max: lin.Vec3[float64]{maxX, 1, 1}}
}

func alwaysAdmit(a, b string) bool { return true }

func TestNewPairsFireOnPairNew(t *testing.T) {
	bp := New[float64, string](0)
	h1 := bp.CreateProxy(box(0, 1), "a")
	h2 := bp.CreateProxy(box(0.5, 1.5), "b")

	var fired []string
	bp.Update(alwaysAdmit, func(a, b string, isNew bool) {
		fired = append(fired, a+b)
		assert.True(t, isNew)
	}, nil)

	assert.Equal(t, []string{"ab"}, fired)
	assert.Equal(t, 1, bp.NumInterferences())
	_ = h1
	_ = h2
}

func TestFilterRejectsCandidate(t *testing.T) {
	bp := New[float64, string](0)
	bp.CreateProxy(box(0, 1), "a")
	bp.CreateProxy(box(0.5, 1.5), "b")

	called := false
	bp.Update(func(a, b string) bool { called = true; return false }, func(a, b string, isNew bool) {
		t.Fatal("filter rejected this pair; on_pair_new must not fire")
	}, nil)

	assert.True(t, called)
	assert.Equal(t, 0, bp.NumInterferences())
}

func TestRemoveFiresOnPairRemoved(t *testing.T) {
	bp := New[float64, string](0)
	h1 := bp.CreateProxy(box(0, 1), "a")
	bp.CreateProxy(box(0.5, 1.5), "b")
	bp.Update(alwaysAdmit, func(a, b string, isNew bool) {}, nil)
	require.Equal(t, 1, bp.NumInterferences())

	var removed []string
	bp.Remove([]ProxyHandle{h1}, func(a, b string) { removed = append(removed, a+b) })
	bp.Update(alwaysAdmit, func(a, b string, isNew bool) {}, nil)

	assert.Equal(t, []string{"ab"}, removed)
	assert.Equal(t, 0, bp.NumInterferences())
}

func TestRecomputeAllRediscoversRejectedThenAcceptedPair(t *testing.T) {
	bp := New[float64, string](0)
	bp.CreateProxy(box(0, 1), "a")
	bp.CreateProxy(box(0.5, 1.5), "b")

	admit := false
	filter := func(a, b string) bool { return admit }
	bp.Update(filter, func(a, b string, isNew bool) {}, nil)
	require.Equal(t, 0, bp.NumInterferences())

	admit = true
	bp.DeferredRecomputeAllProximities()
	var newFired []string
	bp.Update(filter, func(a, b string, isNew bool) { newFired = append(newFired, a+b) }, nil)

	assert.Equal(t, []string{"ab"}, newFired)
	assert.Equal(t, 1, bp.NumInterferences())
}

func TestRecomputeAllRemovesPairFilterNowRejects(t *testing.T) {
	bp := New[float64, string](0)
	bp.CreateProxy(box(0, 1), "a")
	bp.CreateProxy(box(0.5, 1.5), "b")

	admit := true
	filter := func(a, b string) bool { return admit }
	bp.Update(filter, func(a, b string, isNew bool) {}, nil)
	require.Equal(t, 1, bp.NumInterferences())

	admit = false
	bp.DeferredRecomputeAllProximities()
	var removedFired []string
	bp.Update(filter, func(a, b string, isNew bool) {}, func(a, b string) { removedFired = append(removedFired, a+b) })

	assert.Equal(t, []string{"ab"}, removedFired)
	assert.Equal(t, 0, bp.NumInterferences())
}

func TestRefitTemporalCoherenceSkipsReinsert(t *testing.T) {
	bp := New[float64, string](1) // margin 1, loosened box is larger than exact
	h := bp.CreateProxy(box(0, 1), "a")
	bp.Update(alwaysAdmit, func(a, b string, isNew bool) {}, nil)

	// Refit within the loosened bounds: should be a no-op (proxy count
	// unaffected, still queryable at its old loosened extent).
	bp.DeferredSetBoundingVolume(h, box(0.1, 1.1))
	bp.Update(alwaysAdmit, func(a, b string, isNew bool) {}, nil)

	hits := bp.InterferencesWithAABB(box(0, 2), nil)
	assert.Contains(t, hits, "a")
}

func TestInterferencesWithPointAndRay(t *testing.T) {
	bp := New[float64, string](0)
	bp.CreateProxy(box(0, 2), "a")
	bp.Update(alwaysAdmit, func(a, b string, isNew bool) {}, nil)

	pointHits := bp.InterferencesWithPoint(lin.Vec3[float64]{1, 0.5, 0.5}, nil)
	assert.Equal(t, []string{"a"}, pointHits)

	ray := lin.Ray[float64]{Origin: lin.Vec3[float64]{-5, 0.5, 0.5}, Dir: lin.Vec3[float64]{1, 0, 0}}
	rayHits := bp.InterferencesWithRay(ray, 100, nil)
	assert.Equal(t, []string{"a"}, rayHits)
}
