package runtime_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/internal/testutils"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRate     = 100
	testInterval = time.Second / testRate
)

var diagonal = domain.Path{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}

type harness struct {
	clock       *testutils.ManualClock
	renderer    *testutils.RecordingRenderer
	ctrl        *runtime.Controller
	transitions []domain.TransitionEvent
}

func newHarness(t *testing.T, renderer ports.Renderer, rec *testutils.RecordingRenderer, opts ...runtime.Option) *harness {
	t.Helper()
	h := &harness{clock: testutils.NewManualClock(), renderer: rec}

	start, end := domain.Point{X: 0, Y: 0}, domain.Point{X: 4, Y: 4}
	layout := &domain.Layout{
		Name: "five", Width: 5, Height: 5, Start: &start, End: &end,
		Locations: map[string]domain.Point{"101": {X: 4, Y: 0}},
	}
	base := []runtime.Option{
		runtime.WithClock(h.clock),
		runtime.WithOperationsPerSecond(testRate),
		runtime.WithLayout(layout),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnTransition: func(e *domain.TransitionEvent) { h.transitions = append(h.transitions, *e) },
		}),
	}
	h.ctrl = runtime.NewController(ports.FinderFunc(testutils.RowMajorFinder(diagonal)), renderer, append(base, opts...)...)
	require.NoError(t, h.ctrl.Init())
	return h
}

func newRecordingHarness(t *testing.T, opts ...runtime.Option) *harness {
	r := testutils.NewRecordingRenderer()
	return newHarness(t, r, r, opts...)
}

func (h *harness) states() []domain.State {
	var out []domain.State
	for _, tr := range h.transitions {
		out = append(out, tr.To)
	}
	return out
}

// drain advances until n operations have been rendered since the search began.
func (h *harness) drain(n int) {
	h.clock.Advance(0)
	h.clock.Advance(time.Duration(n-1) * testInterval)
}

func TestController_Init(t *testing.T) {
	h := newRecordingHarness(t)

	assert.Equal(t, domain.StateReady, h.ctrl.State())
	assert.Equal(t, []domain.Point{{X: 0, Y: 0}}, h.renderer.Starts)
	assert.Equal(t, []domain.Point{{X: 4, Y: 4}}, h.renderer.Ends)

	controls := h.ctrl.Controls()
	require.Len(t, controls, 3)
	assert.Equal(t, domain.EventStart, controls[0].Event)
	assert.False(t, controls[1].Enabled)
	assert.Equal(t, domain.EventReset, controls[2].Event)
	assert.ErrorIs(t, h.ctrl.Init(), domain.ErrIllegalTransition)
}

func TestController_SearchScenario(t *testing.T) {
	h := newRecordingHarness(t)
	footprints := h.renderer.Footprints

	require.NoError(t, h.ctrl.Start())
	assert.Equal(t, domain.StateSearching, h.ctrl.State())
	assert.Equal(t, 25, h.ctrl.Pending())
	assert.Greater(t, h.renderer.Footprints, footprints, "footprints cleared before searching")
	require.NotNil(t, h.ctrl.Stats())
	assert.Equal(t, 25, h.ctrl.Stats().OperationCount)
	assert.InDelta(t, 4*1.4142135, h.ctrl.Stats().PathLength, 1e-6)

	h.drain(25)
	assert.Equal(t, domain.StateSearching, h.ctrl.State())
	assert.Len(t, h.renderer.Exploration(), 25)

	h.clock.Advance(testInterval)
	assert.Equal(t, domain.StateFinished, h.ctrl.State())

	ops := h.renderer.Exploration()
	for i, op := range ops {
		assert.Equal(t, domain.Operation{X: i % 5, Y: i / 5, Attr: domain.AttrOpened, Value: true}, op)
	}
	require.Len(t, h.renderer.Paths, 1)
	assert.Equal(t, diagonal, h.renderer.Paths[0])
	require.Len(t, h.renderer.Stats, 1)
	assert.Equal(t, 25, h.renderer.Stats[0].OperationCount)

	assert.Equal(t, []domain.State{
		domain.StateReady, domain.StateStarting, domain.StateSearching, domain.StateFinished,
	}, h.states())
}

func TestController_SkipsUnsupportedOperations(t *testing.T) {
	r := testutils.NewRecordingRenderer()
	r.Supported = []domain.Attribute{domain.AttrClosed}
	h := newHarness(t, r, r)

	require.NoError(t, h.ctrl.Start())
	h.clock.Advance(0)

	assert.Empty(t, r.Exploration())
	assert.Equal(t, domain.StateFinished, h.ctrl.State(), "all opened ops skipped in one tick")
}

func TestController_PauseThenCancel(t *testing.T) {
	h := newRecordingHarness(t)

	require.NoError(t, h.ctrl.Start())
	h.drain(15)
	require.Equal(t, 10, h.ctrl.Pending())

	require.NoError(t, h.ctrl.Pause())
	assert.Equal(t, domain.StatePaused, h.ctrl.State())
	assert.Equal(t, 10, h.ctrl.Pending())

	require.NoError(t, h.ctrl.Cancel())
	assert.Equal(t, domain.StateReady, h.ctrl.State())
	assert.Equal(t, 0, h.ctrl.Pending())

	h.clock.Advance(time.Second)
	assert.Len(t, h.renderer.Exploration(), 15, "no renders after cancel")
	assert.Equal(t, domain.StateReady, h.ctrl.State())
}

func TestController_PauseResumeKeepsTail(t *testing.T) {
	h := newRecordingHarness(t)

	require.NoError(t, h.ctrl.Start())
	h.drain(15)
	require.NoError(t, h.ctrl.Pause())
	h.clock.Advance(time.Second)
	require.Len(t, h.renderer.Exploration(), 15)

	require.NoError(t, h.ctrl.Resume())
	h.clock.Advance(0)
	ops := h.renderer.Exploration()
	require.Len(t, ops, 16)
	assert.Equal(t, domain.Point{X: 0, Y: 3}, domain.Point{X: ops[15].X, Y: ops[15].Y})

	h.clock.Advance(time.Second)
	assert.Len(t, h.renderer.Exploration(), 25)
	assert.Equal(t, domain.StateFinished, h.ctrl.State())
}

func TestController_WallBlocksSearch(t *testing.T) {
	var sawBlocked bool
	r := testutils.NewRecordingRenderer()
	h := newHarness(t, r, r)
	h.ctrl.SetFinder(ports.FinderFunc(func(start, end domain.Point, g *domain.Grid) domain.Path {
		sawBlocked = !g.IsWalkableAt(2, 2)
		return nil
	}))

	require.NoError(t, h.ctrl.DrawWall(domain.Point{X: 2, Y: 2}))
	assert.Equal(t, domain.StateDrawingWall, h.ctrl.State())
	require.NoError(t, h.ctrl.Rest())
	assert.False(t, h.ctrl.IsWalkableAt(domain.Point{X: 2, Y: 2}))
	assert.Contains(t, r.Attrs, domain.Operation{X: 2, Y: 2, Attr: domain.AttrWalkable, Value: false})

	require.NoError(t, h.ctrl.Start())
	assert.True(t, sawBlocked)
}

func TestController_InvalidEndpoints(t *testing.T) {
	t.Run("Unset", func(t *testing.T) {
		r := testutils.NewRecordingRenderer()
		ctrl := runtime.NewController(ports.FinderFunc(testutils.RowMajorFinder(nil)), r,
			runtime.WithClock(testutils.NewManualClock()), runtime.WithGridSize(3, 3))
		require.NoError(t, ctrl.Init())
		assert.ErrorIs(t, ctrl.Start(), domain.ErrInvalidEndpoints)
		assert.Equal(t, domain.StateReady, ctrl.State())
	})

	t.Run("Equal", func(t *testing.T) {
		h := newRecordingHarness(t)
		require.NoError(t, h.ctrl.SetEnd(domain.Point{X: 0, Y: 0}))
		assert.ErrorIs(t, h.ctrl.Start(), domain.ErrInvalidEndpoints)
		assert.Equal(t, domain.StateReady, h.ctrl.State())
	})

	t.Run("Blocked", func(t *testing.T) {
		h := newRecordingHarness(t)
		require.NoError(t, h.ctrl.SetWalkableAt(domain.Point{X: 4, Y: 4}, false))
		assert.ErrorIs(t, h.ctrl.Start(), domain.ErrInvalidEndpoints)
		assert.Equal(t, 0, h.ctrl.Pending())
	})

	t.Run("IllegalBeforeGuard", func(t *testing.T) {
		h := newRecordingHarness(t)
		require.NoError(t, h.ctrl.Start())
		assert.ErrorIs(t, h.ctrl.Start(), domain.ErrIllegalTransition)
	})
}

func TestController_OutOfBounds(t *testing.T) {
	h := newRecordingHarness(t)
	assert.ErrorIs(t, h.ctrl.SetStart(domain.Point{X: 5, Y: 0}), domain.ErrOutOfBounds)
	assert.ErrorIs(t, h.ctrl.DrawWall(domain.Point{X: -1, Y: 0}), domain.ErrOutOfBounds)
	assert.Equal(t, domain.StateReady, h.ctrl.State())
}

func TestController_ResetIsIdempotent(t *testing.T) {
	setups := map[string]func(h *harness){
		"Ready": func(h *harness) {},
		"Searching": func(h *harness) {
			_ = h.ctrl.Start()
			h.drain(3)
		},
		"Paused": func(h *harness) {
			_ = h.ctrl.Start()
			h.drain(3)
			_ = h.ctrl.Pause()
		},
		"Finished": func(h *harness) {
			_ = h.ctrl.Start()
			h.clock.Advance(time.Second)
		},
		"DrawingWall": func(h *harness) {
			_ = h.ctrl.DrawWall(domain.Point{X: 3, Y: 3})
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newRecordingHarness(t)
			require.NoError(t, h.ctrl.SetWalkableAt(domain.Point{X: 1, Y: 2}, false))
			setup(h)

			for i := 0; i < 2; i++ {
				require.NoError(t, h.ctrl.Reset())
				assert.Equal(t, domain.StateReady, h.ctrl.State())
				assert.Equal(t, 0, h.ctrl.Pending())
				h.clock.Advance(time.Second)
			}

			snap := h.ctrl.Snapshot()
			assert.Empty(t, snap.Walls, "fresh grid after cleanup")
			assert.Nil(t, snap.Stats)
			assert.Equal(t, 2, h.renderer.BlockedClear)
		})
	}
}

func TestController_ClearIsIdempotent(t *testing.T) {
	h := newRecordingHarness(t)
	require.NoError(t, h.ctrl.Start())
	h.clock.Advance(time.Second)
	require.Equal(t, domain.StateFinished, h.ctrl.State())

	require.NoError(t, h.ctrl.Clear())
	assert.Equal(t, domain.StateReady, h.ctrl.State())
	assert.Equal(t, 0, h.ctrl.Pending())
	assert.ErrorIs(t, h.ctrl.Clear(), domain.ErrIllegalTransition)
	assert.Equal(t, domain.StateReady, h.ctrl.State())
}

func TestController_ModifyOnEndpointMove(t *testing.T) {
	h := newRecordingHarness(t)
	require.NoError(t, h.ctrl.Start())
	h.clock.Advance(time.Second)
	require.Equal(t, domain.StateFinished, h.ctrl.State())

	require.NoError(t, h.ctrl.SetEndByName("101"))
	assert.Equal(t, domain.StateModified, h.ctrl.State())
	assert.Equal(t, domain.Point{X: 4, Y: 0}, *h.ctrl.Snapshot().End)

	assert.ErrorIs(t, h.ctrl.SetEndByName("999"), domain.ErrUnknownLocation)

	require.NoError(t, h.ctrl.Start())
	assert.Equal(t, domain.StateSearching, h.ctrl.State())
}

func TestController_Restart(t *testing.T) {
	h := newRecordingHarness(t)
	require.NoError(t, h.ctrl.Start())
	h.clock.Advance(time.Second)
	require.Equal(t, domain.StateFinished, h.ctrl.State())

	require.NoError(t, h.ctrl.Restart())
	assert.Equal(t, domain.StateRestarting, h.ctrl.State())

	h.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, domain.StateRestarting, h.ctrl.State(), "cleanup waits for the animation bound")

	h.clock.Advance(20 * time.Millisecond)
	assert.Equal(t, domain.StateSearching, h.ctrl.State())
	assert.Equal(t, 25, h.ctrl.Stats().OperationCount)
	assert.Len(t, h.renderer.Stats, 1, "new search has not finished yet")
}

func TestController_StaleCleanupIsDropped(t *testing.T) {
	h := newRecordingHarness(t)
	require.NoError(t, h.ctrl.SetWalkableAt(domain.Point{X: 2, Y: 3}, false))

	require.NoError(t, h.ctrl.Reset())
	require.NoError(t, h.ctrl.DragStart())
	require.NoError(t, h.ctrl.Rest())

	h.clock.Advance(time.Second)
	assert.Equal(t, 0, h.renderer.BlockedClear)
	assert.Equal(t, []domain.Point{{X: 2, Y: 3}}, h.ctrl.Snapshot().Walls)
}

func TestController_StaleRestartDoesNotStart(t *testing.T) {
	h := newRecordingHarness(t)
	require.NoError(t, h.ctrl.Start())
	h.drain(2)

	require.NoError(t, h.ctrl.Restart())
	require.NoError(t, h.ctrl.Reset())
	h.clock.Advance(time.Second)

	assert.Equal(t, domain.StateReady, h.ctrl.State())
	assert.Equal(t, 0, h.ctrl.Pending())
}

func TestController_AnimationNotifier(t *testing.T) {
	r := testutils.NewNotifyingRenderer()
	r.Duration = 10 * time.Second
	h := newHarness(t, r, r.RecordingRenderer)

	require.NoError(t, h.ctrl.Reset())
	h.clock.Advance(time.Second)
	assert.Equal(t, 0, r.BlockedClear, "still animating")

	r.Settle()
	h.clock.Advance(0)
	assert.Equal(t, 1, r.BlockedClear)

	h.clock.Advance(time.Minute)
	assert.Equal(t, 1, r.BlockedClear, "bounding timer does not run it again")
}

func TestController_LateSignalKeepsNewerBound(t *testing.T) {
	r := testutils.NewNotifyingRenderer()
	r.Duration = 10 * time.Second
	h := newHarness(t, r, r.RecordingRenderer)
	require.NoError(t, h.ctrl.SetWalkableAt(domain.Point{X: 2, Y: 3}, false))

	require.NoError(t, h.ctrl.Reset())
	r.Settle() // answers the first reset, delivered at the next tick
	require.NoError(t, h.ctrl.Reset())

	h.clock.Advance(0)
	assert.Equal(t, 0, r.BlockedClear, "the first cleanup is stale")

	h.clock.Advance(time.Minute)
	assert.Equal(t, 1, r.BlockedClear, "the second cleanup still runs at its bound")
	assert.Empty(t, h.ctrl.Snapshot().Walls)
}

func TestController_ControlsFollowState(t *testing.T) {
	h := newRecordingHarness(t)
	require.NoError(t, h.ctrl.Start())
	h.drain(1)
	require.NoError(t, h.ctrl.Pause())

	controls := h.ctrl.Controls()
	require.Len(t, controls, 3)
	assert.Equal(t, "Resume Search", controls[0].Label)
	assert.Equal(t, "Cancel Search", controls[1].Label)

	last := h.renderer.Controls[len(h.renderer.Controls)-1]
	assert.Equal(t, controls, last)

	for _, c := range controls {
		if c.Enabled {
			assert.True(t, h.ctrl.Can(c.Event), "control %q must be legal", c.Label)
		}
	}
}

func TestController_FinderPanicIsNoPath(t *testing.T) {
	h := newRecordingHarness(t)
	h.ctrl.SetFinder(ports.FinderFunc(func(start, end domain.Point, g *domain.Grid) domain.Path {
		n, _ := g.NodeAt(1, 1)
		n.SetOpened(true)
		panic("broken finder")
	}))

	require.NoError(t, h.ctrl.Start())
	assert.Equal(t, 1, h.ctrl.Pending())
	h.clock.Advance(time.Second)
	assert.Equal(t, domain.StateFinished, h.ctrl.State())
	assert.Empty(t, h.ctrl.Path())
}

// Random event sequences never leave the declared state set, and rejected events
// never change state.
func TestController_LegalityUnderRandomEvents(t *testing.T) {
	h := newRecordingHarness(t)
	machine := runtime.MustMachine(runtime.DefaultRules)
	declared := make(map[domain.State]bool)
	for _, s := range domain.States {
		declared[s] = true
	}

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		ev := domain.Events[rnd.Intn(len(domain.Events))]
		before := h.ctrl.State()
		want, legal := machine.Next(before, ev)

		err := h.ctrl.Fire(ev)
		if !legal {
			require.ErrorIs(t, err, domain.ErrIllegalTransition, "%s from %s", ev, before)
			require.Equal(t, before, h.ctrl.State())
		} else {
			require.NoError(t, err, "%s from %s", ev, before)
			if want == domain.StateStarting {
				want = domain.StateSearching
			}
			require.Equal(t, want, h.ctrl.State(), "%s from %s", ev, before)
		}

		h.clock.Advance(time.Duration(rnd.Intn(5)) * testInterval)
		require.True(t, declared[h.ctrl.State()])
	}
}
