package frame

import (
	"context"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx/gfxtest"
	"github.com/cockroachdb/errors"
)

func newTestSystem(t *testing.T, images int, options ...SystemBuilderOption) (*gfxtest.Device, *gfxtest.Surface, System) {
	t.Helper()
	dev := gfxtest.NewDevice()
	surf := gfxtest.NewSurface(dev, images)
	sys, err := NewSystem(dev, surf, images, options...)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	return dev, surf, sys
}

// runFrame drives one full frame and returns whether recreation was requested.
func runFrame(t *testing.T, sys System, fi int) (BeginResult, bool) {
	t.Helper()
	res, err := sys.BeginFrame(context.Background(), fi)
	if err != nil {
		t.Fatalf("BeginFrame(%d): %v", fi, err)
	}
	if !res.OK {
		return res, res.NeedRecreate
	}
	if _, err := sys.BeginCommands(fi); err != nil {
		t.Fatalf("BeginCommands(%d): %v", fi, err)
	}
	need, err := sys.EndFrame(fi, res.ImageIndex)
	if err != nil {
		t.Fatalf("EndFrame(%d): %v", fi, err)
	}
	return res, need
}

func TestDefaultsToTwoFramesInFlight(t *testing.T) {
	_, _, sys := newTestSystem(t, 3)
	if sys.FramesInFlight() != 2 {
		t.Fatalf("FramesInFlight() = %d, want 2", sys.FramesInFlight())
	}
	if sys.Next(0) != 1 || sys.Next(1) != 0 {
		t.Errorf("Next does not wrap modulo 2: %d %d", sys.Next(0), sys.Next(1))
	}
}

func TestFramesInFlightOption(t *testing.T) {
	_, _, sys := newTestSystem(t, 3, WithFramesInFlight(0))
	if sys.FramesInFlight() != 1 {
		t.Errorf("FramesInFlight() = %d, want 1 for n<1", sys.FramesInFlight())
	}
	_, _, sys = newTestSystem(t, 3, WithFramesInFlight(3))
	if sys.Next(2) != 0 {
		t.Errorf("Next(2) = %d, want 0", sys.Next(2))
	}
}

func TestFrameSequence(t *testing.T) {
	dev, surf, sys := newTestSystem(t, 3)

	res, need := runFrame(t, sys, 0)
	if !res.OK || need {
		t.Fatalf("frame 0: ok=%v need=%v", res.OK, need)
	}

	want := []string{"wait fence3", "acquire 0", "reset fence3", "submit cmd0", "present 0 Success"}
	if !slices.Equal(dev.Log, want) {
		t.Fatalf("log = %q, want %q", dev.Log, want)
	}
	sub := dev.Submissions[0]
	if sub.Wait == nil || sub.Signal == nil || sub.Wait == sub.Signal {
		t.Errorf("submit semaphores wait=%v signal=%v", sub.Wait, sub.Signal)
	}
	if len(surf.Presented) != 1 || surf.Presented[0] != 0 {
		t.Errorf("presented = %v", surf.Presented)
	}
}

func TestSlotsReusedInOrder(t *testing.T) {
	dev, _, sys := newTestSystem(t, 3)
	fi := 0
	for i := 0; i < 6; i++ {
		runFrame(t, sys, fi)
		fi = sys.Next(fi)
	}

	var fences []string
	for _, l := range dev.Log {
		if len(l) > 5 && l[:5] == "wait " {
			fences = append(fences, l[5:])
		}
	}
	want := []string{"fence3", "fence7", "fence3", "fence7", "fence3", "fence7"}
	if !slices.Equal(fences, want) {
		t.Errorf("fence wait order = %v, want %v", fences, want)
	}
	for _, sub := range dev.Submissions {
		if sub.Fence == nil {
			t.Fatal("submission without fence")
		}
	}
}

func TestOutOfDateAcquireKeepsFenceSignaled(t *testing.T) {
	for _, st := range []gfx.Status{gfx.StatusOutOfDate, gfx.StatusSuboptimal} {
		t.Run(st.String(), func(t *testing.T) {
			_, surf, sys := newTestSystem(t, 2)
			surf.AcquireStatuses = []gfx.Status{st}

			res, err := sys.BeginFrame(context.Background(), 0)
			if err != nil {
				t.Fatalf("BeginFrame: %v", err)
			}
			if res.OK || !res.NeedRecreate {
				t.Fatalf("result = %+v, want NeedRecreate", res)
			}

			// Retrying the same slot must not wait on a fence that was reset without a submit.
			res, err = sys.BeginFrame(context.Background(), 0)
			if err != nil {
				t.Fatalf("retry BeginFrame: %v", err)
			}
			if !res.OK {
				t.Fatalf("retry result = %+v, want OK", res)
			}
		})
	}
}

func TestAcquireOutOfDateErrorIsTransient(t *testing.T) {
	_, surf, sys := newTestSystem(t, 2)
	surf.AcquireErr = errors.Wrap(gfx.ErrOutOfDate, "surface texture outdated")
	res, err := sys.BeginFrame(context.Background(), 0)
	if err != nil || !res.NeedRecreate {
		t.Fatalf("BeginFrame = %+v, %v; want NeedRecreate without error", res, err)
	}
}

func TestAcquireFailureIsFatal(t *testing.T) {
	_, surf, sys := newTestSystem(t, 2)
	surf.AcquireErr = errors.New("device removed")
	if _, err := sys.BeginFrame(context.Background(), 0); err == nil {
		t.Fatal("BeginFrame succeeded on a fatal acquire error")
	}
}

func TestPresentOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		status   gfx.Status
		err      error
		wantNeed bool
		wantErr  bool
	}{
		{"success", gfx.StatusSuccess, nil, false, false},
		{"suboptimal", gfx.StatusSuboptimal, nil, true, false},
		{"out of date", gfx.StatusOutOfDate, nil, true, false},
		{"out of date error", gfx.StatusSuccess, errors.Wrap(gfx.ErrOutOfDate, "present"), true, false},
		{"lost", gfx.StatusSuccess, errors.New("lost"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, surf, sys := newTestSystem(t, 2)
			surf.PresentStatuses = []gfx.Status{tt.status}
			surf.PresentErr = tt.err

			res, err := sys.BeginFrame(context.Background(), 0)
			if err != nil || !res.OK {
				t.Fatalf("BeginFrame = %+v, %v", res, err)
			}
			if _, err := sys.BeginCommands(0); err != nil {
				t.Fatal(err)
			}
			need, err := sys.EndFrame(0, res.ImageIndex)
			if need != tt.wantNeed {
				t.Errorf("need = %v, want %v", need, tt.wantNeed)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, gfx.ErrDeviceLost) {
				t.Errorf("fatal present error %v not marked ErrDeviceLost", err)
			}
		})
	}
}

func TestSubmitFailureIsFatal(t *testing.T) {
	dev, _, sys := newTestSystem(t, 2)
	dev.SubmitErr = errors.New("oom")
	res, _ := sys.BeginFrame(context.Background(), 0)
	if _, err := sys.BeginCommands(0); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.EndFrame(0, res.ImageIndex); !errors.Is(err, gfx.ErrDeviceLost) {
		t.Fatalf("EndFrame error = %v, want ErrDeviceLost", err)
	}
}

func TestLayoutTrackerResetOnRecreate(t *testing.T) {
	_, _, sys := newTestSystem(t, 3)
	sys.SetImageLayout(0, gfx.LayoutPresentSrc)
	sys.SetImageLayout(2, gfx.LayoutColorAttachment)

	sys.OnSwapchainRecreated(4)
	for i := uint32(0); i < 4; i++ {
		if l := sys.ImageLayout(i); l != gfx.LayoutUndefined {
			t.Errorf("image %d layout = %v after recreate, want Undefined", i, l)
		}
	}
	if l := sys.ImageLayout(99); l != gfx.LayoutUndefined {
		t.Errorf("untracked image layout = %v", l)
	}
}

func TestInvalidFrameIndex(t *testing.T) {
	_, _, sys := newTestSystem(t, 2)
	if _, err := sys.BeginFrame(context.Background(), 5); err == nil {
		t.Error("BeginFrame accepted an out of range slot")
	}
	if _, err := sys.BeginCommands(-1); err == nil {
		t.Error("BeginCommands accepted a negative slot")
	}
}

func TestCancelledContextStopsWait(t *testing.T) {
	_, _, sys := newTestSystem(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sys.BeginFrame(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("BeginFrame error = %v, want context.Canceled", err)
	}
}

func TestCloseReleasesSlots(t *testing.T) {
	dev, _, sys := newTestSystem(t, 0)
	if dev.Live() == 0 {
		t.Fatal("no slot objects were created")
	}
	if err := sys.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if dev.Live() != 0 {
		t.Errorf("%d handles still live after Close", dev.Live())
	}
	if dev.IdleCount != 1 {
		t.Errorf("Close waited idle %d times, want 1", dev.IdleCount)
	}
}
