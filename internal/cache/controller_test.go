package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/garage-status/internal/garage"
	"github.com/pfrederiksen/garage-status/internal/logger"
	"github.com/pfrederiksen/garage-status/internal/scraper"
	testingclock "k8s.io/utils/clock/testing"
)

// fakeSource returns the next configured result on each fetch
type fakeSource struct {
	mu      sync.Mutex
	calls   int32
	results []garage.Set
	errs    []error
}

func (f *fakeSource) FetchGarages(ctx context.Context) (garage.Set, error) {
	n := atomic.AddInt32(&f.calls, 1)

	f.mu.Lock()
	defer f.mu.Unlock()
	i := int(n) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return garage.Set{}, nil
}

func (f *fakeSource) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

var epoch = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newTestController(source Source) (*Controller, *testingclock.FakeClock, *bytes.Buffer) {
	clk := testingclock.NewFakeClock(epoch)
	var buf bytes.Buffer
	ctl := New(source, WithClock(clk), WithLogger(logger.New(logger.LevelDebug, &buf)))
	return ctl, clk, &buf
}

func TestRefresh_FirstCallFetches(t *testing.T) {
	source := &fakeSource{results: []garage.Set{{garage.New("Garage A", 10, 20)}}}
	ctl, _, _ := newTestController(source)

	got := ctl.Refresh(context.Background())

	if source.Calls() != 1 {
		t.Errorf("source called %d times, want 1", source.Calls())
	}
	if len(got) != 1 || got[0].Name != "Garage A" {
		t.Errorf("Refresh() = %+v, want Garage A", got)
	}
	if !ctl.LastChecked().Equal(epoch) {
		t.Errorf("LastChecked() = %v, want %v", ctl.LastChecked(), epoch)
	}
}

func TestRefresh_NoRefetchInsideWindow(t *testing.T) {
	source := &fakeSource{results: []garage.Set{
		{garage.New("Garage A", 10, 20)},
		{garage.New("Garage B", 1, 2)},
	}}
	ctl, clk, _ := newTestController(source)

	first := ctl.Refresh(context.Background())
	clk.Step(30 * time.Second)
	second := ctl.Refresh(context.Background())
	clk.Step(DefaultThreshold - 30*time.Second - time.Nanosecond)
	third := ctl.Refresh(context.Background())

	if source.Calls() != 1 {
		t.Errorf("source called %d times, want 1", source.Calls())
	}
	for i, got := range []garage.Set{second, third} {
		if len(got) != len(first) || got[0] != first[0] {
			t.Errorf("refresh %d = %+v, want %+v", i+2, got, first)
		}
	}
}

func TestRefresh_RefetchAfterThreshold(t *testing.T) {
	source := &fakeSource{results: []garage.Set{
		{garage.New("Garage A", 10, 20)},
		{garage.New("Garage A", 2, 20), garage.New("Garage B", 5, 50)},
	}}
	ctl, clk, _ := newTestController(source)

	ctl.Refresh(context.Background())
	clk.Step(DefaultThreshold)
	got := ctl.Refresh(context.Background())

	if source.Calls() != 2 {
		t.Errorf("source called %d times, want 2", source.Calls())
	}
	if len(got) != 2 {
		t.Fatalf("Refresh() returned %d garages, want 2", len(got))
	}
	if got[0].Available != 2 || got[1].Name != "Garage B" {
		t.Errorf("Refresh() = %+v, want new data", got)
	}
	if want := epoch.Add(DefaultThreshold); !ctl.LastChecked().Equal(want) {
		t.Errorf("LastChecked() = %v, want %v", ctl.LastChecked(), want)
	}
}

func TestRefresh_FailureReturnsEmptyAndAdvancesTimestamp(t *testing.T) {
	fetchErr := fmt.Errorf("%w: unexpected status code: 503", scraper.ErrFetch)
	source := &fakeSource{
		results: []garage.Set{{garage.New("Garage A", 10, 20)}},
		errs:    []error{nil, fetchErr},
	}
	ctl, clk, buf := newTestController(source)

	ctl.Refresh(context.Background())
	clk.Step(DefaultThreshold + time.Second)
	failedAt := clk.Now()

	got := ctl.Refresh(context.Background())

	if got == nil || len(got) != 0 {
		t.Errorf("Refresh() after failure = %+v, want empty set", got)
	}
	if !ctl.LastChecked().Equal(failedAt) {
		t.Errorf("LastChecked() = %v, want %v", ctl.LastChecked(), failedAt)
	}
	if len(ctl.Garages()) != 0 {
		t.Errorf("cached set = %+v, want it replaced with empty", ctl.Garages())
	}

	logged := buf.String()
	if !strings.Contains(logged, `"stage":"fetch"`) || !strings.Contains(logged, "503") {
		t.Errorf("failure log = %q, want stage and cause", logged)
	}

	// No retry until the window passes again
	clk.Step(time.Minute)
	ctl.Refresh(context.Background())
	if source.Calls() != 2 {
		t.Errorf("source called %d times, want 2", source.Calls())
	}
}

func TestRefresh_ParseFailureLoggedWithStage(t *testing.T) {
	source := &fakeSource{errs: []error{fmt.Errorf("%w: malformed count", scraper.ErrParse)}}
	ctl, _, buf := newTestController(source)

	got := ctl.Refresh(context.Background())

	if len(got) != 0 {
		t.Errorf("Refresh() = %+v, want empty set", got)
	}
	if !strings.Contains(buf.String(), `"stage":"parse"`) {
		t.Errorf("failure log = %q, want parse stage", buf.String())
	}
}

func TestRefresh_UnknownFailureStillSwallowed(t *testing.T) {
	source := &fakeSource{errs: []error{errors.New("boom")}}
	ctl, _, _ := newTestController(source)

	if got := ctl.Refresh(context.Background()); len(got) != 0 {
		t.Errorf("Refresh() = %+v, want empty set", got)
	}
}

// blockingSource holds every fetch until release is closed
type blockingSource struct {
	calls   int32
	started chan struct{}
	release chan struct{}
	result  garage.Set
}

func (b *blockingSource) FetchGarages(ctx context.Context) (garage.Set, error) {
	if atomic.AddInt32(&b.calls, 1) == 1 {
		close(b.started)
	}
	<-b.release
	return b.result, nil
}

func TestRefresh_ConcurrentCallersShareOneFetch(t *testing.T) {
	source := &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  garage.Set{garage.New("Garage C", 100, 200)},
	}
	ctl, _, _ := newTestController(source)

	const callers = 10
	results := make([]garage.Set, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = ctl.Refresh(context.Background())
	}()

	<-source.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ctl.Refresh(context.Background())
		}(i)
	}

	close(source.release)
	wg.Wait()

	if calls := atomic.LoadInt32(&source.calls); calls != 1 {
		t.Errorf("source called %d times, want 1", calls)
	}
	for i, got := range results {
		if len(got) != 1 || got[0].Name != "Garage C" {
			t.Errorf("caller %d got %+v, want Garage C", i, got)
		}
	}
}

func TestRefresh_CancelledCallerDoesNotAbortFetch(t *testing.T) {
	var sawCancel atomic.Bool
	source := sourceFunc(func(ctx context.Context) (garage.Set, error) {
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return garage.Set{garage.New("Garage D", 1, 2)}, nil
	})
	ctl, _, _ := newTestController(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := ctl.Refresh(ctx)
	if sawCancel.Load() {
		t.Error("fetch saw the caller's cancellation")
	}
	if len(got) != 1 {
		t.Errorf("Refresh() = %+v, want one garage", got)
	}
}

type sourceFunc func(ctx context.Context) (garage.Set, error)

func (f sourceFunc) FetchGarages(ctx context.Context) (garage.Set, error) {
	return f(ctx)
}

func TestNew_Defaults(t *testing.T) {
	ctl := New(&fakeSource{})

	if ctl.threshold != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", ctl.threshold, DefaultThreshold)
	}
	if !ctl.LastChecked().IsZero() {
		t.Errorf("LastChecked() = %v, want zero", ctl.LastChecked())
	}
	if ctl.Garages() == nil {
		t.Error("Garages() = nil, want empty set")
	}
	if ctl.log == nil {
		t.Error("logger is nil")
	}
}

func TestWithThreshold(t *testing.T) {
	source := &fakeSource{}
	clk := testingclock.NewFakeClock(epoch)
	ctl := New(source, WithClock(clk), WithThreshold(10*time.Second), WithLogger(logger.New(logger.LevelError, &bytes.Buffer{})))

	ctl.Refresh(context.Background())
	clk.Step(10 * time.Second)
	ctl.Refresh(context.Background())

	if source.Calls() != 2 {
		t.Errorf("source called %d times, want 2", source.Calls())
	}
}
