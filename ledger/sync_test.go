package ledger

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/network"
	"github.com/mbolis/field-survey/notice"
	"github.com/mbolis/field-survey/storage"
)

func pushAll(t *testing.T, s *Surveys, uuids ...string) {
	t.Helper()
	for _, u := range uuids {
		require.NoError(t, s.Push(context.Background(), form(u)))
	}
}

func flags(forms []*model.Form) map[string]bool {
	out := map[string]bool{}
	for _, f := range forms {
		out[f.UUID] = f.Synchronized
	}
	return out
}

func TestSyncOfflineIsNoop(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	rec := &notice.Recorder{}
	s := newSurveys(storage.New(storage.NewMemory()), gw, false, rec)
	pushAll(t, s, uuidA, uuidB)

	report, err := s.Sync(ctx)
	require.NoError(t, err)

	assert.True(t, report.Offline)
	assert.Empty(t, gw.Calls())
	assert.Equal(t, map[string]bool{uuidA: false, uuidB: false}, flags(s.List()))
	assert.Equal(t, []notice.Notice{{Title: OfflineTitle, Message: OfflineMessage}}, rec.Notices())
}

type brokenMonitor struct{}

func (brokenMonitor) Status(context.Context) (network.Status, error) {
	return network.Status{}, errors.New("no radio")
}

func TestSyncMonitorErrorCountsAsOffline(t *testing.T) {
	gw := &fakeGateway{}
	rec := &notice.Recorder{}
	s := NewSurveys(storage.New(storage.NewMemory()), "uploadSurveys", Remote{
		Gateway: gw, Endpoint: "uploadSurveys", Monitor: brokenMonitor{}, Notifier: rec,
	})
	pushAll(t, s, uuidA)

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Offline)
	assert.Empty(t, gw.Calls())
	assert.Len(t, rec.Notices(), 1)
}

func TestSyncPartition(t *testing.T) {
	ctx := context.Background()
	st := storage.New(storage.NewMemory())
	gw := &fakeGateway{
		statuses: map[string]int{uuidB: http.StatusInternalServerError},
		errs:     map[string]error{uuidC: errors.New("connection reset")},
	}
	s := newSurveys(st, gw, true, &notice.Recorder{})
	pushAll(t, s, uuidA, uuidB, uuidC)

	report, err := s.Sync(ctx)
	require.NoError(t, err)

	assert.False(t, report.Offline)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, []string{uuidA}, report.Synced)
	assert.ElementsMatch(t, []string{uuidB, uuidC}, report.Failed)
	assert.ErrorIs(t, report.Err, ErrRejected)
	assert.ElementsMatch(t, []string{uuidA, uuidB, uuidC}, gw.Calls())

	want := map[string]bool{uuidA: true, uuidB: false, uuidC: false}
	assert.Equal(t, want, flags(s.List()))

	// the flags are durable
	stored, err := st.Get(ctx, "uploadSurveys")
	require.NoError(t, err)
	assert.Equal(t, want, flags(stored))
}

func TestSyncOnlySendsUnsynced(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	s := newSurveys(storage.New(storage.NewMemory()), gw, true, &notice.Recorder{})
	pushAll(t, s, uuidA)

	_, err := s.Sync(ctx)
	require.NoError(t, err)
	pushAll(t, s, uuidB)

	report, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, []string{uuidA, uuidB}, gw.Calls())
}

func TestSyncFlagIsMonotonic(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	s := newSurveys(storage.New(storage.NewMemory()), gw, true, &notice.Recorder{})
	pushAll(t, s, uuidA)

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	// later cycles fail for everything; the synced flag must survive them
	gw.statuses = map[string]int{uuidA: http.StatusBadRequest}
	for i := 0; i < 3; i++ {
		_, err := s.Sync(ctx)
		require.NoError(t, err)
	}
	got, _ := s.Get(uuidA)
	assert.True(t, got.Synchronized)
	assert.Equal(t, uuidA, got.UUID)
}

func TestSyncPersistFailureKeepsFlagsInMemory(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: storage.New(storage.NewMemory())}
	s := newSurveys(st, &fakeGateway{}, true, &notice.Recorder{})
	pushAll(t, s, uuidA)

	st.fail = true
	report, err := s.Sync(ctx)
	assert.Error(t, err)
	assert.Equal(t, []string{uuidA}, report.Synced)
}

func TestAutoSyncStopsWithContext(t *testing.T) {
	gw := &fakeGateway{}
	s := newSurveys(storage.New(storage.NewMemory()), gw, true, &notice.Recorder{})
	pushAll(t, s, uuidA)

	ctx, cancel := context.WithCancel(context.Background())
	cycles := make(chan Report, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.AutoSync(ctx, 10*time.Millisecond, func(r Report) { cycles <- r })
	}()

	first := <-cycles
	assert.Equal(t, []string{uuidA}, first.Synced)
	second := <-cycles
	assert.Zero(t, second.Attempted)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("auto sync did not stop")
	}
}

// gatedGateway holds every post until release is closed.
type gatedGateway struct {
	fakeGateway
	arrived chan string
	release chan struct{}
}

func (g *gatedGateway) Post(ctx context.Context, endpoint string, f *model.Form) (int, error) {
	g.arrived <- f.UUID
	select {
	case <-g.release:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return g.fakeGateway.Post(ctx, endpoint, f)
}

func TestSyncFlagsByUUIDWhileLedgerChanges(t *testing.T) {
	const uuidX = "44444444-4444-4444-8444-444444444444"
	ctx := context.Background()
	st := storage.New(storage.NewMemory())
	gw := &gatedGateway{arrived: make(chan string, 4), release: make(chan struct{})}
	s := NewSurveys(st, "uploadSurveys", Remote{
		Gateway:  gw,
		Endpoint: "uploadSurveys",
		Monitor:  network.Static{Connected: true},
		Notifier: &notice.Recorder{},
	})
	pushAll(t, s, uuidA, uuidB)

	type result struct {
		report Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := s.Sync(ctx)
		done <- result{report, err}
	}()
	for i := 0; i < 2; i++ {
		select {
		case <-gw.arrived:
		case <-time.After(5 * time.Second):
			t.Fatal("posts never arrived")
		}
	}

	// a survey lands ahead of the pending ones and another behind them
	require.NoError(t, st.Set(ctx, "uploadSurveys", []*model.Form{form(uuidX)}))
	require.NoError(t, s.Load(ctx))
	pushAll(t, s, uuidC)
	ids := make([]string, 0, 4)
	for _, f := range s.List() {
		ids = append(ids, f.UUID)
	}
	require.Equal(t, []string{uuidX, uuidA, uuidB, uuidC}, ids)

	close(gw.release)
	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync never finished")
	}
	require.NoError(t, res.err)

	assert.ElementsMatch(t, []string{uuidA, uuidB}, res.report.Synced)
	assert.ElementsMatch(t, []string{uuidA, uuidB}, gw.Calls())
	want := map[string]bool{uuidX: false, uuidA: true, uuidB: true, uuidC: false}
	assert.Equal(t, want, flags(s.List()))

	stored, err := st.Get(ctx, "uploadSurveys")
	require.NoError(t, err)
	assert.Equal(t, want, flags(stored))
}
