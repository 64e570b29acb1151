package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
)

const (
	OfflineTitle   = "No internet connection"
	OfflineMessage = "Please connect to the internet to synchronize the surveys"

	maxInFlight = 8
)

// ErrRejected wraps a non-success status from the remote.
var ErrRejected = errors.New("ledger: remote rejected survey")

// Report describes one sync cycle.
type Report struct {
	// Offline is set when the cycle stopped before sending anything.
	Offline bool
	// Attempted counts the surveys posted.
	Attempted int
	Synced    []string
	Failed    []string
	// Err aggregates the per-survey failures. They never fail the cycle.
	Err error
}

// Sync pushes every unsynchronized survey to the remote, one request each,
// and flags the ones the remote accepted. The ledger is persisted once at
// the end. When the monitor says offline nothing is sent and the worker is
// shown a notice.
func (s *Surveys) Sync(ctx context.Context) (Report, error) {
	var report Report

	status, err := s.remote.Monitor.Status(ctx)
	if err != nil {
		log.Warnf("sync.network_status: %s", err)
	}
	if err != nil || !status.Connected {
		report.Offline = true
		if err := s.remote.Notifier.PresentBlockingNotice(ctx, OfflineTitle, OfflineMessage); err != nil {
			log.Warnf("sync.notice: %s", err)
		}
		return report, nil
	}

	pending := s.unsynced()
	report.Attempted = len(pending)
	if len(pending) == 0 {
		return report, nil
	}

	results := make([]error, len(pending))
	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for i, f := range pending {
		i, f := i, f
		g.Go(func() error {
			results[i] = s.post(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	var errs *multierror.Error
	var accepted []string
	for i, f := range pending {
		if results[i] != nil {
			errs = multierror.Append(errs, results[i])
			report.Failed = append(report.Failed, f.UUID)
			continue
		}
		accepted = append(accepted, f.UUID)
	}
	report.Err = errs.ErrorOrNil()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uuid := range accepted {
		if s.markSynced(uuid) {
			report.Synced = append(report.Synced, uuid)
		}
	}
	if err := s.persistLocked(ctx); err != nil {
		return report, err
	}

	log.WithFields(log.Fields{
		"attempted": report.Attempted,
		"synced":    len(report.Synced),
		"failed":    len(report.Failed),
	}).Info("sync.done")
	return report, nil
}

func (s *Surveys) post(ctx context.Context, f *model.Form) error {
	status, err := s.remote.Gateway.Post(ctx, s.remote.Endpoint, f)
	if err != nil {
		log.Warnf("sync.post: survey %s: %s", f.UUID, err)
		return fmt.Errorf("survey %s: %w", f.UUID, err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		log.Warnf("sync.post: survey %s: status %d", f.UUID, status)
		return fmt.Errorf("survey %s: %w (status %d)", f.UUID, ErrRejected, status)
	}
	log.Debugf("sync.post: survey %s: status %d", f.UUID, status)
	return nil
}

// AutoSync runs a sync cycle now and then every interval until ctx is done.
// Cycle errors are logged; the loop keeps going.
func (s *Surveys) AutoSync(ctx context.Context, every time.Duration, onCycle func(Report)) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		report, err := s.Sync(ctx)
		if err != nil {
			log.Errorf("sync.auto: %s", err)
		}
		if onCycle != nil {
			onCycle(report)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
