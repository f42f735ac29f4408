package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/client"
	"github.com/dmitrijs2005/kenala/internal/client/localstore"
	"github.com/dmitrijs2005/kenala/internal/client/metrics"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// JournalStore is the part of the local store the journal service uses.
type JournalStore interface {
	Query(ctx context.Context, userID string) (<-chan []models.Journal, func())
	GetByID(ctx context.Context, id string) (*models.Journal, error)
	GetUnsynced(ctx context.Context, userID string) ([]models.Journal, error)
	Upsert(ctx context.Context, j models.Journal) error
	DeleteByID(ctx context.Context, id string) error
	ReplaceSynced(ctx context.Context, userID string, list []models.Journal) (int64, error)
	Promote(ctx context.Context, oldID string, j models.Journal) error
}

// JournalService keeps the local journal cache and the backend in step.
//
// Contract:
//   - Observe never touches the network; it streams the local cache.
//   - Create always succeeds unless the local store fails: when the backend
//     cannot take the entry it is kept locally with a provisional id.
//   - Update and Delete of confirmed entries are server first and leave the
//     cache untouched on failure. Provisional entries are edited locally.
//   - Refresh and Reconcile run only when the caller asks.
//
// Remote failures are returned as *Error, local store failures wrap
// ErrLocalStorage, and a cancelled context is returned as ctx.Err().
type JournalService interface {
	Observe(ctx context.Context, userID string) (<-chan []models.Journal, func())
	Get(ctx context.Context, id string) (*models.Journal, error)
	Pending(ctx context.Context, userID string) ([]models.Journal, error)
	Refresh(ctx context.Context, userID string) (RefreshReport, error)
	Create(ctx context.Context, userID string, f models.JournalFields) (models.Journal, error)
	Update(ctx context.Context, id string, f models.JournalFields) (models.Journal, error)
	Delete(ctx context.Context, id string) error
	Reconcile(ctx context.Context, userID string) (ReconcileReport, error)
}

// RefreshReport summarizes a refresh.
type RefreshReport struct {
	Fetched int
	Pruned  int
}

// ReconcileReport summarizes a reconciliation sweep. Failures maps the
// provisional id of every entry that stayed unsynced to the reason.
type ReconcileReport struct {
	Attempted int
	Synced    int
	Failed    int
	Failures  map[string]error
}

type journalService struct {
	client  client.JournalAPI
	store   JournalStore
	log     logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewJournalService(api client.JournalAPI, store JournalStore, log logging.Logger, m *metrics.Metrics) JournalService {
	return &journalService{
		client:  api,
		store:   store,
		log:     log.With("module", "journals"),
		metrics: m,
		now:     time.Now,
	}
}

func (s *journalService) Observe(ctx context.Context, userID string) (<-chan []models.Journal, func()) {
	return s.store.Query(ctx, userID)
}

func (s *journalService) Get(ctx context.Context, id string) (*models.Journal, error) {
	j, err := s.store.GetByID(ctx, id)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return j, nil
}

func (s *journalService) Pending(ctx context.Context, userID string) ([]models.Journal, error) {
	list, err := s.store.GetUnsynced(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

// Refresh replaces the synced part of the cache with the server list.
// On failure the cache is left untouched.
func (s *journalService) Refresh(ctx context.Context, userID string) (RefreshReport, error) {
	payloads, err := s.client.ListJournals(ctx)
	if err != nil {
		s.metrics.Refresh(metrics.OutcomeFailed)
		return RefreshReport{}, remoteError(err)
	}

	list := make([]models.Journal, 0, len(payloads))
	for _, p := range payloads {
		if p.ID == "" {
			s.log.Warn(ctx, "skipping journal without id in server list")
			continue
		}
		list = append(list, models.JournalFromPayload(p, userID))
	}

	pruned, err := s.store.ReplaceSynced(ctx, userID, list)
	if err != nil {
		s.metrics.Refresh(metrics.OutcomeFailed)
		return RefreshReport{}, storageError(err)
	}

	s.metrics.Refresh(metrics.OutcomeOK)
	s.log.Debug(ctx, "journals refreshed", "user_id", userID, "fetched", len(list), "pruned", pruned)
	return RefreshReport{Fetched: len(list), Pruned: int(pruned)}, nil
}

// Create stores a new entry, server first. When the server call fails for
// any reason the entry is stored locally with a provisional id and
// Synced=false, and the call still succeeds.
func (s *journalService) Create(ctx context.Context, userID string, f models.JournalFields) (models.Journal, error) {
	payload, err := s.client.CreateJournal(ctx, f.Request())
	if err == nil && payload.ID == "" {
		err = client.ErrEmptyResponse
	}
	if err == nil {
		j := models.JournalFromPayload(*payload, userID)
		if err := s.store.Upsert(ctx, j); err != nil {
			return models.Journal{}, storageError(err)
		}
		s.metrics.JournalOp("create", metrics.OutcomeOK)
		return j, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.Journal{}, ctxErr
	}

	s.log.Warn(ctx, "remote create failed, keeping journal locally", "error", err)
	j := models.NewLocalJournal(userID, f, s.now())
	if err := s.store.Upsert(ctx, j); err != nil {
		return models.Journal{}, storageError(err)
	}
	s.metrics.JournalOp("create", metrics.OutcomeLocal)
	return j, nil
}

// Update edits an entry. Provisional entries are edited in the cache only
// and stay unsynced; the next reconciliation sends the new values.
func (s *journalService) Update(ctx context.Context, id string, f models.JournalFields) (models.Journal, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Journal{}, err
	}

	if models.IsLocalID(existing.ID) {
		j := existing.Apply(f)
		j.Synced = false
		if err := s.store.Upsert(ctx, j); err != nil {
			return models.Journal{}, storageError(err)
		}
		s.metrics.JournalOp("update", metrics.OutcomeLocal)
		return j, nil
	}

	payload, err := s.client.UpdateJournal(ctx, id, f.Request())
	if err == nil && payload.ID == "" {
		err = client.ErrEmptyResponse
	}
	if err != nil {
		s.metrics.JournalOp("update", metrics.OutcomeRejected)
		return models.Journal{}, remoteError(err)
	}

	j := models.JournalFromPayload(*payload, existing.UserID)
	if err := s.store.Promote(ctx, id, j); err != nil {
		return models.Journal{}, storageError(err)
	}
	s.metrics.JournalOp("update", metrics.OutcomeOK)
	return j, nil
}

// Delete removes an entry, server first. Any server failure, 404 included,
// is returned and the cached copy stays; a refresh prunes entries the
// server no longer lists.
func (s *journalService) Delete(ctx context.Context, id string) error {
	if models.IsLocalID(id) {
		if err := s.store.DeleteByID(ctx, id); err != nil {
			return storageError(err)
		}
		s.metrics.JournalOp("delete", metrics.OutcomeLocal)
		return nil
	}

	if err := s.client.DeleteJournal(ctx, id); err != nil {
		s.metrics.JournalOp("delete", metrics.OutcomeRejected)
		return remoteError(err)
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return storageError(err)
	}
	s.metrics.JournalOp("delete", metrics.OutcomeOK)
	return nil
}

// Reconcile pushes every unsynced entry of userID, oldest first. Each
// confirmed entry replaces its provisional copy. A per-entry rejection is
// recorded and the sweep continues; when the server is unreachable the
// remaining entries are counted as failed without further calls.
func (s *journalService) Reconcile(ctx context.Context, userID string) (ReconcileReport, error) {
	pending, err := s.store.GetUnsynced(ctx, userID)
	if err != nil {
		return ReconcileReport{}, storageError(err)
	}

	report := ReconcileReport{Attempted: len(pending), Failures: map[string]error{}}
	defer func() {
		s.metrics.Reconciled(metrics.OutcomeOK, report.Synced)
		s.metrics.Reconciled(metrics.OutcomeFailed, report.Failed)
	}()

	var unreachable error
	for _, local := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if unreachable != nil {
			report.Failed++
			report.Failures[local.ID] = unreachable
			continue
		}

		payload, err := s.client.CreateJournal(ctx, local.Fields().Request())
		if err == nil && payload.ID == "" {
			err = client.ErrEmptyResponse
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			rerr := remoteError(err)
			if IsKind(rerr, KindRemoteUnavailable) {
				unreachable = rerr
			}
			s.log.Warn(ctx, "reconcile failed", "id", local.ID, "error", err)
			report.Failed++
			report.Failures[local.ID] = rerr
			continue
		}

		confirmed := models.JournalFromPayload(*payload, local.UserID)
		if err := s.store.Promote(ctx, local.ID, confirmed); err != nil {
			return report, storageError(err)
		}
		report.Synced++
	}

	if report.Attempted > 0 {
		s.log.Info(ctx, "reconciliation finished", "user_id", userID,
			"attempted", report.Attempted, "synced", report.Synced, "failed", report.Failed)
	}
	return report, nil
}
