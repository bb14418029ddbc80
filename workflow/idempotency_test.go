package workflow

// DB-free tests of the idempotency state machine via the store seam: the
// dedupe decisions (skip / retry / reclaim) depend only on the existing row's
// status and age, not on MySQL.

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"gorm.io/gorm"
)

type fakeIdempotencyStore struct {
	rows   map[string]models.IdempotencyKey
	nextId int
	resets []int
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{rows: make(map[string]models.IdempotencyKey)}
}

func (s *fakeIdempotencyStore) rowKey(handlerName, messageId string) string {
	return handlerName + "|" + messageId
}

func (s *fakeIdempotencyStore) seed(handlerName, messageId string, status models.IdempotencyStatus, updatedAt time.Time) {
	s.nextId++
	s.rows[s.rowKey(handlerName, messageId)] = models.IdempotencyKey{
		ID:          s.nextId,
		HandlerName: handlerName,
		MessageId:   messageId,
		Status:      status,
		UpdatedAt:   updatedAt,
	}
}

func (s *fakeIdempotencyStore) insertStarted(handlerName, messageId string) (bool, error) {
	if _, ok := s.rows[s.rowKey(handlerName, messageId)]; ok {
		return true, nil
	}
	s.seed(handlerName, messageId, models.IdempotencyStatusStarted, time.Now())
	return false, nil
}

func (s *fakeIdempotencyStore) find(handlerName, messageId string) (models.IdempotencyKey, error) {
	row, ok := s.rows[s.rowKey(handlerName, messageId)]
	if !ok {
		return models.IdempotencyKey{}, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *fakeIdempotencyStore) reset(id int) error {
	s.resets = append(s.resets, id)
	for k, row := range s.rows {
		if row.ID == id {
			row.Status = models.IdempotencyStatusStarted
			row.LastError = nil
			s.rows[k] = row
		}
	}
	return nil
}

func TestBeginIdempotency_FirstDeliveryProceeds(t *testing.T) {
	store := newFakeIdempotencyStore()

	skip, err := beginIdempotency(store, HandlerPosSalesSync, "msg-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("first delivery must not be skipped")
	}

	row, err := store.find(HandlerPosSalesSync, "msg-1")
	if err != nil {
		t.Fatalf("expected STARTED row to exist: %v", err)
	}
	if row.Status != models.IdempotencyStatusStarted {
		t.Fatalf("status = %s, want STARTED", row.Status)
	}
}

func TestBeginIdempotency_RedeliveredSucceededSkips(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.seed(HandlerPosSalesSync, "msg-1", models.IdempotencyStatusSucceeded, time.Now().Add(-time.Hour))

	skip, err := beginIdempotency(store, HandlerPosSalesSync, "msg-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !skip {
		t.Fatal("re-delivery of a SUCCEEDED message must skip the upsert")
	}
	if len(store.resets) != 0 {
		t.Fatalf("SUCCEEDED row must not be reset; resets = %v", store.resets)
	}
}

func TestBeginIdempotency_FreshStartedIsInProgress(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.seed(HandlerPosSalesSync, "msg-1", models.IdempotencyStatusStarted, time.Now().Add(-time.Minute))

	_, err := beginIdempotency(store, HandlerPosSalesSync, "msg-1", time.Now())
	if !errors.Is(err, ErrIdempotencyInProgress) {
		t.Fatalf("err = %v, want ErrIdempotencyInProgress", err)
	}
	if len(store.resets) != 0 {
		t.Fatalf("fresh STARTED row must not be reclaimed; resets = %v", store.resets)
	}
}

func TestBeginIdempotency_StaleStartedIsReclaimed(t *testing.T) {
	store := newFakeIdempotencyStore()
	now := time.Now()
	store.seed(HandlerPosSalesSync, "msg-1", models.IdempotencyStatusStarted, now.Add(-idempotencyStaleAfter-time.Minute))

	skip, err := beginIdempotency(store, HandlerPosSalesSync, "msg-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("stale STARTED must be retried, not skipped")
	}
	if len(store.resets) != 1 {
		t.Fatalf("stale STARTED row must be reset exactly once; resets = %v", store.resets)
	}
}

func TestBeginIdempotency_FailedIsRetried(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.seed(HandlerPosSalesSync, "msg-1", models.IdempotencyStatusFailed, time.Now().Add(-time.Minute))

	skip, err := beginIdempotency(store, HandlerPosSalesSync, "msg-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("FAILED message must be retried, not skipped")
	}
	if len(store.resets) != 1 {
		t.Fatalf("FAILED row must be reset for the retry; resets = %v", store.resets)
	}
}
