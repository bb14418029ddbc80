package workflow

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

// A STARTED row older than this is assumed abandoned (worker crashed mid-run)
// and gets reclaimed instead of blocking retries forever.
const idempotencyStaleAfter = 5 * time.Minute

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// idempotencyStore is the persistence seam for the idempotency state machine.
// The gorm implementation runs inside the caller's transaction; tests use an
// in-memory fake.
type idempotencyStore interface {
	// insertStarted inserts a STARTED row, reporting duplicate=true when a
	// row for (handlerName, messageId) already exists.
	insertStarted(handlerName, messageId string) (duplicate bool, err error)
	find(handlerName, messageId string) (models.IdempotencyKey, error)
	// reset flips an existing row back to STARTED and clears its error.
	reset(id int) error
}

type gormIdempotencyStore struct {
	tx *gorm.DB
}

func (s gormIdempotencyStore) insertStarted(handlerName, messageId string) (bool, error) {
	row := models.IdempotencyKey{
		HandlerName: handlerName,
		MessageId:   messageId,
		Status:      models.IdempotencyStatusStarted,
	}
	err := s.tx.Create(&row).Error
	if err == nil {
		return false, nil
	}
	if isDuplicateKeyErr(err) {
		return true, nil
	}
	return false, err
}

func (s gormIdempotencyStore) find(handlerName, messageId string) (models.IdempotencyKey, error) {
	var existing models.IdempotencyKey
	err := s.tx.Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		First(&existing).Error
	return existing, err
}

func (s gormIdempotencyStore) reset(id int) error {
	return s.tx.Model(&models.IdempotencyKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
}

// BeginIdempotency inserts STARTED. If SUCCEEDED exists, returns (true, nil) meaning "skip safely".
func BeginIdempotency(tx *gorm.DB, handlerName, messageId string) (skip bool, err error) {
	return beginIdempotency(gormIdempotencyStore{tx: tx}, handlerName, messageId, time.Now())
}

func beginIdempotency(store idempotencyStore, handlerName, messageId string, now time.Time) (skip bool, err error) {
	duplicate, err := store.insertStarted(handlerName, messageId)
	if err != nil {
		return false, err
	}
	if !duplicate {
		return false, nil
	}

	existing, err := store.find(handlerName, messageId)
	if err != nil {
		return false, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return true, nil
	case models.IdempotencyStatusStarted:
		// If another worker is currently processing, ask the pusher to retry.
		// If it's stale, let it retry by reusing the same row (set STARTED again).
		if now.Sub(existing.UpdatedAt) < idempotencyStaleAfter {
			return false, ErrIdempotencyInProgress
		}
		return false, store.reset(existing.ID)
	default:
		return false, store.reset(existing.ID)
	}
}

func MarkIdempotencySucceeded(tx *gorm.DB, handlerName, messageId string) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusSucceeded, "last_error": nil}).Error
}

func MarkIdempotencyFailed(tx *gorm.DB, handlerName, messageId string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return tx.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}
