package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

var (
	// Bucket names
	bucketErrors  = []byte("errors")
	bucketActions = []byte("actions")
)

// Archive persists classified errors and recovery actions to BoltDB so
// the operator record survives supervisor restarts. Writes are
// best-effort: an archive failure never blocks the in-memory store.
type Archive struct {
	db     *bolt.DB
	logger func(err error, msg string)
}

// NewArchive opens (or creates) the archive database in dataDir
func NewArchive(dataDir string) (*Archive, error) {
	dbPath := filepath.Join(dataDir, "mend.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketErrors, bucketActions} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{
		db: db,
		logger: func(err error, msg string) {
			l := log.WithComponent("history")
			l.Error().Err(err).Msg(msg)
		},
	}, nil
}

// Close closes the archive database
func (a *Archive) Close() error {
	return a.db.Close()
}

// LoadErrors returns archived errors, oldest first
func (a *Archive) LoadErrors() ([]*types.ClassifiedError, error) {
	var errs []*types.ClassifiedError
	err := a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketErrors)
		return b.ForEach(func(k, v []byte) error {
			var cerr types.ClassifiedError
			if err := json.Unmarshal(v, &cerr); err != nil {
				return err
			}
			errs = append(errs, &cerr)
			return nil
		})
	})
	return errs, err
}

// LoadActions returns archived recovery actions, oldest first
func (a *Archive) LoadActions() ([]*types.RecoveryAction, error) {
	var actions []*types.RecoveryAction
	err := a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActions)
		return b.ForEach(func(k, v []byte) error {
			var action types.RecoveryAction
			if err := json.Unmarshal(v, &action); err != nil {
				return err
			}
			actions = append(actions, &action)
			return nil
		})
	})
	return actions, err
}

func (a *Archive) putError(cerr *types.ClassifiedError, limit int) {
	err := a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketErrors)
		data, err := json.Marshal(cerr)
		if err != nil {
			return err
		}
		if err := b.Put(archiveKey(cerr.Timestamp, cerr.ID), data); err != nil {
			return err
		}
		return prune(b, limit)
	})
	if err != nil {
		a.logger(err, "failed to archive error")
	}
}

func (a *Archive) putAction(action *types.RecoveryAction, limit int) {
	err := a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActions)
		data, err := json.Marshal(action)
		if err != nil {
			return err
		}
		if err := b.Put(archiveKey(action.Timestamp, action.ID), data); err != nil {
			return err
		}
		return prune(b, limit)
	})
	if err != nil {
		a.logger(err, "failed to archive recovery action")
	}
}

// archiveKey orders records by timestamp; the id suffix keeps keys unique
// for records created within the same nanosecond
func archiveKey(ts time.Time, id string) []byte {
	return []byte(ts.UTC().Format(time.RFC3339Nano) + "/" + id)
}

// prune deletes oldest entries until the bucket is within cap. The key
// count is taken by cursor walk so in-place overwrites (resolution and
// attempt updates re-put under the same key) never shrink the archive
// below its cap.
func prune(b *bolt.Bucket, limit int) error {
	if limit <= 0 {
		return nil
	}
	count := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		count++
	}
	for excess := count - limit; excess > 0; excess-- {
		c := b.Cursor()
		if k, _ := c.First(); k == nil {
			break
		}
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}
