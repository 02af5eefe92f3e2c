// Package badgerstore provides an embedded object store on BadgerDB.
//
// Objects are stored as JSON values under obj/{type}/{id} keys.
package badgerstore

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/agentstation/utc"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/objects"
)

const keyPrefix = "obj/"

// Store is a BadgerDB backed object store.
type Store struct {
	db *badger.DB
}

var _ objects.ClosableStore = (*Store)(nil)

// Open opens or creates a database in dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.NewConfigError("badger", "directory is required", nil)
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, errors.NewConfigError("badger", "failed to open database", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(typ, id string) []byte {
	return []byte(keyPrefix + typ + "/" + id)
}

func prefix(typ string) []byte {
	if typ == "" {
		return []byte(keyPrefix)
	}
	return []byte(keyPrefix + typ + "/")
}

// Find returns one page of objects matching opts, oldest first.
func (s *Store) Find(ctx context.Context, opts objects.FindOptions) (*objects.FindResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := []objects.Object{}
	err := s.db.View(func(txn *badger.Txn) error {
		p := prefix(opts.Type)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var obj objects.Object
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &obj)
			}); err != nil {
				return err
			}
			all = append(all, obj)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("find", opts.Type, "", err)
	}

	slices.SortStableFunc(all, func(a, b objects.Object) int {
		if c := a.UpdatedAt.Time.Compare(b.UpdatedAt.Time); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return objects.Page(all, opts), nil
}

// Get returns one object.
func (s *Store) Get(ctx context.Context, typ, id string) (*objects.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var obj objects.Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(typ, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &obj)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NewNotFoundError(typ, id)
	}
	if err != nil {
		return nil, errors.NewStoreError("get", typ, id, err)
	}
	return &obj, nil
}

// Create stores one object, assigning a UUID when ID is empty.
func (s *Store) Create(ctx context.Context, obj objects.Object, opts objects.CreateOptions) (*objects.Object, error) {
	created, err := s.BulkCreate(ctx, []objects.Object{obj}, opts)
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BulkCreate stores objs in one transaction.
func (s *Store) BulkCreate(ctx context.Context, objs []objects.Object, opts objects.CreateOptions) ([]objects.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := utc.Now()
	created := make([]objects.Object, 0, len(objs))
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, obj := range objs {
			if obj.Type == "" {
				return errors.NewValidationError("type", obj.Type, "is required")
			}
			if obj.ID == "" {
				obj.ID = uuid.NewString()
			}
			if len(obj.Attributes) == 0 {
				obj.Attributes = json.RawMessage(`{}`)
			}
			if !json.Valid(obj.Attributes) {
				return errors.NewValidationError("attributes", obj.ID, "must be valid JSON")
			}
			obj.UpdatedAt = now

			k := key(obj.Type, obj.ID)
			if !opts.Overwrite {
				_, err := txn.Get(k)
				if err == nil {
					return &errors.StoreError{
						Operation: "create",
						Type:      obj.Type,
						ID:        obj.ID,
						Status:    http.StatusConflict,
						Err:       errors.ErrAlreadyExists,
					}
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return errors.NewStoreError("create", obj.Type, obj.ID, err)
				}
			}

			val, err := json.Marshal(obj)
			if err != nil {
				return errors.NewStoreError("create", obj.Type, obj.ID, err)
			}
			if err := txn.Set(k, val); err != nil {
				return errors.NewStoreError("create", obj.Type, obj.ID, err)
			}
			created = append(created, obj)
		}
		return nil
	})
	if err != nil {
		var serr *errors.StoreError
		var verr *errors.ValidationError
		if errors.As(err, &serr) || errors.As(err, &verr) {
			return nil, err
		}
		return nil, errors.NewStoreError("bulk_create", "", "", err)
	}
	return created, nil
}

// Delete removes one object.
func (s *Store) Delete(ctx context.Context, typ, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(typ, id)
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.NewNotFoundError(typ, id)
	}
	if err != nil {
		return errors.NewStoreError("delete", typ, id, err)
	}
	return nil
}
