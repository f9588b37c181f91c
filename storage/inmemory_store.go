package storage

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// InmemoryStore keeps the whole dataset as one JSON document shaped
// {"db":{"location":"value"}}. Values are stored as JSON strings keyed by
// sjson paths, which keeps Backup/Restore a straight byte copy.
type InmemoryStore struct {
	mu          sync.Mutex
	values      []byte
	updateChans []chan *Update

	// stop will be closed when Close() is called
	stop chan struct{}
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		values:      []byte("{}"),
		stop:        make(chan struct{}),
		updateChans: make([]chan *Update, 0),
	}
}

func (i *InmemoryStore) Close() error {
	if i.isRunning() {
		close(i.stop)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, updateChan := range i.updateChans {
		close(updateChan)
	}
	i.updateChans = nil

	return nil
}

func (i *InmemoryStore) Set(ctx context.Context, db, location string, value []byte) (err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	// Values go in base64 so arbitrary bytes survive the JSON document.
	i.values, err = sjson.SetBytes(i.values, path(db, location), base64.StdEncoding.EncodeToString(value))
	if err != nil {
		return err
	}

	if i.isRunning() {
		for _, updateChan := range i.updateChans {
			updateChan <- &Update{DB: db, Location: location, Value: value}
		}
	}

	return nil
}

func (i *InmemoryStore) Get(ctx context.Context, db, location string) ([]byte, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	result := gjson.GetBytes(i.values, path(db, location))
	if !result.Exists() {
		return nil, false, nil
	}

	value, err := base64.StdEncoding.DecodeString(result.String())
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

func (i *InmemoryStore) Delete(ctx context.Context, db, location string) (err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.values, err = sjson.DeleteBytes(i.values, path(db, location))
	return err
}

// CreateDB makes the database key exist as an empty object. Creating a
// database that already exists leaves it untouched.
func (i *InmemoryStore) CreateDB(ctx context.Context, db string) (err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if gjson.GetBytes(i.values, escape(db)).Exists() {
		return nil
	}

	i.values, err = sjson.SetRawBytes(i.values, escape(db), []byte("{}"))
	return err
}

func (i *InmemoryStore) DropDB(ctx context.Context, db string) (existed bool, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !gjson.GetBytes(i.values, escape(db)).Exists() {
		return false, nil
	}

	i.values, err = sjson.DeleteBytes(i.values, escape(db))
	return true, err
}

func (i *InmemoryStore) ListDB(ctx context.Context) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	names := make([]string, 0)
	gjson.ParseBytes(i.values).ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})

	return names, nil
}

func (i *InmemoryStore) ListenToUpdates() <-chan *Update {
	i.mu.Lock()
	defer i.mu.Unlock()

	updateChan := make(chan *Update, 255)
	i.updateChans = append(i.updateChans, updateChan)

	return updateChan
}

func (i *InmemoryStore) Restore(values []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.values = values
	return nil
}

func (i *InmemoryStore) Backup() ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.values) == 0 {
		return []byte("{}"), nil
	}

	return i.values, nil
}

// isRunning returns true if Close has not been called
func (i *InmemoryStore) isRunning() bool {
	select {
	case <-i.stop:
		return false

	default:
		return true
	}
}

// path builds the sjson path for a record. Dots in names would otherwise
// be read as path separators.
func path(db, location string) string {
	return escape(db) + "." + escape(location)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ".", `\.`)
	s = strings.ReplaceAll(s, "*", `\*`)
	s = strings.ReplaceAll(s, "?", `\?`)
	return s
}

var _ Store = (*InmemoryStore)(nil)
