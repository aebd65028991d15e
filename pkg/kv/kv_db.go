package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	log "github.com/sirupsen/logrus"
)

var (
	ErrSnapshotNotFound = errors.New("road network snapshot not found")
)

type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

// Open a badger database at dir. an empty dir keeps everything in memory.
func Open(dir string) (*KVDB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return NewKVDB(db), nil
}

func snapshotKey(region string, network datastructure.NetworkType) []byte {
	return []byte(fmt.Sprintf("graph/%s/%s", region, network))
}

// SaveNetwork store a compressed snapshot of the road network, replacing any older one.
func (k *KVDB) SaveNetwork(ctx context.Context, network *datastructure.RoadNetwork) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	val, err := encodeNetwork(network)
	if err != nil {
		return err
	}

	err = k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(network.Region, network.Network), val)
	})
	if err != nil {
		return fmt.Errorf("saving snapshot %s/%s: %w", network.Region, network.Network, err)
	}

	log.WithFields(log.Fields{
		"component": "kv",
		"region":    network.Region,
		"network":   network.Network.String(),
		"bytes":     len(val),
	}).Info("road network snapshot saved")
	return nil
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// LoadNetwork read a snapshot saved by SaveNetwork.
func (k *KVDB) LoadNetwork(region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error) {
	val, err := k.get(snapshotKey(region, network))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrSnapshotNotFound, region, network)
	}
	if err != nil {
		return nil, err
	}
	return decodeNetwork(val)
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
