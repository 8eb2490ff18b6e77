package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cuemby/capbit/internal/capbiterrors"
	"github.com/cuemby/capbit/internal/capbitconfig"
	"github.com/cuemby/capbit/internal/capbitlog"
	"github.com/cuemby/capbit/internal/capbitmetrics"
	bolt "go.etcd.io/bbolt"
)

// Bucket names for the seven sub-indexes plus the supporting entities/types
// existence markers and the meta bucket (spec §3).
var (
	RelationshipsBucket        = []byte("relationships")
	RelationshipsRevBucket     = []byte("relationships_rev")
	CapabilitiesBucket         = []byte("capabilities")
	InheritanceBucket          = []byte("inheritance")
	InheritanceBySourceBucket  = []byte("inheritance_by_source")
	InheritanceByObjectBucket  = []byte("inheritance_by_object")
	CapLabelsBucket            = []byte("cap_labels")
	EntitiesBucket             = []byte("entities")
	TypesBucket                = []byte("types")
	MetaBucket                 = []byte("meta")
)

var allBuckets = [][]byte{
	RelationshipsBucket,
	RelationshipsRevBucket,
	CapabilitiesBucket,
	InheritanceBucket,
	InheritanceBySourceBucket,
	InheritanceByObjectBucket,
	CapLabelsBucket,
	EntitiesBucket,
	TypesBucket,
	MetaBucket,
}

var (
	metaEpochKey        = []byte("epoch_counter")
	metaBootstrappedKey = []byte("bootstrapped")
)

// openPaths tracks which store paths currently have a live handle, modeling
// spec §9's "process-wide handle ... re-initialization without close is an
// error" without forcing a package-level singleton on every caller: two
// Stores opened against the same path without an intervening Close are
// rejected the same way a single global handle would reject them.
var openPaths sync.Map

// Handle is the store façade returned by Open.
type Handle struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if necessary) the backing store at cfg.Path and
// ensures every sub-index bucket exists.
func Open(cfg capbitconfig.Config) (*Handle, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: config.Path is empty")
	}
	if _, loaded := openPaths.LoadOrStore(cfg.Path, true); loaded {
		return nil, fmt.Errorf("store: %s is already open; call Close first", cfg.Path)
	}

	opts := &bolt.Options{Timeout: 5 * time.Second}
	if cfg.MaxSize > 0 {
		opts.InitialMmapSize = int(cfg.MaxSize)
	}
	db, err := bolt.Open(cfg.Path, 0600, opts)
	if err != nil {
		openPaths.Delete(cfg.Path)
		return nil, fmt.Errorf("store: open %s: %w", cfg.Path, err)
	}
	// MapSync selects the durability/throughput tradeoff: NoSync=false
	// fsyncs every commit, NoSync=true relaxes that for throughput.
	db.NoSync = !cfg.MapSync

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		openPaths.Delete(cfg.Path)
		return nil, fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}

	capbitlog.WithComponent("store").Info().Str("path", cfg.Path).Msg("store opened")
	return &Handle{db: db, path: cfg.Path}, nil
}

// Close releases the backing database.
func (h *Handle) Close() error {
	openPaths.Delete(h.path)
	if err := h.db.Close(); err != nil {
		return fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}
	return nil
}

// Txn wraps a single backing-store transaction, carrying the epoch reserved
// for it if it is a write transaction.
type Txn struct {
	tx       *bolt.Tx
	epoch    uint64
	writable bool
}

// Epoch returns the epoch stamped on tuples written in this transaction. It
// is only meaningful for write transactions.
func (t *Txn) Epoch() uint64 { return t.epoch }

// Writable reports whether this is a write transaction.
func (t *Txn) Writable() bool { return t.writable }

// Bucket returns one of the store's named buckets within this transaction.
func (t *Txn) Bucket(name []byte) *bolt.Bucket {
	return t.tx.Bucket(name)
}

// Commit commits the transaction.
func (t *Txn) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}
	if t.writable {
		capbitmetrics.EpochGauge.Set(float64(t.epoch))
	}
	return nil
}

// Rollback discards the transaction. It is safe to call after Commit has
// already succeeded or failed: bbolt then reports the transaction as closed,
// and that error is ignored.
func (t *Txn) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != bolt.ErrTxClosed {
		return fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}
	return nil
}

// BeginRead starts a read-only transaction over a consistent snapshot. It
// never blocks on other transactions, only on I/O.
func (h *Handle) BeginRead() (*Txn, error) {
	tx, err := h.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}
	return &Txn{tx: tx, writable: false}, nil
}

// BeginWrite starts a write transaction and eagerly reserves the next epoch
// as its first act, so every tuple the transaction writes shares one epoch
// (spec §4.1).
func (h *Handle) BeginWrite() (*Txn, error) {
	tx, err := h.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}

	meta := tx.Bucket(MetaBucket)
	current := decodeEpoch(meta.Get(metaEpochKey))
	if current == math.MaxUint64 {
		_ = tx.Rollback()
		return nil, capbiterrors.ErrFatalEpochOverflow
	}
	next := current + 1
	if err := meta.Put(metaEpochKey, encodeEpoch(next)); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: %v", capbiterrors.ErrStorageError, err)
	}

	return &Txn{tx: tx, epoch: next, writable: true}, nil
}

// IsBootstrapped reports whether the bootstrap meta flag has been set.
func (h *Handle) IsBootstrapped() (bool, error) {
	txn, err := h.BeginRead()
	if err != nil {
		return false, err
	}
	defer func() { _ = txn.Rollback() }()
	return txn.Bucket(MetaBucket).Get(metaBootstrappedKey) != nil, nil
}

// MarkBootstrapped sets the bootstrap meta flag within an already-open write
// transaction. It fails if the flag is already set (spec §3 invariant 5).
func MarkBootstrapped(txn *Txn) error {
	meta := txn.Bucket(MetaBucket)
	if meta.Get(metaBootstrappedKey) != nil {
		return capbiterrors.ErrAlreadyBootstrapped
	}
	return meta.Put(metaBootstrappedKey, []byte{1})
}

func encodeEpoch(v uint64) []byte { return EncodeEpoch(v) }

func decodeEpoch(b []byte) uint64 { return DecodeEpoch(b) }

// EncodeEpoch renders an epoch as the 8-byte big-endian value stored with
// every relationship, inheritance, and meta tuple (spec §3, §6).
func EncodeEpoch(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// DecodeEpoch is the inverse of EncodeEpoch. An undersized buffer decodes to
// zero rather than panicking, so a missing key reads as epoch 0.
func DecodeEpoch(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// EncodeMask renders a 64-bit capability mask as its 8-byte big-endian wire
// form (spec §6).
func EncodeMask(v uint64) []byte { return EncodeEpoch(v) }

// DecodeMask is the inverse of EncodeMask.
func DecodeMask(b []byte) uint64 { return DecodeEpoch(b) }
