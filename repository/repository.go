package repository

import (
	"encoding/json"
	"fmt"

	"braidsim/db"
	"braidsim/models"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a run is not archived.
var ErrNotFound = errors.New("run not found")

const (
	runPrefix   = "run:"
	blockPrefix = "block:"

	maxHeight = 9999999999 // widest height blockKey can pad
)

// It abstracts the storage layer from the business logic
type RunRepositoryInterface interface {
	PutRun(run *models.Run, blocks []models.Block) error
	GetRun(id string) (*models.Run, error)
	ListRuns() ([]*models.Run, error)
	GetBlocks(id string, from, to int) ([]models.Block, error)
	DeleteRun(id string) error
}

// RunRepository implements RunRepositoryInterface using LevelDB as the storage backend
type RunRepository struct {
	db *db.LevelDB
}

// NewRunRepository creates and returns a new RunRepository instance
func NewRunRepository(db *db.LevelDB) *RunRepository {
	return &RunRepository{db: db}
}

func runKey(id string) []byte {
	return []byte(runPrefix + id)
}

// blockKey zero-pads the height so key order is height order.
func blockKey(id string, h int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", blockPrefix, id, h))
}

func blockRunPrefix(id string) []byte {
	return []byte(blockPrefix + id + ":")
}

// PutRun stores the run record and every block in one batch.
func (r *RunRepository) PutRun(run *models.Run, blocks []models.Block) error {
	var batch db.Batch
	data, err := json.Marshal(run)
	if err != nil {
		return errors.Wrap(err, "encode run")
	}
	batch.Put(runKey(run.ID), data)

	for _, b := range blocks {
		b.Children = nil
		data, err := json.Marshal(b)
		if err != nil {
			return errors.Wrapf(err, "encode block %d", b.Height)
		}
		batch.Put(blockKey(run.ID, b.Height), data)
	}
	return errors.Wrapf(r.db.Write(&batch), "write run %s", run.ID)
}

// GetRun retrieves a run record by its ID
func (r *RunRepository) GetRun(id string) (*models.Run, error) {
	data, err := r.db.Get(runKey(id))
	if errors.Is(err, db.ErrNotFound) {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var run models.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", id)
	}
	return &run, nil
}

// ListRuns retrieves all run records, ordered by ID.
func (r *RunRepository) ListRuns() ([]*models.Run, error) {
	iter := r.db.NewIterator([]byte(runPrefix))
	defer iter.Release()

	var runs []*models.Run
	for iter.Next() {
		var run models.Run
		if err := json.Unmarshal(iter.Value(), &run); err != nil {
			return nil, errors.Wrapf(err, "decode %s", iter.Key())
		}
		runs = append(runs, &run)
	}
	return runs, iter.Error()
}

// GetBlocks returns the blocks of run id in heights [from, to). A negative to
// reads to the end.
func (r *RunRepository) GetBlocks(id string, from, to int) ([]models.Block, error) {
	if ok, err := r.db.Has(runKey(id)); err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	if from < 0 {
		from = 0
	}

	if to < 0 || to > maxHeight {
		to = maxHeight
	}
	iter := r.db.NewRangeIterator(blockKey(id, from), blockKey(id, to))
	defer iter.Release()

	var blocks []models.Block
	for iter.Next() {
		var b models.Block
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, errors.Wrapf(err, "decode %s", iter.Key())
		}
		blocks = append(blocks, b)
	}
	return blocks, iter.Error()
}

// DeleteRun removes the run record and its blocks.
func (r *RunRepository) DeleteRun(id string) error {
	if ok, err := r.db.Has(runKey(id)); err != nil {
		return err
	} else if !ok {
		return errors.Wrap(ErrNotFound, id)
	}

	var batch db.Batch
	batch.Delete(runKey(id))
	iter := r.db.NewIterator(blockRunPrefix(id))
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}
	return r.db.Write(&batch)
}
