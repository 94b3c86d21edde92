// Package runner executes simulations on request, archives them and answers
// queries about archived runs.
package runner

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"braidsim/dag"
	"braidsim/export"
	"braidsim/logger"
	"braidsim/metrics"
	"braidsim/models"
	"braidsim/repository"
	"braidsim/sim"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrUnknownRun is returned for run IDs that are not archived.
	ErrUnknownRun = errors.New("unknown run")
	// ErrTooManyBlocks is returned when a request exceeds the block limit.
	ErrTooManyBlocks = errors.New("too many blocks requested")
)

// Service runs simulations and serves archived ones. Stores of recent runs
// are cached so cohort and DOT queries do not reload every block.
type Service struct {
	repo      repository.RunRepositoryInterface
	cache     *lru.Cache
	maxBlocks int
	mux       sync.Mutex // serializes archive writes
}

// NewService creates a service keeping up to cacheSize runs in memory.
// maxBlocks caps the size of requested runs; 0 disables the cap.
func NewService(repo repository.RunRepositoryInterface, cacheSize, maxBlocks int) (*Service, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create run cache")
	}
	return &Service{repo: repo, cache: cache, maxBlocks: maxBlocks}, nil
}

// Execute runs cfg to completion, archives the result and returns the record.
func (s *Service) Execute(ctx context.Context, cfg sim.Config) (*models.Run, error) {
	if s.maxBlocks > 0 && cfg.Blocks > s.maxBlocks {
		return nil, errors.Wrapf(ErrTooManyBlocks, "%d > %d", cfg.Blocks, s.maxBlocks)
	}
	simulation, err := sim.New(cfg)
	if err != nil {
		return nil, err
	}
	res, err := simulation.Run(ctx)
	if err != nil {
		return nil, err
	}
	return s.Archive(res)
}

// Archive stores a finished run under a fresh ID.
func (s *Service) Archive(res *sim.Result) (*models.Run, error) {
	raw, err := json.Marshal(res.Config)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	run := &models.Run{
		ID:        uuid.New().String(),
		Strategy:  res.Config.Strategy,
		Seed:      res.Config.Seed,
		Config:    raw,
		Summary:   res.Summary(),
		CreatedAt: nowMillis(),
		Elapsed:   res.Elapsed.Milliseconds(),
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	if err := s.repo.PutRun(run, res.Store.Blocks(0, res.Store.Len())); err != nil {
		return nil, err
	}
	s.cache.Add(run.ID, res.Store)

	logger.Logger.Info("Archived run",
		zap.String("run_id", run.ID),
		zap.String("strategy", run.Strategy),
		zap.Int("blocks", res.Store.Len()))
	return run, nil
}

// Get returns the record of run id.
func (s *Service) Get(id string) (*models.Run, error) {
	run, err := s.repo.GetRun(id)
	return run, translate(err, id)
}

// List returns every archived run.
func (s *Service) List() ([]*models.Run, error) {
	return s.repo.ListRuns()
}

// Blocks returns the blocks of run id in heights [from, to), children
// included.
func (s *Service) Blocks(id string, from, to int) ([]models.Block, error) {
	st, err := s.store(id)
	if err != nil {
		return nil, err
	}
	if to < 0 {
		to = st.Len()
	}
	return st.Blocks(from, to), nil
}

// Cohorts walks run id in direction dir and returns up to limit cohorts
// (all of them when limit <= 0). Forward walks start at genesis, backward
// walks at the tip frontier.
func (s *Service) Cohorts(id string, limit int, dir dag.Direction) ([]models.Cohort, error) {
	st, err := s.store(id)
	if err != nil {
		return nil, err
	}

	seed := []int{0}
	if dir == dag.Backward {
		seed = st.Tips()
	}
	groups := st.Cohorts(seed, dir).All(limit)

	cohorts := make([]models.Cohort, len(groups))
	for i, heights := range groups {
		c := models.Cohort{Index: i, Heights: heights, Start: st.Time(heights[0]), End: st.Time(heights[0])}
		for _, h := range heights {
			if t := st.Time(h); t < c.Start {
				c.Start = t
			} else if t > c.End {
				c.End = t
			}
		}
		cohorts[i] = c
	}
	return cohorts, nil
}

// DOT renders heights [from, to) of run id.
func (s *Service) DOT(id string, from, to int) (string, error) {
	st, err := s.store(id)
	if err != nil {
		return "", err
	}
	if to < 0 {
		to = st.Len()
	}
	return export.DOT(st, from, to), nil
}

// Verify reloads run id and checks its structure. A nil error means the
// archived braid is consistent.
func (s *Service) Verify(id string) error {
	st, err := s.store(id)
	if err != nil {
		return err
	}
	return st.Verify()
}

// Delete removes run id from the archive and the cache.
func (s *Service) Delete(id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.cache.Remove(id)
	return translate(s.repo.DeleteRun(id), id)
}

func (s *Service) cached(id string) (*dag.Store, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return v.(*dag.Store), true
}

// store returns the in-memory DAG of run id, reloading it from the archive
// on a cache miss. The horizon comes from the archived config.
func (s *Service) store(id string) (*dag.Store, error) {
	if st, ok := s.cached(id); ok {
		return st, nil
	}
	run, err := s.repo.GetRun(id)
	if err != nil {
		return nil, translate(err, id)
	}
	var cfg sim.Config
	if err := json.Unmarshal(run.Config, &cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config of run %s", id)
	}
	blocks, err := s.repo.GetBlocks(id, 0, -1)
	if err != nil {
		return nil, translate(err, id)
	}
	st, err := dag.FromBlocks(blocks)
	if err != nil {
		return nil, errors.Wrapf(err, "reload run %s", id)
	}
	st.SetHorizon(cfg.Warmup())
	s.cache.Add(id, st)
	logger.Logger.Debug("Reloaded run from archive", zap.String("run_id", id), zap.Int("blocks", st.Len()))
	return st, nil
}

func translate(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errors.Wrap(ErrUnknownRun, id)
	}
	return err
}

// nowMillis returns current time in milliseconds
func nowMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
