// internal/adapters/out/memory/mintjob_repository.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	jobdom "promptmint/internal/domain/mintjob"
)

// MintJobRepository はプロセス内メモリ上のジョブジャーナルです。
// Firestore が構成されていない環境（ローカル開発・テスト）で使います。
type MintJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]jobdom.Job
}

var _ jobdom.Repository = (*MintJobRepository)(nil)

func NewMintJobRepository() *MintJobRepository {
	return &MintJobRepository{jobs: make(map[string]jobdom.Job)}
}

func (r *MintJobRepository) Save(_ context.Context, job jobdom.Job) error {
	id := strings.TrimSpace(job.ID)
	if id == "" {
		return jobdom.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = job
	return nil
}

func (r *MintJobRepository) GetByID(_ context.Context, id string) (jobdom.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[strings.TrimSpace(id)]
	if !ok {
		return jobdom.Job{}, jobdom.ErrNotFound
	}
	return job, nil
}

func (r *MintJobRepository) ListByState(_ context.Context, state jobdom.State, limit int) ([]jobdom.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []jobdom.Job
	for _, j := range r.jobs {
		if j.State == state {
			jobs = append(jobs, j)
		}
	}
	// 新しい順
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].UpdatedAt.After(jobs[k].UpdatedAt)
	})
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
