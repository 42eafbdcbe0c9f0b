// Package pool runs independent jobs on a bounded number of goroutines.
package pool

import (
	"runtime"
	"sync"
)

// MaxWorkers caps the default pool size.
const MaxWorkers = 32

// WorkerPool provides a reusable worker pool pattern for parallel processing.
// It manages job distribution across multiple workers and collects results.
type WorkerPool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If numWorkers is 0 or negative, it defaults to the CPU count capped at
// MaxWorkers. If numJobs is less than numWorkers, the pool is sized to match
// numJobs.
func NewWorkerPool[Job any, Result any](numWorkers, numJobs int) *WorkerPool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = min(runtime.NumCPU(), MaxWorkers)
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &WorkerPool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Start begins the worker pool with the provided worker function.
// The workerFn is called for each job and should return a result.
func (p *WorkerPool[Job, Result]) Start(workerFn func(Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- workerFn(job)
			}
		}()
	}
}

// Submit adds a job to the worker pool's job queue.
func (p *WorkerPool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close closes the job channel and waits for all workers to complete.
// After calling Close, the results channel will be closed automatically.
func (p *WorkerPool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the results channel for collecting worker outputs.
func (p *WorkerPool[Job, Result]) Results() <-chan Result {
	return p.results
}

// Map runs fn over jobs with at most workers goroutines and returns the
// results in job order.
func Map[Job any, Result any](workers int, jobs []Job, fn func(Job) Result) []Result {
	type indexed struct {
		i int
		r Result
	}
	p := NewWorkerPool[int, indexed](workers, len(jobs))
	p.Start(func(i int) indexed {
		return indexed{i, fn(jobs[i])}
	})
	for i := range jobs {
		p.Submit(i)
	}
	p.Close()

	out := make([]Result, len(jobs))
	for r := range p.Results() {
		out[r.i] = r.r
	}
	return out
}
