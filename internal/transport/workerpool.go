package transport

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds how many inbound frames can be queued before a
// submitting read pump blocks.
const taskChanSize = 256

// WorkerFunction processes one queued task.
type WorkerFunction func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of goroutines draining a single task
// channel under a tomb.Tomb, so the whole pool shuts down cleanly when the
// tomb dies.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool builds a pool of size workers sharing a bounded task queue.
func NewWorkerPool(size int) *WorkerPool {
	return &WorkerPool{
		n:     size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a task, blocking if the queue is full.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup spawns pool.n workers under t, each running work against tasks
// drawn from the shared channel until t starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.worker(t, work)
		})
	}
}

func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
