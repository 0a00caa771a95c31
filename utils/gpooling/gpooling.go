package gpooling

import (
	"payments-system/utils/logger"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Pool wraps an ants goroutine pool for fire-and-forget work
// (audit writes, notifications, event publishing).
type Pool struct {
	antsPool *ants.Pool
}

type IPool interface {
	Submit(task func())
	Release()
	Running() int
}

func NewPooling(maxPoolSize int) (*Pool, error) {
	log, _ := logger.NewLogger("production")
	pool, err := ants.NewPool(maxPoolSize, ants.WithNonblocking(false), ants.WithPanicHandler(func(data interface{}) {
		log.With(zap.Any("panic", data)).Error("pool task panic")
	}))
	if err != nil {
		return nil, err
	}
	return &Pool{
		antsPool: pool,
	}, nil
}

// Release - release all goroutines.
func (p *Pool) Release() {
	p.antsPool.Release()
}

// Running - returns the number of the currently running goroutines.
func (p *Pool) Running() int {
	return p.antsPool.Running()
}

// Submit - submit a task to this pool.
func (p *Pool) Submit(task func()) {
	p.antsPool.Submit(task)
}
