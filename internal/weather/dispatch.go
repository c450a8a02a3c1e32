package weather

import "sync"

// Dispatcher runs work on a goroutine it owns.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Immediate runs work on the calling goroutine.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// MainQueue is a serial executor: a single goroutine runs posted functions in
// FIFO order. State confined to the queue needs no locking.
type MainQueue struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewMainQueue starts the queue goroutine. buffer bounds how many posted
// functions may wait before Dispatch blocks.
func NewMainQueue(buffer int) *MainQueue {
	if buffer < 0 {
		buffer = 0
	}
	q := &MainQueue{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *MainQueue) loop() {
	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.done:
			return
		}
	}
}

// Dispatch posts fn to the queue. After Close, fn is dropped.
func (q *MainQueue) Dispatch(fn func()) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.tasks <- fn:
	case <-q.done:
	}
}

// Sync posts fn and waits for it to run. It reports false if the queue was
// closed before fn ran. Calling Sync from the queue goroutine deadlocks.
func (q *MainQueue) Sync(fn func()) bool {
	ran := make(chan struct{})
	q.Dispatch(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-q.done:
		return false
	}
}

// Close stops the queue. Pending functions that have not started are dropped.
func (q *MainQueue) Close() {
	q.once.Do(func() { close(q.done) })
}
