package storage

import (
	"context"
	"sync"
)

// task escritura de persistencia pendiente.
type task struct {
	op  string
	run func(ctx context.Context) error
}

// writeQueue cola de escrituras en segundo plano con un único worker: las escrituras
// se aplican en el mismo orden en que se aplicaron al caché y el llamador nunca espera.
// Sin límite de tamaño ni reintentos.
type writeQueue struct {
	mu       sync.Mutex
	work     *sync.Cond
	idle     *sync.Cond
	tasks    []task
	inflight int // encoladas + en ejecución
	closing  bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	onError func(op string, err error)
}

func newWriteQueue(onError func(op string, err error)) *writeQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &writeQueue{
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		onError: onError,
	}
	q.work = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// enqueue agrega una escritura. Devuelve false si la cola ya fue cerrada.
func (q *writeQueue) enqueue(t task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closing {
		return false
	}
	q.tasks = append(q.tasks, t)
	q.inflight++
	q.work.Signal()
	return true
}

func (q *writeQueue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closing {
			q.work.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks[0] = task{}
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		if err := t.run(q.ctx); err != nil && q.onError != nil {
			q.onError(t.op, err)
		}

		q.mu.Lock()
		q.inflight--
		if q.inflight == 0 {
			q.idle.Broadcast()
		}
		q.mu.Unlock()
	}
}

// flush espera a que no queden escrituras pendientes o a que ctx expire.
func (q *writeQueue) flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		q.mu.Lock()
		for q.inflight > 0 {
			q.idle.Wait()
		}
		q.mu.Unlock()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close deja de aceptar escrituras, drena las pendientes y detiene el worker.
// Si ctx expira antes, cancela la escritura en curso y descarta el resto.
func (q *writeQueue) close(ctx context.Context) error {
	q.mu.Lock()
	q.closing = true
	q.work.Broadcast()
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		q.mu.Lock()
		dropped := len(q.tasks)
		q.tasks = nil
		q.inflight -= dropped
		if q.inflight <= 0 {
			q.idle.Broadcast()
		}
		q.mu.Unlock()
		return ctx.Err()
	}
}
