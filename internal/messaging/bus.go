package messaging

import "sync"

// Bus is subject-based publish/subscribe. NatsServer and LocalBus implement it.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

// LocalBus delivers messages in-process, synchronously, in subscription order.
type LocalBus struct {
	mu     sync.RWMutex
	nextId int
	subs   map[string]map[int]func([]byte)
	order  map[string][]int
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		subs:  map[string]map[int]func([]byte){},
		order: map[string][]int{},
	}
}

func (b *LocalBus) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextId
	b.nextId++
	if b.subs[subject] == nil {
		b.subs[subject] = map[int]func([]byte){}
	}
	b.subs[subject][id] = handler
	b.order[subject] = append(b.order[subject], id)

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(subject, id) })
	}, nil
}

func (b *LocalBus) unsubscribe(subject string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs[subject], id)
	ids := b.order[subject]
	for i, v := range ids {
		if v == id {
			b.order[subject] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(b.subs[subject]) == 0 {
		delete(b.subs, subject)
		delete(b.order, subject)
	}
}

// Publish calls every handler subscribed to subject before returning.
func (b *LocalBus) Publish(subject string, data []byte) error {
	b.mu.RLock()
	handlers := make([]func([]byte), 0, len(b.order[subject]))
	for _, id := range b.order[subject] {
		handlers = append(handlers, b.subs[subject][id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}
