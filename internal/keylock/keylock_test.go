package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestMap_Lock(t *testing.T) {
	var (
		km    Map[int]
		wg    sync.WaitGroup
		count = map[int]int{}
		mu    sync.Mutex
	)

	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := i % 2
			unlock := km.Lock(key)
			defer unlock()

			mu.Lock()
			v := count[key]
			mu.Unlock()
			v++
			mu.Lock()
			count[key] = v
			mu.Unlock()
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, "key 0", count[0], 20)
	testutil.AssertEqual(t, "key 1", count[1], 20)
	testutil.AssertEqual(t, "released", km.Len(), 0)
}

func TestMap_KeysAreIndependent(t *testing.T) {
	var km Map[string]
	unlockA := km.Lock("a")

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on b waited for a")
	}

	testutil.AssertEqual(t, "held", km.Len(), 1)
	unlockA()
	testutil.AssertEqual(t, "released", km.Len(), 0)
}
