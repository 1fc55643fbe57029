package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerStates(t *testing.T) {
	m := NewManager()
	assert.Equal(t, None, m.GetUserState(1))

	m.SetUserState(1, WaitingForAPIKey)
	assert.Equal(t, WaitingForAPIKey, m.GetUserState(1))
	assert.Equal(t, None, m.GetUserState(2))

	m.ClearUserState(1)
	assert.Equal(t, None, m.GetUserState(1))
}

func TestManagerTempData(t *testing.T) {
	m := NewManager()
	_, ok := m.GetTempData(1, KeyPending)
	assert.False(t, ok)

	m.SetTempData(1, KeyPending, `{"food_name":"rice"}`)
	v, ok := m.GetTempData(1, KeyPending)
	assert.True(t, ok)
	assert.Equal(t, `{"food_name":"rice"}`, v)

	m.ClearTempData(1)
	_, ok = m.GetTempData(1, KeyPending)
	assert.False(t, ok)
}

func TestManagerConcurrentAccess(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetUserState(id, WaitingForFood)
			m.SetTempData(id, "k", "v")
			_ = m.GetUserState(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, WaitingForFood, m.GetUserState(49))
}

func TestManagerTakeTempDataOnce(t *testing.T) {
	m := NewManager()
	m.SetTempData(1, KeyPending, "rice")
	m.SetTempData(1, "other", "kept")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		takes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, ok := m.TakeTempData(1, KeyPending); ok {
				assert.Equal(t, "rice", v)
				mu.Lock()
				takes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, takes)
	_, ok := m.GetTempData(1, KeyPending)
	assert.False(t, ok)
	v, ok := m.GetTempData(1, "other")
	assert.True(t, ok)
	assert.Equal(t, "kept", v)
}
