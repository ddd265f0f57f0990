package bisim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairMap(t *testing.T) {
	t.Run("PutGet", func(t *testing.T) {
		m := newPairMap(4)
		m.Put(pairKey(3, 1), 10)
		m.Put(pairKey(1, 3), 20)

		v, ok := m.Get(pairKey(3, 1))
		assert.True(t, ok)
		assert.Equal(t, 10, v)
		v, ok = m.Get(pairKey(1, 3))
		assert.True(t, ok)
		assert.Equal(t, 20, v)
		_, ok = m.Get(pairKey(3, 3))
		assert.False(t, ok)
		assert.Equal(t, 2, m.Size())
	})

	t.Run("ZeroKey", func(t *testing.T) {
		// Block 0 with label 0 packs to the zero key.
		m := newPairMap(4)
		_, ok := m.Get(pairKey(0, 0))
		assert.False(t, ok)

		m.Put(pairKey(0, 0), none)
		v, ok := m.Get(pairKey(0, 0))
		assert.True(t, ok)
		assert.Equal(t, none, v)
		assert.Equal(t, 1, m.Size())

		assert.True(t, m.Remove(pairKey(0, 0)))
		assert.False(t, m.Remove(pairKey(0, 0)))
		assert.Equal(t, 0, m.Size())
	})

	t.Run("Overwrite", func(t *testing.T) {
		m := newPairMap(4)
		m.Put(pairKey(2, 2), 1)
		m.Put(pairKey(2, 2), 2)
		v, _ := m.Get(pairKey(2, 2))
		assert.Equal(t, 2, v)
		assert.Equal(t, 1, m.Size())
	})

	t.Run("GrowAndRemove", func(t *testing.T) {
		m := newPairMap(4)
		m.Put(0, 99)
		for b := 0; b < 200; b++ {
			m.Put(pairKey(b, b%5+1), b)
		}
		assert.Equal(t, 201, m.Size())
		for b := 0; b < 200; b += 2 {
			assert.True(t, m.Remove(pairKey(b, b%5+1)))
		}
		assert.Equal(t, 101, m.Size())
		for b := 0; b < 200; b++ {
			v, ok := m.Get(pairKey(b, b%5+1))
			if b%2 == 0 {
				assert.False(t, ok, "block %d", b)
			} else if assert.True(t, ok, "block %d", b) {
				assert.Equal(t, b, v)
			}
		}
		v, ok := m.Get(0)
		assert.True(t, ok)
		assert.Equal(t, 99, v)
	})

	t.Run("EmptiedByRemove", func(t *testing.T) {
		m := newPairMap(4)
		keys := make([]uint64, 0, 64)
		fillAndEmpty := func() {
			keys = keys[:0]
			for b := 0; b < 64; b++ {
				key := pairKey(b, 7)
				m.Put(key, b)
				keys = append(keys, key)
			}
			for _, key := range keys {
				m.Remove(key)
			}
		}
		fillAndEmpty()
		assert.Equal(t, 0, m.Size())
		_, ok := m.Get(pairKey(5, 7))
		assert.False(t, ok)

		assert.Zero(t, testing.AllocsPerRun(5, fillAndEmpty))
		assert.Equal(t, 0, m.Size())
	})
}

func TestPairKey(t *testing.T) {
	assert.NotEqual(t, pairKey(1, 2), pairKey(2, 1))
	assert.Equal(t, uint64(1)<<32|2, pairKey(1, 2))
}

func TestTodoStateVector(t *testing.T) {
	var v todoStateVector
	assert.True(t, v.todoIsEmpty())
	v.add(4)
	v.add(2)
	assert.Equal(t, 2, v.size())
	assert.False(t, v.todoIsEmpty())
	assert.Equal(t, 4, v.moveFromTodo())
	v.add(9)
	assert.Equal(t, 2, v.moveFromTodo())
	assert.Equal(t, 9, v.moveFromTodo())
	assert.True(t, v.todoIsEmpty())
	assert.Equal(t, []int{4, 2, 9}, v.all())

	v.add(1)
	v.clearTodo()
	assert.True(t, v.todoIsEmpty())
	assert.Equal(t, 4, v.size())

	v.clear()
	assert.Equal(t, 0, v.size())
	assert.True(t, v.todoIsEmpty())
}
