package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocator_SequentialFromOne(t *testing.T) {
	a := New()

	assert.Equal(t, 1, a.NextHechoID())
	assert.Equal(t, 2, a.NextHechoID())
	assert.Equal(t, 3, a.NextHechoID())

	// Kinds are independent.
	assert.Equal(t, 1, a.NextEntidadID())
	assert.Equal(t, 1, a.NextCitaID())
	assert.Equal(t, 1, a.NextDatoID())
	assert.Equal(t, 2, a.NextEntidadID())
}

func TestAllocator_StrictlyIncreasing(t *testing.T) {
	a := New()
	prev := 0
	for i := 0; i < 100; i++ {
		id := a.NextHechoID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestAllocator_Stats(t *testing.T) {
	a := New()
	a.NextHechoID()
	a.NextHechoID()
	a.NextEntidadID()
	a.NextDatoID()

	s := a.Stats()
	assert.Equal(t, 2, s.Hechos)
	assert.Equal(t, 1, s.Entidades)
	assert.Equal(t, 0, s.Citas)
	assert.Equal(t, 1, s.Datos)
}

func TestAllocator_IndependentInstances(t *testing.T) {
	a := New()
	b := New()

	a.NextHechoID()
	a.NextHechoID()

	// A second fragment's allocator starts fresh.
	assert.Equal(t, 1, b.NextHechoID())
}
