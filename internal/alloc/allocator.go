// Package alloc issues the per-fragment sequential identifiers that keep
// cross-phase references consistent. One Allocator is created per fragment
// and discarded when its pipeline run finishes; counters are never shared
// across fragments, which is what makes concurrent fragment processing safe
// without ID locks.
package alloc

// Allocator hands out monotonically increasing integer IDs per artifact
// kind, each starting at 1. Not safe for concurrent use; a fragment's four
// phases run strictly in order on a single goroutine.
type Allocator struct {
	hechos    int
	entidades int
	citas     int
	datos     int
}

// New returns a fresh Allocator with all counters at zero.
func New() *Allocator {
	return &Allocator{}
}

// NextHechoID returns the next fact ID, starting at 1.
func (a *Allocator) NextHechoID() int {
	a.hechos++
	return a.hechos
}

// NextEntidadID returns the next entity ID, starting at 1.
func (a *Allocator) NextEntidadID() int {
	a.entidades++
	return a.entidades
}

// NextCitaID returns the next quote ID, starting at 1.
func (a *Allocator) NextCitaID() int {
	a.citas++
	return a.citas
}

// NextDatoID returns the next quantitative-datum ID, starting at 1.
func (a *Allocator) NextDatoID() int {
	a.datos++
	return a.datos
}

// Stats reports how many IDs have been issued per kind.
type Stats struct {
	Hechos    int `json:"hechos"`
	Entidades int `json:"entidades"`
	Citas     int `json:"citas"`
	Datos     int `json:"datos"`
}

// Stats returns a snapshot of the issued counts.
func (a *Allocator) Stats() Stats {
	return Stats{
		Hechos:    a.hechos,
		Entidades: a.entidades,
		Citas:     a.citas,
		Datos:     a.datos,
	}
}
