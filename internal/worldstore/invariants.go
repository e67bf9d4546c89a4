package worldstore

import (
	"fmt"

	"github.com/annel0/mmo-game/internal/idmap"
)

// CheckInvariants runs the debug-only consistency check described in
// spec §3.5 / §8 (testable properties 1-4). It is O(live objects) and is
// meant to be called from tests and from an opt-in debug build, not from
// the hot path.
func CheckInvariants(s *Store) []error {
	var errs []error

	// Invariant 1 (partial: entity attachment direction) + invariant 4
	// (client pawn).
	for _, c := range s.clientsSnapshot() {
		for eid := range c.Entities {
			e := s.entities.Get(idmap.TransientID(eid))
			if e == nil {
				errs = append(errs, fmt.Errorf("client %d child entity %d not loaded", c.Transient, eid))
				continue
			}
			if e.Attachment.Kind != AttachClient || e.Attachment.Client != c.Transient {
				errs = append(errs, fmt.Errorf("entity %d attachment does not point back to client %d", eid, c.Transient))
			}
		}
		if c.Pawn != nil {
			e := s.entities.Get(idmap.TransientID(*c.Pawn))
			if e == nil {
				errs = append(errs, fmt.Errorf("client %d pawn %d not loaded", c.Transient, *c.Pawn))
			} else if _, ok := c.Entities[*c.Pawn]; !ok {
				errs = append(errs, fmt.Errorf("client %d pawn %d is not a child entity", c.Transient, *c.Pawn))
			}
		}
	}

	// Invariant 2: plane coherence for entities.
	for _, e := range s.entitiesSnapshot() {
		if e.Plane == PlaneLimbo {
			set := s.limboEntities[e.StablePlane]
			if _, ok := set[e.Transient]; !ok {
				errs = append(errs, fmt.Errorf("limbo entity %d missing from limbo index", e.Transient))
			}
			continue
		}
		p := s.planes.Get(idmap.TransientID(e.Plane))
		if p == nil {
			errs = append(errs, fmt.Errorf("entity %d claims loaded plane %d which is not loaded", e.Transient, e.Plane))
			continue
		}
		stable, ok := s.planeStable.Stable(idmap.TransientID(e.Plane))
		if !ok || stable != e.StablePlane {
			errs = append(errs, fmt.Errorf("entity %d cached plane %d does not match stable plane %d", e.Transient, e.Plane, e.StablePlane))
		}
	}

	// Invariant 3: chunk reversibility.
	for _, p := range s.planesSnapshot() {
		for pos, stableID := range p.SavedChunks {
			if transientID, ok := s.chunkStable.Transient(stableID); ok {
				c := s.chunks.Get(transientID)
				if c != nil && c.Pos != pos {
					errs = append(errs, fmt.Errorf("saved chunk %v stable %d loaded at mismatched pos %v", pos, stableID, c.Pos))
				}
			}
		}
	}

	// Invariant 5: structures always reference a loaded plane.
	s.mu.RLock()
	s.structures.Each(func(_ idmap.TransientID, st *Structure) {
		if s.planes.Get(idmap.TransientID(st.Plane)) == nil {
			errs = append(errs, fmt.Errorf("structure %d references unloaded plane %d", st.Transient, st.Plane))
		}
	})
	s.mu.RUnlock()

	return errs
}
