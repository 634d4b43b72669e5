// renderer/slots.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

// MaxTextureUnits bounds the number of texture slots a Context uses,
// regardless of how many the Renderer supports.
const MaxTextureUnits = 32

// textureSlots tracks which texture is bound to each texture unit for the
// batch being accumulated. Unit 0 always holds the white texture; the
// table is small enough that linear scans are the way to go.
type textureSlots struct {
	units []uint32
	white uint32
}

func makeTextureSlots(n int, white uint32) textureSlots {
	s := textureSlots{units: make([]uint32, n), white: white}
	s.reset()
	return s
}

func (s *textureSlots) reset() {
	clear(s.units)
	s.units[0] = s.white
}

// find returns the unit that id is bound to, or -1.
func (s *textureSlots) find(id uint32) int {
	for i, u := range s.units {
		if u == id {
			return i
		}
	}
	return -1
}

// acquire returns the unit that id is bound to, binding it to the first
// free unit if necessary. It returns -1 if id isn't bound and all units
// are taken.
func (s *textureSlots) acquire(id uint32) int {
	if i := s.find(id); i >= 0 {
		return i
	}
	for i := 1; i < len(s.units); i++ {
		if s.units[i] == 0 {
			s.units[i] = id
			return i
		}
	}
	return -1
}

// free returns the number of unbound units.
func (s *textureSlots) free() int {
	n := 0
	for _, u := range s.units[1:] {
		if u == 0 {
			n++
		}
	}
	return n
}
