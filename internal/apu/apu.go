// Package apu holds the DMG audio register file. Sound generation is out of
// scope for this core (see Non-goals); Registers exists so the bus has a real
// collaborator to dispatch 0xFF10-0xFF3F to rather than a stub, and so a
// future synthesizer has faithful register semantics to build on.
package apu

import (
	"bytes"
	"encoding/gob"
)

// Registers models the addressable NR10-NR52 register file and wave RAM.
// Unlike a full APU it does not tick, mix, or produce samples; it only
// tracks what the CPU last wrote and reconstructs read-only bits (unused
// bits read as 1, write-only bits read back as 1) the way real hardware
// does.
type Registers struct {
	nr10, nr11, nr12, nr13, nr14 byte
	nr21, nr22, nr23, nr24       byte
	nr30, nr31, nr32, nr33, nr34 byte
	nr41, nr42, nr43, nr44       byte
	nr50, nr51, nr52             byte
	wave                         [16]byte
}

// New returns a Registers with the post-boot power-on values documented for
// NR50/NR51/NR52 (NR51=0xF3: all four channels to the left output, channels
// 1 and 2 to the right; master volume at max; APU powered on).
func New() *Registers {
	return &Registers{
		nr50: 0x77,
		nr51: 0xF3,
		nr52: 0xF1,
	}
}

// readMasks ORs in the bits that are unused or write-only per register, so
// reads reproduce the fixed 1-bits real hardware returns.
var readMasks = map[uint16]byte{
	0xFF10: 0x80,
	0xFF11: 0x3F,
	0xFF12: 0x00,
	0xFF13: 0xFF,
	0xFF14: 0xBF,
	0xFF16: 0x3F,
	0xFF17: 0x00,
	0xFF18: 0xFF,
	0xFF19: 0xBF,
	0xFF1A: 0x7F,
	0xFF1B: 0xFF,
	0xFF1C: 0x9F,
	0xFF1D: 0xFF,
	0xFF1E: 0xBF,
	0xFF20: 0xFF,
	0xFF21: 0x00,
	0xFF22: 0x00,
	0xFF23: 0xBF,
	0xFF24: 0x00,
	0xFF25: 0x00,
	0xFF26: 0x70,
}

// Read returns the register value at addr (0xFF10-0xFF3F), with unused and
// write-only bits forced high to match hardware.
func (r *Registers) Read(addr uint16) byte {
	if addr >= 0xFF30 && addr <= 0xFF3F {
		return r.wave[addr-0xFF30]
	}
	var v byte
	switch addr {
	case 0xFF10:
		v = r.nr10
	case 0xFF11:
		v = r.nr11
	case 0xFF12:
		v = r.nr12
	case 0xFF13:
		v = r.nr13
	case 0xFF14:
		v = r.nr14
	case 0xFF16:
		v = r.nr21
	case 0xFF17:
		v = r.nr22
	case 0xFF18:
		v = r.nr23
	case 0xFF19:
		v = r.nr24
	case 0xFF1A:
		v = r.nr30
	case 0xFF1B:
		v = r.nr31
	case 0xFF1C:
		v = r.nr32
	case 0xFF1D:
		v = r.nr33
	case 0xFF1E:
		v = r.nr34
	case 0xFF20:
		v = r.nr41
	case 0xFF21:
		v = r.nr42
	case 0xFF22:
		v = r.nr43
	case 0xFF23:
		v = r.nr44
	case 0xFF24:
		v = r.nr50
	case 0xFF25:
		v = r.nr51
	case 0xFF26:
		v = r.nr52
	default:
		return 0xFF
	}
	return v | readMasks[addr]
}

// Write stores a byte at addr. Writing NR52 with bit 7 clear powers the
// unit off and clears every register except the wave RAM, matching the
// real APU's power-off behavior. Writes to other registers while powered
// off are stored like any other write; this register file has no
// length counters and does not gate writes on the power bit.
func (r *Registers) Write(addr uint16, v byte) {
	if addr >= 0xFF30 && addr <= 0xFF3F {
		r.wave[addr-0xFF30] = v
		return
	}
	switch addr {
	case 0xFF10:
		r.nr10 = v
	case 0xFF11:
		r.nr11 = v
	case 0xFF12:
		r.nr12 = v
	case 0xFF13:
		r.nr13 = v
	case 0xFF14:
		r.nr14 = v
	case 0xFF16:
		r.nr21 = v
	case 0xFF17:
		r.nr22 = v
	case 0xFF18:
		r.nr23 = v
	case 0xFF19:
		r.nr24 = v
	case 0xFF1A:
		r.nr30 = v
	case 0xFF1B:
		r.nr31 = v
	case 0xFF1C:
		r.nr32 = v
	case 0xFF1D:
		r.nr33 = v
	case 0xFF1E:
		r.nr34 = v
	case 0xFF20:
		r.nr41 = v
	case 0xFF21:
		r.nr42 = v
	case 0xFF22:
		r.nr43 = v
	case 0xFF23:
		r.nr44 = v
	case 0xFF24:
		r.nr50 = v
	case 0xFF25:
		r.nr51 = v
	case 0xFF26:
		if (v & 0x80) == 0 {
			wave := r.wave
			*r = Registers{wave: wave}
		} else {
			r.nr52 = 0x80 | (r.nr52 & 0x0F)
		}
	}
}

type regState struct {
	NR10, NR11, NR12, NR13, NR14 byte
	NR21, NR22, NR23, NR24       byte
	NR30, NR31, NR32, NR33, NR34 byte
	NR41, NR42, NR43, NR44       byte
	NR50, NR51, NR52             byte
	Wave                         [16]byte
}

// SaveState serializes the register file with gob.
func (r *Registers) SaveState() []byte {
	var buf bytes.Buffer
	s := regState{
		r.nr10, r.nr11, r.nr12, r.nr13, r.nr14,
		r.nr21, r.nr22, r.nr23, r.nr24,
		r.nr30, r.nr31, r.nr32, r.nr33, r.nr34,
		r.nr41, r.nr42, r.nr43, r.nr44,
		r.nr50, r.nr51, r.nr52,
		r.wave,
	}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a register file previously produced by SaveState.
func (r *Registers) LoadState(data []byte) {
	var s regState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	r.nr10, r.nr11, r.nr12, r.nr13, r.nr14 = s.NR10, s.NR11, s.NR12, s.NR13, s.NR14
	r.nr21, r.nr22, r.nr23, r.nr24 = s.NR21, s.NR22, s.NR23, s.NR24
	r.nr30, r.nr31, r.nr32, r.nr33, r.nr34 = s.NR30, s.NR31, s.NR32, s.NR33, s.NR34
	r.nr41, r.nr42, r.nr43, r.nr44 = s.NR41, s.NR42, s.NR43, s.NR44
	r.nr50, r.nr51, r.nr52 = s.NR50, s.NR51, s.NR52
	r.wave = s.Wave
}
