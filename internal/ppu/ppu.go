package ppu

import (
	"bytes"
	"encoding/gob"
)

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT, etc.).
type InterruptRequester func(bit int)

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, and basic timing.
// It exposes CPU-facing Read/Write for VRAM/OAM and PPU IO regs.
type PPU struct {
	// memory
	vram [0x2000]byte // 0x8000–0x9FFF
	oam  [0xA0]byte   // 0xFE00–0xFE9F

	// regs
	lcdc byte // FF40
	stat byte // FF41 (mode bits 0-1, coincidence flag bit2, enables bits3-6)
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	dot int // dots within current line [0..455]

	req InterruptRequester

	// fb holds one 2-bit shade index per pixel, background layer only
	// (window/sprites are a stated Non-goal). Filled one scanline at a
	// time as each line completes, using that line's SCX/SCY/BGP, the
	// way real hardware latches per-line rather than per-frame.
	fb [160 * 144]byte

	// useFetcher selects the FIFO/fetcher-based BG scanline renderer
	// (see fetcher.go, scanline.go) over the direct tile-index renderer.
	// Both compute the same color indices; this exists so the fetcher
	// model stays exercised by real frames, not just its unit tests.
	useFetcher bool
}

// SetUseFetcherRenderer selects the fetcher/FIFO scanline renderer for the
// background layer. Off by default (direct tile-index renderer).
func (p *PPU) SetUseFetcherRenderer(v bool) { p.useFetcher = v }

// fetcherMem adapts a PPU's VRAM to the VRAMReader interface the fetcher
// expects. Unlike CPURead it is never subject to the mode-3 CPU lockout:
// this is an internal end-of-line read, not a CPU bus access.
type fetcherMem struct{ p *PPU }

func (f fetcherMem) Read(addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	return f.p.vram[addr-0x8000]
}

func New(req InterruptRequester) *PPU { return &PPU{req: req} }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		// VRAM is inaccessible to CPU during mode 3 (return 0xFF)
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		// OAM is inaccessible during modes 2 and 3
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		// On DMG, bit7 reads as 1; bit6..3 are enables; bit2 coincidence; bit1..0 mode
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			// Turning LCD off resets LY/mode
			p.ly = 0
			p.dot = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			// Turning LCD on: start at LY=0, mode 2 (OAM)
			p.ly = 0
			p.dot = 0
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// Tick advances PPU state by the given number of dots (CPU cycles).
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 { // LCD off
			continue
		}
		p.dot++
		// Mode scheduling
		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+172:
				mode = 3
			default:
				mode = 0
			}
		}
		p.setMode(mode)

		if p.dot >= 456 {
			if p.ly < 144 {
				p.renderLine(p.ly)
			}
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				// Enter VBlank
				if p.req != nil {
					p.req(0)
				} // VBlank IF
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				} // STAT VBlank
			} else if p.ly > 153 {
				p.ly = 0
			}
			p.updateLYC()
			// Set mode for new line start (dot=0)
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0: // HBlank
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2: // OAM
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// Expose palettes and scroll for renderer convenience (optional helpers)
func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }

// renderLine fills one row of fb with the background layer as it stood at
// the moment this line finished, using that line's latched SCX/SCY/BGP.
// Window and sprites are not composited (stated Non-goal); if LCDC bit0
// (BG enable on DMG) is clear, the line is left as shade 0.
func (p *PPU) renderLine(ly byte) {
	if (p.lcdc & 0x01) == 0 {
		for x := 0; x < 160; x++ {
			p.fb[int(ly)*160+x] = 0
		}
		return
	}
	tileDataUnsigned := (p.lcdc & 0x10) != 0
	bgMapHigh := (p.lcdc & 0x08) != 0

	var mapBase uint16 = 0x9800
	if bgMapHigh {
		mapBase = 0x9C00
	}

	var colorIdx [160]byte
	if p.useFetcher {
		colorIdx = RenderBGScanlineUsingFetcher(fetcherMem{p}, mapBase, tileDataUnsigned, p.scx, p.scy, ly)
	} else {
		colorIdx = p.renderLineDirect(mapBase, tileDataUnsigned, ly)
	}

	for x := 0; x < 160; x++ {
		p.fb[int(ly)*160+x] = (p.bgp >> (colorIdx[x] * 2)) & 0x03
	}
}

// renderLineDirect computes BG color indices (not yet run through BGP) by
// indexing the tilemap and tile data directly, one pixel at a time. This is
// the default renderer; RenderBGScanlineUsingFetcher is an alternative that
// reaches the same indices through the FIFO/fetcher model.
func (p *PPU) renderLineDirect(mapBase uint16, tileDataUnsigned bool, ly byte) [160]byte {
	var out [160]byte

	y := byte(int(ly) + int(p.scy))
	tileRow := y / 8
	fineY := y % 8

	for x := 0; x < 160; x++ {
		bx := byte(x + int(p.scx))
		tileCol := bx / 8
		fineX := bx % 8

		mapAddr := mapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileIdx := p.vram[mapAddr-0x8000]

		var tileAddr uint16
		if tileDataUnsigned {
			tileAddr = 0x8000 + uint16(tileIdx)*16
		} else {
			tileAddr = uint16(0x9000 + int(int8(tileIdx))*16)
		}
		tileAddr += uint16(fineY) * 2

		lo := p.vram[tileAddr-0x8000]
		hi := p.vram[tileAddr+1-0x8000]

		bit := 7 - fineX
		out[x] = ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
	}
	return out
}

// Framebuffer returns the current 160x144 grid of 2-bit background shade
// indices, one byte per pixel, row-major. The returned slice is owned by
// the caller.
func (p *PPU) Framebuffer() []byte {
	out := make([]byte, len(p.fb))
	copy(out, p.fb[:])
	return out
}

type ppuState struct {
	VRAM             [0x2000]byte
	OAM              [0xA0]byte
	LCDC, STAT       byte
	SCY, SCX         byte
	LY, LYC          byte
	BGP, OBP0, OBP1  byte
	WY, WX           byte
	Dot              int
	FB               [160 * 144]byte
}

// SaveState serializes VRAM, OAM, registers, timing, and the background
// framebuffer with gob.
func (p *PPU) SaveState() []byte {
	var buf bytes.Buffer
	s := ppuState{
		VRAM: p.vram, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat,
		SCY: p.scy, SCX: p.scx,
		LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		WY: p.wy, WX: p.wx,
		Dot: p.dot, FB: p.fb,
	}
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a state previously produced by SaveState.
func (p *PPU) LoadState(data []byte) {
	var s ppuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	p.vram, p.oam = s.VRAM, s.OAM
	p.lcdc, p.stat = s.LCDC, s.STAT
	p.scy, p.scx = s.SCY, s.SCX
	p.ly, p.lyc = s.LY, s.LYC
	p.bgp, p.obp0, p.obp1 = s.BGP, s.OBP0, s.OBP1
	p.wy, p.wx = s.WY, s.WX
	p.dot = s.Dot
	p.fb = s.FB
}
