package emu

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cpu"
)

var errNoCartridge = errors.New("emu: no cartridge loaded")

// dotsPerFrame is the DMG's fixed per-frame budget: 456 dots/line * 154
// lines (144 visible + 10 VBlank).
const dotsPerFrame = 70224

// Buttons is the joypad state a host presents each frame.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// dmgShades is the classic four-shade DMG palette, lightest first, used to
// expand the PPU's 2-bit framebuffer into RGBA for presentation.
var dmgShades = [4][4]byte{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// Machine wires Cartridge+MemoryBus+CPU+PPU behind the single front door a
// host needs: load a ROM, run frames, read back the framebuffer.
type Machine struct {
	cfg Config

	rom     []byte
	romPath string

	bus *bus.Bus
	cpu *cpu.CPU

	rgba      []byte // scratch RGBA buffer, reused across frames
	err       error  // sticky fatal error from the last Step
	paletteID int    // index into compatPalettes
}

// cartHeaderOrNil parses rom's header and returns any parse error to the
// caller. Used for best-effort cosmetic lookups (palette choice, title) whose
// callers treat an error as "no header" rather than as fatal.
func cartHeaderOrNil(rom []byte) (*cart.Header, error) {
	return cart.ParseHeader(rom)
}

// New creates a Machine with no cartridge loaded.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg, rgba: make([]byte, 160*144*4)}
}

// SetBootROM is accepted for CLI compatibility but has no effect: this core
// always starts a cartridge at the post-boot-ROM register state spec.md
// §4.4.3 defines, rather than interpreting a boot ROM image.
func (m *Machine) SetBootROM(boot []byte) {}

// LoadCartridge parses rom's header, wires a fresh Bus and CPU to it, and
// resets the CPU to the post-boot state. boot is accepted for CLI
// compatibility and ignored (see SetBootROM). Any *cart.InvalidHeaderError
// from the header parse propagates unchanged.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	b, err := bus.New(rom)
	if err != nil {
		m.err = err
		return err
	}
	m.rom = rom
	m.bus = b
	m.cpu = cpu.New(b)
	m.cpu.ResetPostBoot(rom)
	m.bus.PPU().SetUseFetcherRenderer(m.cfg.UseFetcherBG)
	m.err = nil
	m.autoCompatPalette()
	return nil
}

// LoadROMFromFile reads path and loads it as a cartridge, also recording the
// path so callers can derive a sibling .sav file.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		m.err = err
		return err
	}
	if err := m.LoadCartridge(data, nil); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path last passed to LoadROMFromFile, or "".
func (m *Machine) ROMPath() string { return m.romPath }

// ROMTitle returns the cartridge header's title field, or "" if no
// cartridge is loaded or the header is unreadable.
func (m *Machine) ROMTitle() string {
	h, err := cartHeaderOrNil(m.rom)
	if err != nil || h == nil {
		return ""
	}
	return h.Title
}

// ResetPostBoot reruns the post-boot register reset against the currently
// loaded ROM, equivalent to pressing the console's reset button.
func (m *Machine) ResetPostBoot() {
	if m.bus == nil {
		return
	}
	m.cpu.ResetPostBoot(m.rom)
	m.err = nil
}

// SaveStateToFile writes SaveState's output to path.
func (m *Machine) SaveStateToFile(path string) error {
	data := m.SaveState()
	if data == nil {
		return errNoCartridge
	}
	return os.WriteFile(path, data, 0644)
}

// LoadStateFromFile restores a save state previously written by
// SaveStateToFile.
func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m.LoadState(data)
	return nil
}

// SetSerialWriter routes the cartridge's serial port output (SB/SC) to w.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// Err returns the sticky error, if any: a failed LoadCartridge or
// LoadROMFromFile, or the IllegalOpcodeError or MalformedStopError that
// halted the last RunFrame/StepFrame.
func (m *Machine) Err() error { return m.err }

// RunFrame advances the machine by one frame's worth of dots (70224),
// stopping early and returning a non-nil error if Step reports
// IllegalOpcodeError or MalformedStopError. A STOP instruction also ends
// the frame early (it returns 0 dots every subsequent Step until the CPU is
// reset by ResetPostBoot or a new LoadCartridge).
func (m *Machine) RunFrame() error {
	if m.bus == nil {
		return nil
	}
	if m.err != nil {
		return m.err
	}
	dots := 0
	for dots < dotsPerFrame {
		pc := m.cpu.PC
		cycles, err := m.cpu.Step()
		if m.cfg.Trace {
			log.Printf("PC=%04X cyc=%d A=%02X SP=%04X IME=%t", pc, cycles, m.cpu.A, m.cpu.SP, m.cpu.IME)
		}
		if err != nil {
			m.err = err
			return err
		}
		if cycles == 0 {
			break
		}
		dots += cycles
	}
	return nil
}

// StepFrame runs one frame, discarding any error (it remains available via
// Err). Kept for the teacher's host loop, which treats a fatal error as
// "stop presenting" rather than a panic.
func (m *Machine) StepFrame() { _ = m.RunFrame() }

// StepFrameNoRender runs one frame without touching the RGBA scratch
// buffer; used by headless test harnesses that only care about serial
// output.
func (m *Machine) StepFrameNoRender() error { return m.RunFrame() }

// Framebuffer returns the current frame as packed RGBA (160*144*4 bytes),
// expanding the PPU's 2-bit shade indices through the DMG palette.
func (m *Machine) Framebuffer() []byte {
	if m.bus == nil {
		return m.rgba
	}
	shades := m.bus.PPU().Framebuffer()
	tint := compatPalettes[m.paletteID].shades
	for i, s := range shades {
		copy(m.rgba[i*4:i*4+4], tint[s&0x03][:])
	}
	return m.rgba
}

// SetButtons applies the current joypad state.
func (m *Machine) SetButtons(btn Buttons) {
	if m.bus == nil {
		return
	}
	var mask byte
	if btn.Right {
		mask |= bus.JoypRight
	}
	if btn.Left {
		mask |= bus.JoypLeft
	}
	if btn.Up {
		mask |= bus.JoypUp
	}
	if btn.Down {
		mask |= bus.JoypDown
	}
	if btn.A {
		mask |= bus.JoypA
	}
	if btn.B {
		mask |= bus.JoypB
	}
	if btn.Select {
		mask |= bus.JoypSelectBtn
	}
	if btn.Start {
		mask |= bus.JoypStart
	}
	m.bus.SetJoypadState(mask)
}

// LoadBattery restores battery-backed cartridge RAM from a .sav image.
// Reports false if no cartridge is loaded.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.bus == nil {
		return false
	}
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		bb.LoadRAM(data)
		return true
	}
	return false
}

// SaveBattery returns a copy of battery-backed cartridge RAM, if any.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.bus == nil {
		return nil, false
	}
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		data := bb.SaveRAM()
		return data, data != nil
	}
	return nil, false
}

// SaveState serializes the entire machine (bus, PPU, cartridge, APU
// registers). CPU registers are deliberately omitted from the teacher's
// original state format; see DESIGN.md.
func (m *Machine) SaveState() []byte {
	if m.bus == nil {
		return nil
	}
	return m.bus.SaveState()
}

// LoadState restores a machine previously serialized with SaveState.
func (m *Machine) LoadState(data []byte) {
	if m.bus != nil {
		m.bus.LoadState(data)
	}
}

// CPU exposes the underlying CPU for tools (gbdebug) that need register
// access beyond what Machine itself surfaces.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the underlying bus for tools and tests.
func (m *Machine) Bus() *bus.Bus { return m.bus }
