package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cpu"
)

type model struct {
	cpu *cpu.CPU
	bus *bus.Bus

	pageOffset uint16 // top-left address of the memory page table
	prevPC     uint16
	lastCycles int
	err        error
	running    bool // cleared when a step returns an error; no key sets it to true
}

func (m model) Init() tea.Cmd { return nil }

func (m model) step() model {
	m.prevPC = m.cpu.PC
	cycles, err := m.cpu.Step()
	m.lastCycles = cycles
	m.err = err
	if err != nil {
		m.running = false
	}
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "j":
		if m.err == nil {
			m = m.step()
		}
	case "g":
		// Run until the next illegal opcode, malformed STOP, or 100000
		// steps, whichever comes first — a crude "continue" for hunting
		// down where execution goes wrong.
		for i := 0; i < 100000 && m.err == nil; i++ {
			m = m.step()
		}
	case "pgup":
		m.pageOffset -= 0x0100
	case "pgdown":
		m.pageOffset += 0x0100
	}
	return m, nil
}

func (m model) renderPage(start uint16) string {
	s := fmt.Sprintf("%04X | ", start)
	for i := 0; i < 16; i++ {
		addr := start + uint16(i)
		v := m.bus.Read(addr)
		if addr == m.cpu.PC {
			s += fmt.Sprintf("[%02X] ", v)
		} else {
			s += fmt.Sprintf(" %02X  ", v)
		}
	}
	return s
}

func (m model) pageTable() string {
	header := "addr | "
	for i := 0; i < 16; i++ {
		header += fmt.Sprintf(" %01X   ", i)
	}
	rows := []string{header}
	base := m.pageOffset &^ 0x000F
	for row := 0; row < 8; row++ {
		rows = append(rows, m.renderPage(base+uint16(row*16)))
	}
	return strings.Join(rows, "\n")
}

func flagRow(f byte) string {
	bits := []struct {
		name string
		mask byte
	}{{"Z", 0x80}, {"N", 0x40}, {"H", 0x20}, {"C", 0x10}}
	var out []string
	for _, b := range bits {
		if f&b.mask != 0 {
			out = append(out, b.name)
		} else {
			out = append(out, "-")
		}
	}
	return strings.Join(out, " ")
}

func (m model) status() string {
	c := m.cpu
	s := fmt.Sprintf(`
PC: %04X  (was %04X)
SP: %04X
A: %02X  F: %02X [%s]
B: %02X  C: %02X
D: %02X  E: %02X
H: %02X  L: %02X
IME: %t  cycles: %d
`, c.PC, m.prevPC, c.SP, c.A, c.F, flagRow(c.F), c.B, c.C, c.D, c.E, c.H, c.L, c.IME, m.lastCycles)
	if m.err != nil {
		s += "\nERROR: " + m.err.Error()
	}
	return s
}

func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.pageTable(), m.status()),
		"",
		"space/j: step   g: run   pgup/pgdown: scroll memory   q: quit",
		"",
		spew.Sdump(m.cpu),
	)
}
