// Command gbdebug is an interactive terminal debugger: it loads a ROM,
// resets to the post-boot register state, and lets the user single-step
// or free-run the CPU while watching registers, flags, and a memory page
// table update live.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/GameBoyEmulator/internal/cpu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	flag.Parse()
	if *romPath == "" && flag.NArg() > 0 {
		*romPath = flag.Arg(0)
	}
	if *romPath == "" {
		log.Fatal("a ROM path is required (-rom or positional argument)")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	b, err := bus.New(rom)
	if err != nil {
		log.Fatalf("bus init: %v", err)
	}
	c := cpu.New(b)
	c.ResetPostBoot(rom)

	m := model{cpu: c, bus: b, pageOffset: c.PC &^ 0x00FF}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
