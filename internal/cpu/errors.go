package cpu

import "fmt"

// IllegalOpcodeError reports an attempt to execute one of the 11 unused
// primary opcode slots (0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED,
// 0xF4, 0xFC, 0xFD). Fatal: the caller receives the offending byte and the
// PC it was fetched from.
type IllegalOpcodeError struct {
	Op byte
	PC uint16
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode %#02x at PC=%#04x", e.Op, e.PC)
}

// MalformedStopError reports a STOP (0x10) instruction whose following byte
// is not 0x00. Fatal.
type MalformedStopError struct {
	Next byte
	PC   uint16
}

func (e *MalformedStopError) Error() string {
	return fmt.Sprintf("malformed STOP: byte after 0x10 was %#02x at PC=%#04x", e.Next, e.PC)
}
