// Package wire implements the framed binary protocol spoken between the
// force measurement rig's digitizer boards and the host.
package wire

// Each frame is an 8-byte header (4-byte magic, 1-byte payload size,
// 3 reserved bytes transmitted as zero), up to 255 payload bytes, and a
// big-endian CRC-16/CCITT-FALSE over the payload only. The reserved bytes
// and the header are deliberately excluded from the checksum; the framer
// and the parser must agree on this for the residue check to work, and
// changing it would break compatibility with deployed boards.
//
// The receiving side is a byte-at-a-time state machine (Parser) that
// realigns itself on the magic sequence after any corruption or a
// mid-stream board reset. The Ring type is the FIFO the board firmware
// uses to hand bytes between the UART interrupt handlers and the main
// loop; the hosted code reuses it to model that exchange.
//
// Producer: digitizer firmware (readings), host (calibration, step commands)
// Consumer: the respective peer
