// Package sim emulates the rig boards over ordinary byte streams so
// the host stack can be exercised without hardware. The Digitizer
// emulates a force sensor board: it samples a SampleSource at a fixed
// rate, frames readings into a bounded transmit ring and accepts
// calibration writes. The StepDrive emulates the platform drive board,
// echoing every accepted command. A Pump shuttles bytes between a
// board's rings and a net.Conn the way the UART interrupt handlers do
// on the real firmware.
package sim
