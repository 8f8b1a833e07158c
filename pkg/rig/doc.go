// Package rig defines the application payloads carried by the wire
// protocol: load-cell readings and calibration blocks from the strain
// gauge digitizer, and step commands for the arm drive.
package rig
