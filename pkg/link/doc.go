// Package link drives the wire protocol over a byte stream on the host
// side: a Link pulls bytes one at a time from an io.ReadWriter, feeds the
// frame parser and dispatches decoded payloads; SensorClient and
// DriveClient interpret those payloads for the two board types.
package link

// The serial line is point-to-point and carries one conversation at a
// time. There is no negotiation and no acknowledgement below the
// application layer: a lost reading is superseded by the next one, and
// writes to a board are confirmed by observing the board echo them.
