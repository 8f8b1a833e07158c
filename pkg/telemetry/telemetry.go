// Package telemetry publishes rig measurements for remote observers.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
	"github.com/Zubax/force-measurement-rig/pkg/telemetry/mqtt"
)

// ReadingSource delivers decoded readings. *link.SensorClient is the
// usual implementation.
type ReadingSource interface {
	Next(context.Context) (rig.Reading, error)
	Lost() uint64
}

// appID salts the machine ID so the rig identity is stable but not
// the raw machine fingerprint.
const appID = "force-measurement-rig"

// Sample is one published measurement.
type Sample struct {
	Rig    string    `json:"rig"`
	Seq    uint64    `json:"seq"`
	Time   time.Time `json:"time"`
	Forces []float64 `json:"forces"`
	Total  float64   `json:"total"`
	Lost   uint64    `json:"lost,omitempty"`
}

// ReadingTopic is where samples are published, relative to the queue's
// topic prefix.
const ReadingTopic = "reading"

// RigID returns a stable identifier for this host.
func RigID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("telemetry: no machine id: %v", err)
		return "unknown"
	}
	// The full HMAC is longer than anyone wants in a topic browser.
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// Publisher forwards decoded readings to a broker queue.
type Publisher struct {
	Queue  *mqtt.Queue
	Client ReadingSource
	// Rig identifies this host in published samples. Defaults to
	// RigID().
	Rig string
}

// Run publishes every reading until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	rigID := p.Rig
	if rigID == "" {
		rigID = RigID()
	}
	for {
		r, err := p.Client.Next(ctx)
		if err != nil {
			return err
		}
		forces := r.Forces()
		s := Sample{
			Rig:    rigID,
			Seq:    r.SeqNum,
			Time:   time.Now().UTC(),
			Forces: forces[:],
			Total:  r.TotalForce(),
			Lost:   p.Client.Lost(),
		}
		data, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		p.Queue.Pub(ReadingTopic, data)
	}
}
