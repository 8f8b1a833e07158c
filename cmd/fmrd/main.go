package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/config"
	"github.com/Zubax/force-measurement-rig/pkg/framework"
	"github.com/Zubax/force-measurement-rig/pkg/link"
	"github.com/Zubax/force-measurement-rig/pkg/rig"
	"github.com/Zubax/force-measurement-rig/pkg/serial"
	"github.com/Zubax/force-measurement-rig/pkg/store"
	"github.com/Zubax/force-measurement-rig/pkg/telemetry"
	"github.com/Zubax/force-measurement-rig/pkg/telemetry/mqtt"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", os.Getenv("FMR_CONFIG"), "Configuration file path.")
}

// pubSource adapts the fanout channel to telemetry.ReadingSource.
type pubSource struct {
	ch     chan rig.Reading
	client *link.SensorClient
}

func (s *pubSource) Next(ctx context.Context) (rig.Reading, error) {
	select {
	case r := <-s.ch:
		return r, nil
	case <-ctx.Done():
		return rig.Reading{}, ctx.Err()
	}
}

func (s *pubSource) Lost() uint64 {
	return s.client.Lost()
}

type daemon struct {
	client  *link.SensorClient
	session *store.Session
	pubCh   chan rig.Reading
}

// Run fans the reading stream out to the recorder and the publisher.
func (d *daemon) Run(ctx context.Context) error {
	for {
		r, err := d.client.Next(ctx)
		if err != nil {
			return err
		}
		if d.pubCh != nil {
			select {
			case d.pubCh <- r:
			default:
			}
		}
		if d.session != nil {
			forces := r.Forces()
			if err := d.session.Append(store.Record{
				Seq:    r.SeqNum,
				Time:   time.Now().UTC(),
				Forces: forces[:],
				Total:  r.TotalForce(),
			}); err != nil {
				return err
			}
		}
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	if cfg.Sensor.Device == "" {
		glog.Exit("config: sensor device required")
	}

	port, err := serial.Open(serial.Config{
		Device:      cfg.Sensor.Device,
		Baud:        cfg.Sensor.Baud,
		ReadTimeout: serial.DefaultConfig(cfg.Sensor.Device).ReadTimeout,
	})
	if err != nil {
		glog.Exitf("sensor: %v", err)
	}
	defer port.Close()

	l := link.New(port)
	l.ReadTimeout = port.Timed
	client := link.NewSensorClient(l)
	d := &daemon{client: client}

	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("sensor-link", l))

	if cfg.Storage.Record {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
			glog.Exitf("storage: %v", err)
		}
		db, err := store.Open(cfg.Storage.Path)
		if err != nil {
			glog.Exitf("storage: %v", err)
		}
		defer db.Close()
		if d.session, err = db.NewSession(); err != nil {
			glog.Exitf("storage: %v", err)
		}
		glog.Infof("recording session %s", d.session.ID)
	}

	if cfg.Telemetry.BrokerURL != "" {
		q, err := mqtt.NewQueueFromURL(cfg.Telemetry.BrokerURL)
		if err != nil {
			glog.Exitf("telemetry: %v", err)
		}
		defer q.Close()
		q.Connect()
		d.pubCh = make(chan rig.Reading, 16)
		pub := &telemetry.Publisher{
			Queue:  q,
			Client: &pubSource{ch: d.pubCh, client: client},
			Rig:    cfg.Telemetry.Rig,
		}
		runner.Go(framework.NamedRun("telemetry", pub))
	}

	runner.Go(framework.NamedRun("daemon", d))

	if err := runner.Wait(); err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}
