package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net"
	"time"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/framework"
	"github.com/Zubax/force-measurement-rig/pkg/sim"
	"github.com/Zubax/force-measurement-rig/pkg/store"
)

var (
	sensorListen = ":9010"
	driveListen  = ":9011"
	dbPath       string
	amplitude    int
	periodMs     int
)

func init() {
	flag.StringVar(&sensorListen, "sensor-listen", sensorListen, "Sensor board listen address.")
	flag.StringVar(&driveListen, "drive-listen", driveListen, "Drive board listen address.")
	flag.StringVar(&dbPath, "db", dbPath, "Path for the simulated EEPROM database.")
	flag.IntVar(&amplitude, "amplitude", 1000, "Synthetic load amplitude in counts.")
	flag.IntVar(&periodMs, "period", 10, "Sampling period in milliseconds.")
}

// serve hands the accepted connection to a pump, one peer at a time
// the way a physical port has one cable.
func serve(ln net.Listener, board sim.Board) framework.RunFunc {
	return func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			ln.Close()
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			glog.Infof("%s: peer %s", ln.Addr(), conn.RemoteAddr())
			pump := &sim.Pump{Stream: conn, Board: board}
			if err := pump.Run(ctx); err != nil && ctx.Err() == nil {
				glog.V(1).Infof("%s: peer gone: %v", ln.Addr(), err)
			}
			conn.Close()
		}
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	digitizer := sim.NewDigitizer(&sim.SineSource{Amplitude: int32(amplitude)})
	digitizer.Period = time.Duration(periodMs) * time.Millisecond
	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			glog.Exitf("db: %v", err)
		}
		defer db.Close()
		digitizer.Store = db
	}
	drive := sim.NewStepDrive()

	sensorLn, err := net.Listen("tcp", sensorListen)
	if err != nil {
		glog.Exitf("sensor: %v", err)
	}
	driveLn, err := net.Listen("tcp", driveListen)
	if err != nil {
		glog.Exitf("drive: %v", err)
	}
	glog.Infof("sensor board on %s, drive board on %s", sensorLn.Addr(), driveLn.Addr())

	err = framework.NewRunner().
		HandleSignals().
		Go(
			framework.NamedRun("digitizer", digitizer),
			framework.NamedRun("drive", drive),
			framework.NamedRun("sensor-port", serve(sensorLn, digitizer)),
			framework.NamedRun("drive-port", serve(driveLn, drive)),
		).
		Wait()
	if err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}
