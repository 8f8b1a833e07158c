// Package fmr provides the measurement and motion commands of the
// interactive shell.
package fmr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/Zubax/force-measurement-rig/pkg/cli/sh"
	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

func init() {
	sh.AddCmds(
		&WatchCmd,
		&TareCmd,
		&PeakCmd,
		&CalCmd,
		&CalSetCmd,
		&UpCmd,
		&DownCmd,
		&StopCmd,
		&MoveCmd,
	)
}

const cmdTimeout = 5 * time.Second

func sensorCtx() (context.Context, func()) {
	return context.WithTimeout(context.Background(), cmdTimeout)
}

func printReading(c *ishell.Context, s *sh.Shell, r *rig.Reading, avg [rig.ChannelCount]float64) {
	if s.OutputJSON {
		forces := r.Forces()
		out, _ := json.Marshal(map[string]interface{}{
			"seq":    r.SeqNum,
			"forces": forces[:],
			"smooth": avg[:],
			"total":  r.TotalForce(),
		})
		c.Println(string(out))
		return
	}
	c.Printf("#%-8d", r.SeqNum)
	for ch := 0; ch < rig.ChannelCount; ch++ {
		c.Printf(" %9.3f", avg[ch])
	}
	c.Printf(" | total %9.3f\n", r.TotalForce())
}

var (
	// WatchCmd prints a few smoothed readings.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT] print readings, per-channel smoothed forces",
		Func: sh.SensorConnected(func(c *ishell.Context) {
			count := 10
			if len(c.Args) > 0 {
				v, err := strconv.Atoi(c.Args[0])
				if err != nil || v < 1 {
					c.Err(fmt.Errorf("invalid COUNT %q", c.Args[0]))
					return
				}
				count = v
			}
			s := sh.ShellFrom(c)
			client := s.Sensor.Sensor
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(count)*time.Second+cmdTimeout)
			defer cancel()
			var filter *rig.MovingAverage
			for i := 0; i < count; i++ {
				r, err := client.Next(ctx)
				if err != nil {
					c.Err(err)
					return
				}
				if filter == nil {
					filter = rig.NewMovingAverage(5, r.Forces())
				}
				printReading(c, s, &r, filter.Add(r.Forces()))
			}
		}),
	}

	// TareCmd zeroes the scale.
	TareCmd = ishell.Cmd{
		Name: "tare",
		Help: "[SAMPLES] zero the scale by adjusting offsets",
		Func: sh.SensorConnected(func(c *ishell.Context) {
			samples := 10
			if len(c.Args) > 0 {
				v, err := strconv.Atoi(c.Args[0])
				if err != nil || v < 1 {
					c.Err(fmt.Errorf("invalid SAMPLES %q", c.Args[0]))
					return
				}
				samples = v
			}
			ctx, cancel := sensorCtx()
			defer cancel()
			cal, err := sh.ShellFrom(c).Sensor.Sensor.Tare(ctx, samples)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("tared, offsets now %v\n", cal.Offset)
		}),
	}

	// PeakCmd tracks the extreme total force over a window.
	PeakCmd = ishell.Cmd{
		Name: "peak",
		Help: "[SECONDS] report the peak total force seen",
		Func: sh.SensorConnected(func(c *ishell.Context) {
			window := 5 * time.Second
			if len(c.Args) > 0 {
				v, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil || v <= 0 {
					c.Err(fmt.Errorf("invalid SECONDS %q", c.Args[0]))
					return
				}
				window = time.Duration(v * float64(time.Second))
			}
			ctx, cancel := context.WithTimeout(context.Background(), window)
			defer cancel()
			client := sh.ShellFrom(c).Sensor.Sensor
			var tracker rig.PeakTracker
			for {
				r, err := client.Next(ctx)
				if err != nil {
					break
				}
				tracker.Observe(r.TotalForce())
			}
			c.Printf("peak %9.3f\n", tracker.Peak())
		}),
	}

	// CalCmd shows the calibration echoed by the board.
	CalCmd = ishell.Cmd{
		Name: "cal",
		Help: "show the current calibration coefficients",
		Func: sh.SensorConnected(func(c *ishell.Context) {
			ctx, cancel := sensorCtx()
			defer cancel()
			s := sh.ShellFrom(c)
			r, err := s.Sensor.Sensor.Next(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			cal := r.Calibration
			if s.OutputJSON {
				out, _ := json.Marshal(map[string]interface{}{
					"gain":   cal.Gain,
					"offset": cal.Offset,
				})
				c.Println(string(out))
				return
			}
			for ch := 0; ch < rig.ChannelCount; ch++ {
				c.Printf("ch%d: gain %g offset %g\n", ch, cal.Gain[ch], cal.Offset[ch])
			}
		}),
	}

	// CalSetCmd writes one channel's coefficients.
	CalSetCmd = ishell.Cmd{
		Name: "cal-set",
		Help: "CH GAIN OFFSET write one channel's calibration",
		Func: sh.SensorConnected(func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("usage: cal-set CH GAIN OFFSET"))
				return
			}
			ch, err := strconv.Atoi(c.Args[0])
			if err != nil || ch < 0 || ch >= rig.ChannelCount {
				c.Err(fmt.Errorf("invalid CH %q", c.Args[0]))
				return
			}
			gain, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				c.Err(fmt.Errorf("invalid GAIN: %v", err))
				return
			}
			offset, err := strconv.ParseFloat(c.Args[2], 32)
			if err != nil {
				c.Err(fmt.Errorf("invalid OFFSET: %v", err))
				return
			}
			ctx, cancel := sensorCtx()
			defer cancel()
			client := sh.ShellFrom(c).Sensor.Sensor
			r, err := client.Next(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			cal := r.Calibration
			cal.Gain[ch] = float32(gain)
			cal.Offset[ch] = float32(offset)
			if err := client.WriteCalibration(ctx, cal); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// UpCmd starts raising the platform.
	UpCmd = ishell.Cmd{
		Name: "up",
		Help: "start moving the platform up",
		Func: sh.DriveConnected(driveCmd(rig.StepUp)),
	}

	// DownCmd starts lowering the platform.
	DownCmd = ishell.Cmd{
		Name: "down",
		Help: "start moving the platform down",
		Func: sh.DriveConnected(driveCmd(rig.StepDown)),
	}

	// StopCmd halts the platform.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "stop the platform",
		Func: sh.DriveConnected(driveCmd(rig.StepStop)),
	}

	// MoveCmd moves for a bounded time.
	MoveCmd = ishell.Cmd{
		Name: "move",
		Help: "up|down SECONDS move then stop",
		Func: sh.DriveConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("usage: move up|down SECONDS"))
				return
			}
			var dir rig.StepDirection
			switch c.Args[0] {
			case "up":
				dir = rig.StepUp
			case "down":
				dir = rig.StepDown
			default:
				c.Err(fmt.Errorf("invalid direction %q", c.Args[0]))
				return
			}
			secs, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil || secs <= 0 {
				c.Err(fmt.Errorf("invalid SECONDS %q", c.Args[1]))
				return
			}
			d := time.Duration(secs * float64(time.Second))
			ctx, cancel := context.WithTimeout(context.Background(), d+cmdTimeout)
			defer cancel()
			if err := sh.ShellFrom(c).Drive.Drive.MoveFor(ctx, dir, d); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}
)

func driveCmd(dir rig.StepDirection) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		ctx, cancel := sensorCtx()
		defer cancel()
		if err := sh.ShellFrom(c).Drive.Drive.Do(ctx, dir); err != nil {
			c.Err(err)
			return
		}
		c.Println("OK")
	}
}
