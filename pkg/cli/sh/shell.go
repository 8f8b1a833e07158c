// Package sh provides the ishell backed interactive shell for driving
// a rig from a terminal.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/Zubax/force-measurement-rig/pkg/link"
	"github.com/Zubax/force-measurement-rig/pkg/serial"
)

// Role names the two board types a shell can talk to.
type Role string

// Known roles.
const (
	RoleSensor Role = "sensor"
	RoleDrive  Role = "drive"
)

// Shell provides the interactive session state.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Sensor *Conn
	Drive  *Conn
}

// Conn is one connected board.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	Device string
	Link   *link.Link
	Sensor *link.SensorClient
	Drive  *link.DriveClient

	port *serial.Port
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly     bool
	outputJSON   bool
	sensorDevice string
	driveDevice  string

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&sensorDevice, "sensor", sensorDevice, "Sensor board device to connect on startup.")
	flag.StringVar(&driveDevice, "drive", driveDevice, "Drive board device to connect on startup.")
}

// AddCmds is used by command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SensorConnected wraps a command func that needs a sensor board.
func SensorConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Sensor == nil {
			c.Err(fmt.Errorf("sensor not connected"))
			return
		}
		fn(c)
	}
}

// DriveConnected wraps a command func that needs a drive board.
func DriveConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Drive == nil {
			c.Err(fmt.Errorf("drive not connected"))
			return
		}
		fn(c)
	}
}

// Connect opens device for role, replacing any existing connection of
// that role.
func (s *Shell) Connect(role Role, device string) error {
	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		return err
	}
	conn := &Conn{Device: device, port: port}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	conn.Link = link.New(port)
	conn.Link.ReadTimeout = port.Timed
	switch role {
	case RoleSensor:
		conn.Sensor = link.NewSensorClient(conn.Link)
		s.disconnect(&s.Sensor)
		s.Sensor = conn
	case RoleDrive:
		conn.Drive = link.NewDriveClient(conn.Link)
		s.disconnect(&s.Drive)
		s.Drive = conn
	default:
		port.Close()
		conn.Cancel()
		return fmt.Errorf("unknown role %q", role)
	}
	go conn.Link.Run(conn.Ctx)
	s.updatePrompt()
	return nil
}

// Disconnect closes the connection of role, or all when role is empty.
func (s *Shell) Disconnect(role Role) {
	if role == RoleSensor || role == "" {
		s.disconnect(&s.Sensor)
	}
	if role == RoleDrive || role == "" {
		s.disconnect(&s.Drive)
	}
	s.updatePrompt()
}

func (s *Shell) disconnect(conn **Conn) {
	if *conn == nil {
		return
	}
	(*conn).Cancel()
	(*conn).port.Close()
	*conn = nil
}

func (s *Shell) updatePrompt() {
	prompt := ""
	if s.Sensor != nil {
		prompt = "sensor"
	}
	if s.Drive != nil {
		if prompt != "" {
			prompt += "+"
		}
		prompt += "drive"
	}
	if prompt == "" {
		s.Shell.SetPrompt(unconnectedPrompt)
		return
	}
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", prompt))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if sensorDevice != "" {
		if err := s.Connect(RoleSensor, sensorDevice); err != nil {
			log.Fatalf("connect sensor %q failed: %v", sensorDevice, err)
		}
	}
	if driveDevice != "" {
		if err := s.Connect(RoleDrive, driveDevice); err != nil {
			log.Fatalf("connect drive %q failed: %v", driveDevice, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "sensor|drive DEVICE (serial port or tcp://host:port)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("usage: connect sensor|drive DEVICE"))
				return
			}
			if err := ShellFrom(c).Connect(Role(c.Args[0]), c.Args[1]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects one or all boards.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "[sensor|drive]",
		Func: func(c *ishell.Context) {
			var role Role
			if len(c.Args) > 0 {
				role = Role(c.Args[0])
			}
			ShellFrom(c).Disconnect(role)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
