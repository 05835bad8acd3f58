package geometry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Query errors.
var (
	// ErrUnsupported is returned by queriers that cannot work in the
	// current session.
	ErrUnsupported = errors.New("geometry: position query unsupported")

	// ErrNoClient is returned when no window of this process is known to
	// the window manager.
	ErrNoClient = errors.New("geometry: no client for this process")

	// ErrNoMonitor is returned when no monitor is reported.
	ErrNoMonitor = errors.New("geometry: no monitor found")
)

// PositionQuerier is a platform strategy for learning where the window is.
type PositionQuerier interface {
	// Name identifies the strategy in logs.
	Name() string

	// WindowPosition returns the window origin relative to its monitor,
	// with y measured from the bottom edge. windowHeight is the current
	// client height in pixels.
	WindowPosition(windowHeight uint32) (x, y float32, err error)

	// MonitorSize returns the resolution of the monitor holding the window.
	MonitorSize() (w, h uint32, err error)
}

// None is the strategy used where no query mechanism exists.
type None struct{}

func (None) Name() string { return "none" }

func (None) WindowPosition(uint32) (float32, float32, error) { return 0, 0, ErrUnsupported }

func (None) MonitorSize() (uint32, uint32, error) { return 0, 0, ErrUnsupported }

// DetectQuerier selects the strategy for the running session.
func DetectQuerier() PositionQuerier {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return NewHyprland()
	}
	return None{}
}

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// hyprQueryTimeout bounds a single hyprctl invocation.
const hyprQueryTimeout = 500 * time.Millisecond

// Hyprland asks the Hyprland compositor through hyprctl.
type Hyprland struct {
	Run Runner
	PID int
}

// NewHyprland returns a querier for the current process.
func NewHyprland() *Hyprland {
	return &Hyprland{Run: execRunner, PID: os.Getpid()}
}

type hyprClient struct {
	PID     int        `json:"pid"`
	At      [2]float32 `json:"at"`
	Size    [2]float32 `json:"size"`
	Monitor int        `json:"monitor"`
}

type hyprMonitor struct {
	ID      int     `json:"id"`
	Width   uint32  `json:"width"`
	Height  uint32  `json:"height"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Focused bool    `json:"focused"`
}

func (h *Hyprland) Name() string { return "hyprland" }

// WindowPosition finds the client owned by h.PID and converts its origin to
// a bottom-left origin on its monitor.
func (h *Hyprland) WindowPosition(windowHeight uint32) (float32, float32, error) {
	client, err := h.client()
	if err != nil {
		return 0, 0, err
	}
	mon, err := h.monitor(client.Monitor)
	if err != nil {
		return 0, 0, err
	}
	x := client.At[0] - mon.X
	y := float32(mon.Height) - (float32(windowHeight) + (client.At[1] - mon.Y))
	return x, y, nil
}

// MonitorSize returns the size of the monitor holding the client, or of the
// focused monitor when the client is not mapped yet.
func (h *Hyprland) MonitorSize() (uint32, uint32, error) {
	id := -1
	if client, err := h.client(); err == nil {
		id = client.Monitor
	}
	mon, err := h.monitor(id)
	if err != nil {
		return 0, 0, err
	}
	return mon.Width, mon.Height, nil
}

func (h *Hyprland) client() (hyprClient, error) {
	var clients []hyprClient
	if err := h.query(&clients, "clients"); err != nil {
		return hyprClient{}, err
	}
	for _, c := range clients {
		if c.PID == h.PID {
			return c, nil
		}
	}
	return hyprClient{}, fmt.Errorf("%w: pid %d", ErrNoClient, h.PID)
}

// monitor returns the monitor with the given id, falling back to the
// focused one and then to the first one listed.
func (h *Hyprland) monitor(id int) (hyprMonitor, error) {
	var monitors []hyprMonitor
	if err := h.query(&monitors, "monitors"); err != nil {
		return hyprMonitor{}, err
	}
	if len(monitors) == 0 {
		return hyprMonitor{}, ErrNoMonitor
	}
	fallback := monitors[0]
	for _, m := range monitors {
		if m.ID == id {
			return m, nil
		}
		if m.Focused {
			fallback = m
		}
	}
	return fallback, nil
}

func (h *Hyprland) query(dst any, what string) error {
	run := h.Run
	if run == nil {
		run = execRunner
	}
	ctx, cancel := context.WithTimeout(context.Background(), hyprQueryTimeout)
	defer cancel()
	out, err := run(ctx, "hyprctl", "-j", what)
	if err != nil {
		return fmt.Errorf("geometry: hyprctl %s: %w", what, err)
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("geometry: decode hyprctl %s: %w", what, err)
	}
	return nil
}
