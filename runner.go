package wayfinder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/finder"
)

// Runner drives a Session from line-based commands read from Input.
// This allows scripted runs and a minimal interactive shell over the same session.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	// Timeout bounds each "wait" command. Zero means no limit.
	Timeout time.Duration
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

var runnerEvents = map[string]domain.Event{
	"start":   domain.EventStart,
	"pause":   domain.EventPause,
	"resume":  domain.EventResume,
	"cancel":  domain.EventCancel,
	"restart": domain.EventRestart,
	"clear":   domain.EventClear,
	"reset":   domain.EventReset,
}

// Run executes commands until EOF, "exit" or "quit".
// A rejected command is reported and the run continues; I/O errors end it.
func (r *Runner) Run(ctx context.Context, s *Session) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- Wayfinder (Runner) ---")
		fmt.Fprintln(r.Output, "Commands: start pause resume cancel restart clear reset,")
		fmt.Fprintln(r.Output, "  wall X Y, erase X Y, from X Y, to X Y, goto NAME, finder NAME, wait, show, exit")
	}

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		line := strings.TrimSpace(text)
		if line != "" && !strings.HasPrefix(line, "#") {
			if line == "exit" || line == "quit" {
				fmt.Fprintln(r.Output, "Bye!")
				return nil
			}
			if cmdErr := r.exec(ctx, s, line); cmdErr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(r.Output, "error: %v\n", cmdErr)
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

func (r *Runner) exec(ctx context.Context, s *Session, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	if event, ok := runnerEvents[cmd]; ok {
		if err := s.Fire(ctx, event); err != nil {
			return err
		}
		fmt.Fprintf(r.Output, "state: %s\n", s.State())
		return nil
	}

	switch cmd {
	case "wall", "erase", "from", "to":
		p, err := parsePoint(args)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		switch cmd {
		case "wall":
			return s.SetWalkableAt(ctx, p, false)
		case "erase":
			return s.SetWalkableAt(ctx, p, true)
		case "from":
			return s.SetStart(ctx, p)
		default:
			return s.SetEnd(ctx, p)
		}
	case "goto":
		if len(args) != 1 {
			return fmt.Errorf("goto: expected a location name")
		}
		return s.SetEndByName(ctx, args[0])
	case "finder":
		if len(args) != 1 {
			return fmt.Errorf("finder: expected one of %v", finder.Names())
		}
		f, err := finder.New(args[0])
		if err != nil {
			return err
		}
		return s.SetFinder(ctx, f)
	case "wait":
		return r.wait(ctx, s)
	case "show":
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return err
		}
		r.print(SnapshotMarkdown(snap))
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// wait blocks until the session comes to rest after a search.
func (r *Runner) wait(ctx context.Context, s *Session) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	state, err := s.Wait(ctx, domain.StateFinished, domain.StateReady, domain.StatePaused)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	fmt.Fprintf(r.Output, "state: %s\n", state)
	return nil
}

func (r *Runner) print(md string) {
	out := md
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(out))
}

func parsePoint(args []string) (domain.Point, error) {
	if len(args) != 2 {
		return domain.Point{}, fmt.Errorf("expected X Y")
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return domain.Point{}, fmt.Errorf("bad X %q", args[0])
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return domain.Point{}, fmt.Errorf("bad Y %q", args[1])
	}
	return domain.Point{X: x, Y: y}, nil
}

// SnapshotMarkdown summarizes a snapshot as a markdown document.
func SnapshotMarkdown(snap domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search (%s)\n\n", snap.State)
	fmt.Fprintf(&b, "- **Grid**: %d x %d, %d walls\n", snap.Width, snap.Height, len(snap.Walls))
	if snap.Start != nil {
		fmt.Fprintf(&b, "- **Start**: %s\n", snap.Start)
	}
	if snap.End != nil {
		fmt.Fprintf(&b, "- **End**: %s\n", snap.End)
	}
	if snap.Pending > 0 {
		fmt.Fprintf(&b, "- **Pending operations**: %d\n", snap.Pending)
	}
	if snap.Stats != nil {
		b.WriteString("\n| Path length | Time | Operations |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| %.2f | %s | %d |\n", snap.Stats.PathLength, snap.Stats.TimeSpent, snap.Stats.OperationCount)
		if len(snap.Path) == 0 {
			b.WriteString("\nNo path found.\n")
		}
	}
	return b.String()
}
