package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cdctrg/config"
	"github.com/sarchlab/cdctrg/datarecording"
	"github.com/sarchlab/cdctrg/hooking"
	"github.com/sarchlab/cdctrg/monitoring"
	"github.com/sarchlab/cdctrg/tracing"
	"github.com/sarchlab/cdctrg/trgcdc"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run events through the trigger front end.",
	Long: "`simulate --config run.yaml --hits events.json` reads a JSON " +
		"array of events and processes them one by one. Board states can " +
		"be recorded to SQLite with --record and watched with --monitor.",
	Run: func(cmd *cobra.Command, _ []string) {
		configPath, _ := cmd.Flags().GetString("config")
		hitsPath, _ := cmd.Flags().GetString("hits")
		recordPath, _ := cmd.Flags().GetString("record")
		monitor, _ := cmd.Flags().GetBool("monitor")
		verbose, _ := cmd.Flags().GetBool("verbose")

		c, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		if recordPath != "" {
			c.Recording.Path = recordPath
		}

		if monitor {
			c.Monitor.Enabled = true
		}

		events, err := readEventFile(hitsPath)
		if err != nil {
			log.Fatalf("Error reading events: %v", err)
		}

		var logOut io.Writer
		if verbose {
			logOut = cmd.ErrOrStderr()
		}

		sim, err := newSimulation(c, logOut)
		if err != nil {
			log.Fatalf("Error building the system: %v", err)
		}

		if err := sim.run(events); err != nil {
			log.Fatalf("Error: %v", err)
		}

		sim.summary(cmd.OutOrStdout())

		atexit.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("config", "", "YAML configuration file")
	simulateCmd.Flags().String("hits", "", "JSON file with the events")
	simulateCmd.Flags().String("record", "",
		"Record hits and board states to this SQLite file (without suffix)")
	simulateCmd.Flags().Bool("monitor", false, "Serve the monitoring dashboard")
	simulateCmd.Flags().Bool("verbose", false, "Log every hook invocation")
	_ = simulateCmd.MarkFlagRequired("hits")
}

func readEventFile(path string) ([]trgcdc.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readEvents(f)
}

func readEvents(r io.Reader) ([]trgcdc.Event, error) {
	var events []trgcdc.Event

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&events); err != nil {
		return nil, errors.Wrap(err, "decoding events")
	}

	return events, nil
}

type simulation struct {
	system   *trgcdc.System
	counter  *tracing.CountTracer
	recorder datarecording.DataRecorder
	monitor  *monitoring.Monitor
}

func newSimulation(c *config.Config, logOut io.Writer) (*simulation, error) {
	b, err := c.Builder()
	if err != nil {
		return nil, err
	}

	s, err := b.Build("TRGCDC")
	if err != nil {
		return nil, err
	}

	sim := &simulation{
		system:  s,
		counter: tracing.NewCountTracer(),
	}

	tracing.CollectTrace(s, sim.counter)

	if logOut != nil {
		s.AcceptHook(hooking.NewLogHook(log.New(logOut, "", 0)))
	}

	if c.Recording.Path != "" {
		sim.recorder = datarecording.New(c.Recording.Path)
		tracing.CollectTrace(s, tracing.NewDBTracer(sim.recorder))
	}

	if c.Monitor.Enabled {
		sim.monitor = monitoring.NewMonitor().WithBrowser(c.Monitor.OpenBrowser)
		if c.Monitor.Port != 0 {
			sim.monitor.WithPortNumber(c.Monitor.Port)
		}

		sim.monitor.RegisterSystem(s)
		sim.monitor.StartServer()
	}

	return sim, nil
}

func (sim *simulation) run(events []trgcdc.Event) error {
	var bar *monitoring.ProgressBar
	if sim.monitor != nil {
		bar = sim.monitor.CreateProgressBar("Events", uint64(len(events)))
		defer sim.monitor.CompleteProgressBar(bar)
	}

	for i, ev := range events {
		if bar != nil {
			bar.IncrementInProgress(1)
		}

		if _, err := sim.system.Process(ev); err != nil {
			return errors.Wrapf(err, "event #%d", i)
		}

		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}
	}

	return nil
}

func (sim *simulation) summary(w io.Writer) {
	for _, name := range sim.counter.PosNames() {
		fmt.Fprintf(w, "%-12s %d\n", name, sim.counter.Count(name))
	}

	for _, b := range sim.system.Boards() {
		if n := sim.counter.BoardCount(b.Name()); n > 0 {
			fmt.Fprintf(w, "  %-20s %-12s %d\n", b.Name(), b.Type(), n)
		}
	}
}
