// Package monitoring serves the state of a running trigger simulation over
// HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cdctrg/bitstate"
	"github.com/sarchlab/cdctrg/hooking"
	"github.com/sarchlab/cdctrg/idgen"
	"github.com/sarchlab/cdctrg/monitoring/web"
	"github.com/sarchlab/cdctrg/trgcdc"
)

// BoardSnapshot is the last packed state of a board as the monitor saw it.
type BoardSnapshot struct {
	Name     string
	Type     string
	MergerID int
	Event    string
	Tick     int64
	Packed   uint64
	State    string

	state *bitstate.State
}

// Monitor turns a simulation into a server so that it can be watched from a
// browser.
type Monitor struct {
	portNumber  int
	openBrowser bool
	registry    *prometheus.Registry
	metrics     *Metrics
	ids         idgen.Generator

	boardsLock sync.Mutex
	boardNames []string
	boards     map[string]*BoardSnapshot

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor with its own metrics registry.
func NewMonitor() *Monitor {
	registry := prometheus.NewRegistry()

	return &Monitor{
		registry: registry,
		metrics:  NewMetrics(registry),
		ids:      idgen.NewSequential(),
		boards:   make(map[string]*BoardSnapshot),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the dashboard in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// Registry returns the registry that /metrics serves.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Metrics returns the hook that feeds /metrics.
func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// RegisterSystem makes the boards of a system visible and attaches the
// monitor and its Metrics hook to it. Every registered system feeds the same
// metrics.
func (m *Monitor) RegisterSystem(s *trgcdc.System) *Metrics {
	m.boardsLock.Lock()
	for _, b := range s.Boards() {
		if _, ok := m.boards[b.Name()]; ok {
			continue
		}

		m.boardNames = append(m.boardNames, b.Name())
		m.boards[b.Name()] = &BoardSnapshot{
			Name:     b.Name(),
			Type:     b.Type().String(),
			MergerID: b.MergerID(),
		}
	}
	m.boardsLock.Unlock()

	s.AcceptHook(m)
	s.AcceptHook(m.metrics)

	return m.metrics
}

// Func keeps the latest packed state of every board.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	if ctx.Pos != trgcdc.HookPosBoardPacked {
		return
	}

	out := ctx.Item.(trgcdc.BoardOutput)

	event := ""
	if s, ok := ctx.Domain.(*trgcdc.System); ok {
		event = s.EventID()
	}

	m.boardsLock.Lock()
	defer m.boardsLock.Unlock()

	snap, ok := m.boards[out.Board.Name()]
	if !ok {
		return
	}

	snap.Event = event
	snap.Tick = int64(out.Tick)
	snap.Packed++
	snap.State = out.State.String()
	snap.state = out.State
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_boards", m.listBoards)
	r.HandleFunc("/api/board/{name}", m.boardDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// dashboard.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	router := m.Router()
	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return url
}

func (m *Monitor) listBoards(w http.ResponseWriter, _ *http.Request) {
	m.boardsLock.Lock()
	names := make([]string, len(m.boardNames))
	copy(names, m.boardNames)
	m.boardsLock.Unlock()

	bytes, err := json.Marshal(names)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findBoardOr404(
	w http.ResponseWriter,
	name string,
) *BoardSnapshot {
	m.boardsLock.Lock()
	snap, ok := m.boards[name]
	var copied BoardSnapshot
	if ok {
		copied = *snap
	}
	m.boardsLock.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Board not found"))
		dieOnErr(err)

		return nil
	}

	return &copied
}

func (m *Monitor) boardDetails(w http.ResponseWriter, r *http.Request) {
	snap := m.findBoardOr404(w, mux.Vars(r)["name"])
	if snap == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(snap)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	Board string `json:"board,omitempty"`
	Field string `json:"field,omitempty"`
}

type fieldRsp struct {
	Board string `json:"board"`
	Field string `json:"field"`
	Tick  int64  `json:"tick"`
	Value uint64 `json:"value"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	snap := m.findBoardOr404(w, req.Board)
	if snap == nil {
		return
	}

	if snap.state == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Board %s has not packed yet", req.Board)

		return
	}

	v, err := snap.state.Get(req.Field)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	bytes, err := json.Marshal(fieldRsp{
		Board: req.Board,
		Field: req.Field,
		Tick:  snap.Tick,
		Value: v,
	})
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBar, len(m.progressBars))
	for i, b := range m.progressBars {
		b.Lock()
		bars[i] = ProgressBar{
			ID:         b.ID,
			Name:       b.Name,
			StartTime:  b.StartTime,
			Total:      b.Total,
			Finished:   b.Finished,
			InProgress: b.InProgress,
		}
		b.Unlock()
	}
	m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(bars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	bytes, err := json.Marshal(resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
