// Package monitor is a worked example WorkerFunc: a worker that polls its
// own process's CPU and resident memory usage from /proc and replies with
// a Sample on request. It exists to demonstrate the core API end to end,
// not as a production profiling tool -- no plotting, tabulation, or CLI
// is implemented here.
package monitor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/resource"
)

// WorkerName is the name Sample workers are registered and launched
// under.
const WorkerName = "coproc.example.monitor"

// Sample is one CPU/RSS reading.
type Sample struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
}

func init() {
	resource.RegisterWorker(WorkerName, messenger.Priority, runWorker)
}

// runWorker is the worker-side body: it samples its own (the child's)
// /proc/self/stat on every RequestStats-style request and replies with a
// Sample, until it observes a close request.
func runWorker(m *messenger.Messenger, kwargs map[string]interface{}) error {
	prev, prevAt, err := readProcStat(os.Getpid())
	if err != nil {
		return m.SendError(err)
	}

	for {
		_, err := m.ReceiveBlocking(nil)
		if coprocerrors.ErrorCode(err) == coprocerrors.CodeResourceRequestedClose {
			return nil
		}
		if err != nil {
			return err
		}

		cur, curAt, err := readProcStat(os.Getpid())
		if err != nil {
			if sendErr := m.SendError(err); sendErr != nil {
				return sendErr
			}
			continue
		}

		sample := Sample{
			CPUPercent: cpuPercent(prev, cur, curAt.Sub(prevAt)),
			RSSBytes:   cur.rssBytes,
		}
		prev, prevAt = cur, curAt

		if err := m.SendReply(sample, nil); err != nil {
			return err
		}
	}
}

type procStat struct {
	utimeTicks uint64
	stimeTicks uint64
	rssBytes   uint64
}

var clockTicksPerSecond = float64(100) // getconf CLK_TCK on essentially every Linux target

func readProcStat(pid int) (procStat, time.Time, error) {
	now := time.Now()
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return procStat{}, now, err
	}

	// Field 2 (comm) is parenthesized and may itself contain spaces, so
	// split on the last ')' rather than whitespace.
	line := string(data)
	commEnd := strings.LastIndex(line, ")")
	if commEnd < 0 {
		return procStat{}, now, fmt.Errorf("monitor: unexpected /proc/%d/stat format", pid)
	}
	fields := strings.Fields(line[commEnd+1:])
	// After comm, fields[0] is state, which is field 3 when counting
	// 1-indexed overall (pid and comm are fields 1 and 2), so overall
	// field k is fields[k-3]. utime is field 14, stime is field 15, rss
	// (pages) is field 24.
	const utimeIdx, stimeIdx, rssIdx = 14 - 3, 15 - 3, 24 - 3
	if len(fields) <= rssIdx {
		return procStat{}, now, fmt.Errorf("monitor: short /proc/%d/stat line", pid)
	}
	utime, _ := strconv.ParseUint(fields[utimeIdx], 10, 64)
	stime, _ := strconv.ParseUint(fields[stimeIdx], 10, 64)
	rssPages, _ := strconv.ParseUint(fields[rssIdx], 10, 64)

	return procStat{
		utimeTicks: utime,
		stimeTicks: stime,
		rssBytes:   rssPages * uint64(os.Getpagesize()),
	}, now, nil
}

func cpuPercent(prev, cur procStat, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	deltaTicks := float64((cur.utimeTicks + cur.stimeTicks) - (prev.utimeTicks + prev.stimeTicks))
	return 100 * (deltaTicks / clockTicksPerSecond) / elapsed.Seconds()
}

// Monitor is a host-side convenience wrapper over a Sample worker
// resource.
type Monitor struct {
	res *resource.Resource
}

// New returns a Monitor bound to a fresh, unstarted resource.
func New(opts ...resource.Option) *Monitor {
	return &Monitor{res: resource.New(WorkerName, messenger.Priority, opts...)}
}

// Start launches the monitor's child process.
func (mon *Monitor) Start() error {
	return mon.res.Start(nil)
}

// Close terminates the monitor's child process.
func (mon *Monitor) Close() error {
	return mon.res.Terminate(false)
}

// Sample requests and returns one CPU/RSS reading from the worker.
func (mon *Monitor) Sample() (Sample, error) {
	m, err := mon.res.Messenger()
	if err != nil {
		return Sample{}, err
	}
	if err := m.SendRequest(struct{}{}, nil); err != nil {
		return Sample{}, err
	}
	reply, err := m.ReceiveBlocking(nil)
	if err != nil {
		return Sample{}, err
	}
	var out Sample
	if s, ok := reply.(Sample); ok {
		return s, nil
	}
	if err := decodeSample(reply, &out); err != nil {
		return Sample{}, err
	}
	return out, nil
}

func decodeSample(payload interface{}, out *Sample) error {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return fmt.Errorf("monitor: unexpected reply shape %T", payload)
	}
	if v, ok := m["cpu_percent"].(float64); ok {
		out.CPUPercent = v
	}
	if v, ok := m["rss_bytes"].(float64); ok {
		out.RSSBytes = uint64(v)
	}
	return nil
}
