package pool

import (
	"container/ring"
	"sort"

	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/resource"
)

// SliceMsg names an index range [Start, Stop) of some dataset a worker
// already holds locally (pushed into its launch kwargs by the caller
// before Pool.Start).
type SliceMsg struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// MapResult is a worker's reply to a SliceMsg: one output per input
// element in the requested range, in order.
type MapResult struct {
	Slice   SliceMsg      `json:"slice"`
	Results []interface{} `json:"results"`
}

// Chunks splits [0, n) into chunksize-sized slices, the last one clamped
// to n. It returns nil for n == 0.
func Chunks(n, chunksize int) []SliceMsg {
	if n <= 0 {
		return nil
	}
	var out []SliceMsg
	for start := 0; start < n; start += chunksize {
		stop := start + chunksize
		if stop > n {
			stop = n
		}
		out = append(out, SliceMsg{Start: start, Stop: stop})
	}
	return out
}

func newResourceRing(resources []*resource.Resource) *ring.Ring {
	r := ring.New(len(resources))
	for _, res := range resources {
		r.Value = res
		r = r.Next()
	}
	return r
}

// schedule runs a priming / steady-state / drain loop over the pool's
// workers: it feeds slices pulled from next to workers in round-robin
// order, invoking yield for every MapResult a worker returns, and blocks
// until every outstanding request has a reply consumed. A worker error
// (peer ERROR frame, transport failure) or a yield error aborts the whole
// scan and is returned.
func (p *Pool) schedule(pull func() (SliceMsg, bool), channel messenger.Channel, yield func(MapResult) error) error {
	n := len(p.resources)
	if n == 0 {
		return nil
	}
	cur := newResourceRing(p.resources)

	// 1. Priming: one slice to each worker, in ring order. inFlight
	// counts requests sent but not yet matched with a yielded reply,
	// so an empty input (pull never yields) is distinguishable from
	// "primed but no worker has answered yet".
	inFlight := 0
	for i := 0; i < n; i++ {
		r := cur.Value.(*resource.Resource)
		if slice, ok := pull(); ok {
			m, err := r.Messenger()
			if err != nil {
				return err
			}
			if err := m.SendRequest(slice, channel); err != nil {
				return err
			}
			inFlight++
		}
		cur = cur.Next()
	}

	// 2. Steady state: non-blocking drain per worker, refeeding
	// immediately on every result, until every in-flight request has
	// been matched with a reply and no more input remains. With zero
	// in-flight requests (e.g. an empty dataset) this loop never runs.
	for inFlight > 0 {
		sawAny := false
		for i := 0; i < n; i++ {
			r := cur.Value.(*resource.Resource)
			m, err := r.Messenger()
			if err != nil {
				return err
			}
			items, err := m.ReceiveAvailable(channel)
			if err != nil {
				return err
			}
			for _, item := range items {
				sawAny = true
				inFlight--
				var mr MapResult
				if err := decodeInto(item, &mr); err != nil {
					return err
				}
				if slice, ok := pull(); ok {
					if err := m.SendRequest(slice, channel); err != nil {
						return err
					}
					inFlight++
				}
				if err := yield(mr); err != nil {
					return err
				}
			}
			cur = cur.Next()
		}
		if !sawAny && inFlight > 0 {
			// Every worker came up empty this sweep, but at least one
			// reply is still outstanding somewhere: block on the next
			// worker in line that still has a request outstanding until
			// it produces anything at all, then resume the sweep from
			// there.
			for j := 0; j < n; j++ {
				m, err := cur.Value.(*resource.Resource).Messenger()
				if err != nil {
					return err
				}
				if m.Remaining(channel) > 0 {
					if err := m.AwaitAvailable(); err != nil {
						return err
					}
					break
				}
				cur = cur.Next()
			}
		}
	}

	// 3. Drain: block on each worker until its remaining(channel) is zero
	// and yield whatever that receives. The steady-state loop exits only
	// once inFlight is zero, so this pass normally receives nothing.
	for i := 0; i < n; i++ {
		r := cur.Value.(*resource.Resource)
		m, err := r.Messenger()
		if err != nil {
			return err
		}
		items, err := m.ReceiveRemaining(channel)
		if err != nil {
			return err
		}
		for _, item := range items {
			var mr MapResult
			if err := decodeInto(item, &mr); err != nil {
				return err
			}
			if err := yield(mr); err != nil {
				return err
			}
		}
		cur = cur.Next()
	}
	return nil
}

func chunkPuller(n, chunksize int) func() (SliceMsg, bool) {
	slices := Chunks(n, chunksize)
	idx := 0
	return func() (SliceMsg, bool) {
		if idx >= len(slices) {
			return SliceMsg{}, false
		}
		s := slices[idx]
		idx++
		return s, true
	}
}

// MapUnordered feeds [0, n) in chunksize-sized slices across the pool's
// workers and calls yield once per output element as results arrive,
// in whatever order workers finish -- not necessarily input order.
func (p *Pool) MapUnordered(n, chunksize int, channel messenger.Channel, yield func(interface{}) error) error {
	return p.schedule(chunkPuller(n, chunksize), channel, func(mr MapResult) error {
		for _, item := range mr.Results {
			if err := yield(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Map feeds [0, n) in chunksize-sized slices across the pool's workers
// and returns every output element, reordered to match input order.
func (p *Pool) Map(n, chunksize int, channel messenger.Channel) ([]interface{}, error) {
	var results []MapResult
	err := p.schedule(chunkPuller(n, chunksize), channel, func(mr MapResult) error {
		results = append(results, mr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Slice.Start < results[j].Slice.Start })

	var out []interface{}
	for _, mr := range results {
		out = append(out, mr.Results...)
	}
	return out, nil
}
