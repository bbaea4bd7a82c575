package texpack

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Op identifies one worker operation.
type Op int

const (
	OpDecodeRaster Op = iota
	OpRenderDisplay
	OpDecodeAndPack
	OpRasterToTextureSet
)

// String implements Stringer.
func (o Op) String() string {
	switch o {
	case OpDecodeRaster:
		return "decodeRaster"
	case OpRenderDisplay:
		return "decodeAndRenderDisplayBitmap"
	case OpDecodeAndPack:
		return "decodeAndPackTextureSet"
	case OpRasterToTextureSet:
		return "rasterToTextureSet"
	default:
		return "unknown"
	}
}

// WorkRequest is one correlated message to a worker. IDs are process-unique
// and monotonically increasing.
type WorkRequest struct {
	ID      uint64
	Op      Op
	Payload WorkPayload
	// Format is the resolved configuration for payloads that do not carry
	// their own hints (rasterToTextureSet).
	Format FormatConfig
}

// WorkReply is the correlated answer: exactly one of Result or Err is set.
type WorkReply struct {
	ID     uint64
	OK     bool
	Result WorkPayload
	Err    string
}

// Warning is the out-of-band advisory message. It carries no id and is not
// correlated to any request; Code doubles as its dedup key.
type Warning struct {
	Code    string
	Message string
}

// maxPoolWorkers bounds the pool size to avoid oversubscription.
const maxPoolWorkers = 8

// PoolOptions configures a Pool.
type PoolOptions struct {
	// Workers is the number of parallel workers. Zero selects
	// min(available hardware parallelism, 8).
	Workers int
	// OnWarn receives each distinct advisory condition once for the
	// lifetime of the pool.
	OnWarn WarnFunc
}

// Pool owns a fixed set of parallel workers running the
// decode→classify→convert→pack pipeline. Requests are routed to the
// least-loaded worker and correlated by id; payload buffers are transferred,
// not copied, so after issuing a request the caller must not touch the
// payload's buffers. Workers start lazily on the first request.
//
// There is no timeout or cancellation for in-flight requests: once
// dispatched, a request runs to completion or failure, and a hung worker
// stalls its caller. Close rejects every outstanding request.
type Pool struct {
	opts  PoolOptions
	warns *WarnSet

	start sync.Once
	done  chan struct{}
	wg    sync.WaitGroup

	warnCh chan Warning

	mu      sync.Mutex
	workers []*poolWorker
	pending map[uint64]chan WorkReply
	nextID  uint64
	closed  bool
}

type poolWorker struct {
	requests chan WorkRequest
	// outstanding requests, guarded by Pool.mu.
	pending int
}

// NewPool returns a pool handle. The caller owns it and must Close it.
func NewPool(opts PoolOptions) *Pool {
	p := &Pool{
		opts:    opts,
		done:    make(chan struct{}),
		warnCh:  make(chan Warning, 16),
		pending: make(map[uint64]chan WorkReply),
	}
	// Dedup happens on the worker side; only first occurrences travel the
	// uncorrelated warning channel.
	p.warns = NewWarnSet(func(code, message string) {
		select {
		case p.warnCh <- Warning{Code: code, Message: message}:
		case <-p.done:
		}
	})
	return p
}

// DecodeRaster decodes container bytes into a canonical raster on a worker.
func (p *Pool) DecodeRaster(src *RawContainer) (*Raster, error) {
	res, err := p.do(OpDecodeRaster, src, src.Hints.Format)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*Raster)
	if !ok {
		return nil, InternalError("reply payload is not a raster")
	}
	return out, nil
}

// RenderDisplay decodes container bytes and renders the 4-channel display
// bitmap on a worker.
func (p *Pool) RenderDisplay(src *RawContainer) (*DisplayBitmap, error) {
	res, err := p.do(OpRenderDisplay, src, src.Hints.Format)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*DisplayBitmap)
	if !ok {
		return nil, InternalError("reply payload is not a display bitmap")
	}
	return out, nil
}

// DecodeAndPack decodes container bytes and packs the texture set on a
// worker.
func (p *Pool) DecodeAndPack(src *RawContainer) (*TextureSet, error) {
	res, err := p.do(OpDecodeAndPack, src, src.Hints.Format)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*TextureSet)
	if !ok {
		return nil, InternalError("reply payload is not a texture set")
	}
	return out, nil
}

// RasterToTextureSet packs an already decoded raster on a worker. Ownership
// of the raster's band buffers transfers to the pool.
func (p *Pool) RasterToTextureSet(r *Raster, cfg FormatConfig) (*TextureSet, error) {
	res, err := p.do(OpRasterToTextureSet, r, cfg)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*TextureSet)
	if !ok {
		return nil, InternalError("reply payload is not a texture set")
	}
	return out, nil
}

// Close tears the pool down: all workers stop and every outstanding request
// is rejected. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	for id, ch := range p.pending {
		delete(p.pending, id)
		ch <- WorkReply{ID: id, Err: "pool closed"}
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// do issues one request to the least-loaded worker and suspends the caller
// until the correlated reply arrives.
func (p *Pool) do(op Op, payload WorkPayload, cfg FormatConfig) (WorkPayload, error) {
	p.start.Do(p.startWorkers)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("texpack: pool is closed")
	}
	p.nextID++
	req := WorkRequest{ID: p.nextID, Op: op, Payload: payload, Format: cfg}
	ch := make(chan WorkReply, 1)
	p.pending[req.ID] = ch

	w := p.leastLoaded()
	w.pending++
	p.mu.Unlock()

	select {
	case w.requests <- req:
	case <-p.done:
		p.mu.Lock()
		delete(p.pending, req.ID)
		w.pending--
		p.mu.Unlock()
		return nil, errors.New("texpack: pool is closed")
	}

	rep := <-ch
	if !rep.OK {
		return nil, errors.New(rep.Err)
	}
	return rep.Result, nil
}

// leastLoaded picks the worker with the fewest outstanding requests, ties
// broken by pool order. Callers hold p.mu.
func (p *Pool) leastLoaded() *poolWorker {
	w := p.workers[0]
	for _, cand := range p.workers[1:] {
		if cand.pending < w.pending {
			w = cand
		}
	}
	return w
}

func (p *Pool) startWorkers() {
	n := p.opts.Workers
	if n <= 0 {
		n = minInt(runtime.NumCPU(), maxPoolWorkers)
	}
	if n < 1 {
		n = 1
	}

	p.mu.Lock()
	p.workers = make([]*poolWorker, n)
	for i := range p.workers {
		w := &poolWorker{requests: make(chan WorkRequest, 64)}
		p.workers[i] = w
		p.wg.Add(1)
		go p.runWorker(w)
	}
	p.mu.Unlock()

	p.wg.Add(1)
	go p.collectWarnings()
}

func (p *Pool) runWorker(w *poolWorker) {
	defer p.wg.Done()
	for {
		select {
		case req := <-w.requests:
			p.deliver(w, p.execute(req))
		case <-p.done:
			return
		}
	}
}

// collectWarnings forwards the uncorrelated warning messages to the caller.
func (p *Pool) collectWarnings() {
	defer p.wg.Done()
	for {
		select {
		case w := <-p.warnCh:
			if p.opts.OnWarn != nil {
				p.opts.OnWarn(w.Code, w.Message)
			}
		case <-p.done:
			return
		}
	}
}

// execute runs one request, converting panics into rejected replies so a
// crashing request never takes the worker down with it.
func (p *Pool) execute(req WorkRequest) (rep WorkReply) {
	rep.ID = req.ID
	defer func() {
		if r := recover(); r != nil {
			rep.OK = false
			rep.Result = nil
			rep.Err = fmt.Sprintf("worker crashed: %v", r)
		}
	}()

	result, err := runOp(req, p.warns)
	if err != nil {
		rep.Err = err.Error()
		return rep
	}
	rep.OK = true
	rep.Result = result
	return rep
}

// runOp dispatches one operation, matching the payload variant exhaustively.
func runOp(req WorkRequest, warns *WarnSet) (WorkPayload, error) {
	switch req.Op {
	case OpDecodeRaster:
		src, ok := req.Payload.(*RawContainer)
		if !ok {
			return nil, InputError("decodeRaster expects a raw container payload")
		}
		return DecodeRaster(src)

	case OpRenderDisplay:
		src, ok := req.Payload.(*RawContainer)
		if !ok {
			return nil, InputError("decodeAndRenderDisplayBitmap expects a raw container payload")
		}
		raster, err := DecodeRaster(src)
		if err != nil {
			return nil, err
		}
		return RenderDisplay(raster, src.Hints.Format, warns)

	case OpDecodeAndPack:
		src, ok := req.Payload.(*RawContainer)
		if !ok {
			return nil, InputError("decodeAndPackTextureSet expects a raw container payload")
		}
		raster, err := DecodeRaster(src)
		if err != nil {
			return nil, err
		}
		return PackTextureSet(raster, src.Hints.Format, warns)

	case OpRasterToTextureSet:
		raster, ok := req.Payload.(*Raster)
		if !ok {
			return nil, InputError("rasterToTextureSet expects a raster payload")
		}
		return PackTextureSet(raster, req.Format, warns)

	default:
		return nil, InputError(fmt.Sprintf("unknown operation %d", req.Op))
	}
}

// deliver correlates one reply with its waiting caller. Replies without a
// live correlation entry (stale or duplicate) are silently dropped.
func (p *Pool) deliver(w *poolWorker, rep WorkReply) {
	p.mu.Lock()
	w.pending--
	ch, ok := p.pending[rep.ID]
	if ok {
		delete(p.pending, rep.ID)
	}
	p.mu.Unlock()

	if ok {
		ch <- rep
	}
}
