package instax

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Transport is the send surface a Printer drives. One Send call is one
// link-layer write of a complete command packet.
type Transport interface {
	Send(data []byte) error
}

// Phase is the stage a print job is in.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseSendingData
	PhaseFinishing
	PhaseSendingIndicator
	PhaseExecuting
	PhaseComplete
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseSendingData:
		return "sending data"
	case PhaseFinishing:
		return "finishing"
	case PhaseSendingIndicator:
		return "sending indicator"
	case PhaseExecuting:
		return "executing"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Progress is reported to the print callback at each step of a job.
type Progress struct {
	Phase      Phase
	TotalBytes int
	BytesSent  int
	Percent    int
	Err        string // set only when Phase == PhaseError
}

// ProgressFunc receives progress updates. It is called synchronously from
// the printing goroutine and should return quickly.
type ProgressFunc func(Progress)

// Options configures the pacing delays of a print job. The printers drop or
// corrupt chunks sent back-to-back, so these delays are part of the protocol,
// not tuning knobs.
type Options struct {
	StartSettle     time.Duration // after print start
	InterChunk      time.Duration // between data chunks
	EndSettle       time.Duration // after print end
	IndicatorSettle time.Duration // after the indicator pattern, before execute
}

// DefaultOptions returns the delay schedule known to work across the
// supported printer revisions. The 75ms inter-chunk delay and the 1s
// indicator settle are what the Link 3 needs.
func DefaultOptions() Options {
	return Options{
		StartSettle:     100 * time.Millisecond,
		InterChunk:      75 * time.Millisecond,
		EndSettle:       100 * time.Millisecond,
		IndicatorSettle: time.Second,
	}
}

// Printer sequences a full print job over a Transport: print start, chunked
// image data, print end, indicator pattern, print execute, with the mandated
// delay between each command. Exactly one job runs at a time.
type Printer struct {
	transport Transport
	opts      Options

	mu       sync.Mutex
	printing bool
	abort    chan struct{}
}

// NewPrinter creates a Printer over the given transport.
func NewPrinter(transport Transport, opts Options) *Printer {
	return &Printer{transport: transport, opts: opts}
}

// Abort cancels the job currently in flight, if any. The job stops before
// its next command and returns ErrAborted. Safe to call from any goroutine
// and at any time; aborting an idle Printer is a no-op.
func (p *Printer) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.abort == nil {
		return
	}
	select {
	case <-p.abort:
	default:
		close(p.abort)
	}
}

// Print sends image to the printer as a sequenced job for the given model.
// It blocks for the whole transfer, which runs to multiple seconds for a
// full frame. onProgress may be nil. A failed command fails the job; there
// is no internal retry — re-invoke Print to try again.
func (p *Printer) Print(image []byte, model Model, onProgress ProgressFunc) error {
	profile, err := ModelProfile(model)
	if err != nil {
		return err
	}
	if len(image) == 0 {
		return ErrEmptyImage
	}

	p.mu.Lock()
	if p.printing {
		p.mu.Unlock()
		return ErrPrintInProgress
	}
	p.printing = true
	p.abort = make(chan struct{})
	abort := p.abort
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.printing = false
		p.abort = nil
		p.mu.Unlock()
	}()

	job := &job{
		total:      len(image),
		onProgress: onProgress,
	}

	slog.Info("[print] starting job", "model", model.String(),
		"bytes", job.total, "chunk_size", profile.ChunkSize)

	// Phase 1: print start, then let the firmware settle.
	job.report(PhaseStarting)
	if err := p.transport.Send(PrintStart(uint32(job.total))); err != nil {
		return job.fail("failed to send print start", err)
	}
	if err := p.wait(p.opts.StartSettle, abort); err != nil {
		return job.fail("print aborted", err)
	}

	// Phase 2: image data, one chunk per pacing interval.
	var chunkIndex uint32
	for job.sent < job.total {
		select {
		case <-abort:
			return job.fail("print aborted", ErrAborted)
		default:
		}

		end := job.sent + profile.ChunkSize
		if end > job.total {
			end = job.total
		}
		cmd, err := PrintData(chunkIndex, image[job.sent:end])
		if err != nil {
			return job.fail("failed to encode image data", err)
		}
		if err := p.transport.Send(cmd); err != nil {
			return job.fail("failed to send image data", err)
		}

		job.sent = end
		chunkIndex++
		job.report(PhaseSendingData)

		if job.sent < job.total {
			if err := p.wait(p.opts.InterChunk, abort); err != nil {
				return job.fail("print aborted", err)
			}
		}
	}

	// Phase 3: print end.
	select {
	case <-abort:
		return job.fail("print aborted", ErrAborted)
	default:
	}
	job.report(PhaseFinishing)
	if err := p.transport.Send(PrintEnd()); err != nil {
		return job.fail("failed to send print end", err)
	}
	if err := p.wait(p.opts.EndSettle, abort); err != nil {
		return job.fail("print aborted", err)
	}

	// Phase 4: indicator pattern. The Link 3 requires it before execute but
	// other revisions reject it, so a send failure here does not fail the
	// job. The long settle gives the mechanism time to spin up.
	select {
	case <-abort:
		return job.fail("print aborted", ErrAborted)
	default:
	}
	job.report(PhaseSendingIndicator)
	if err := p.transport.Send(IndicatorPattern()); err != nil {
		slog.Warn("[print] indicator pattern rejected, continuing", "error", err)
	}
	if err := p.wait(p.opts.IndicatorSettle, abort); err != nil {
		return job.fail("print aborted", err)
	}

	// Phase 5: print execute.
	select {
	case <-abort:
		return job.fail("print aborted", ErrAborted)
	default:
	}
	job.report(PhaseExecuting)
	if err := p.transport.Send(PrintExecute()); err != nil {
		return job.fail("failed to send print execute", err)
	}

	job.report(PhaseComplete)
	slog.Info("[print] job complete", "bytes", job.total)
	return nil
}

// wait sleeps for d unless the job is aborted first.
func (p *Printer) wait(d time.Duration, abort <-chan struct{}) error {
	if d <= 0 {
		select {
		case <-abort:
			return ErrAborted
		default:
			return nil
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-abort:
		return ErrAborted
	}
}

// job tracks the mutable state of one print request.
type job struct {
	total      int
	sent       int
	onProgress ProgressFunc
}

func (j *job) report(phase Phase) {
	if j.onProgress == nil {
		return
	}
	j.onProgress(Progress{
		Phase:      phase,
		TotalBytes: j.total,
		BytesSent:  j.sent,
		Percent:    j.percent(),
	})
}

// fail marks the job errored, reports it, and returns the wrapped cause.
func (j *job) fail(reason string, cause error) error {
	slog.Error("[print] job failed", "reason", reason, "error", cause)
	if j.onProgress != nil {
		j.onProgress(Progress{
			Phase:      PhaseError,
			TotalBytes: j.total,
			BytesSent:  j.sent,
			Percent:    j.percent(),
			Err:        reason,
		})
	}
	return fmt.Errorf("instax: %s: %w", reason, cause)
}

func (j *job) percent() int {
	if j.total == 0 {
		return 0
	}
	return j.sent * 100 / j.total
}
