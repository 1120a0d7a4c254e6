package entropy

// Phase identifies a stage of the calculation lifecycle.
type Phase int

const (
	PhasePreprocessing Phase = iota
	PhasePreprocessingDone
	PhaseInitialCurveReady
	PhaseEntropyReductionStarted
	PhaseFinished
	PhaseAborted
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhasePreprocessing:
		return "preprocessing"
	case PhasePreprocessingDone:
		return "preprocessing done"
	case PhaseInitialCurveReady:
		return "initial curve ready"
	case PhaseEntropyReductionStarted:
		return "entropy reduction"
	case PhaseFinished:
		return "finished"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// KeyUpdate reports a new computed frequency for one key.
type KeyUpdate struct {
	Key         int
	FrequencyHz float64
}

// Reporter receives the one-way event stream from the worker. Calls
// happen on the worker goroutine and must not block; implementations
// that fan out to a UI should buffer or drop.
type Reporter interface {
	PhaseChanged(Phase)
	Progress(fraction float64)
	KeyUpdated(key int, frequencyHz float64)
}

type nopReporter struct{}

func (nopReporter) PhaseChanged(Phase)      {}
func (nopReporter) Progress(float64)        {}
func (nopReporter) KeyUpdated(int, float64) {}

// ChannelReporter adapts the Reporter stream onto buffered channels
// with drop-oldest semantics, so a slow or absent consumer can never
// stall the worker while still seeing the freshest state.
type ChannelReporter struct {
	updates  chan KeyUpdate
	progress chan float64
	phases   chan Phase
}

// NewChannelReporter returns a reporter whose channels buffer up to
// size events each.
func NewChannelReporter(size int) *ChannelReporter {
	if size < 1 {
		size = 1
	}
	return &ChannelReporter{
		updates:  make(chan KeyUpdate, size),
		progress: make(chan float64, size),
		phases:   make(chan Phase, size),
	}
}

// Updates returns the tuning-curve update stream.
func (r *ChannelReporter) Updates() <-chan KeyUpdate { return r.updates }

// ProgressFractions returns the progress stream.
func (r *ChannelReporter) ProgressFractions() <-chan float64 { return r.progress }

// Phases returns the phase transition stream.
func (r *ChannelReporter) Phases() <-chan Phase { return r.phases }

// Close closes all channels. Call only after the worker has returned.
func (r *ChannelReporter) Close() {
	close(r.updates)
	close(r.progress)
	close(r.phases)
}

func (r *ChannelReporter) PhaseChanged(p Phase) { sendDropOldest(r.phases, p) }

func (r *ChannelReporter) Progress(f float64) { sendDropOldest(r.progress, f) }

func (r *ChannelReporter) KeyUpdated(key int, freq float64) {
	sendDropOldest(r.updates, KeyUpdate{Key: key, FrequencyHz: freq})
}

func sendDropOldest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
