package game

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReplayFrame is one recorded point of a match: the snapshot after an
// engine settle and the actions and inputs accepted since the previous
// frame.
type ReplayFrame struct {
	Seq      int            `json:"seq"`
	Actions  []ActionRecord `json:"actions,omitempty"`
	Checksum string         `json:"checksum"`
	State    GameState      `json:"state"`
}

// Replay is a recorded match with step navigation.
type Replay struct {
	MatchID      string
	Seed         int64
	Frames       []ReplayFrame
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(matchID string, seed int64) *Replay {
	return &Replay{MatchID: matchID, Seed: seed}
}

// RecordFrame appends a frame and numbers it.
func (r *Replay) RecordFrame(f ReplayFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.Seq = len(r.Frames)
	r.Frames = append(r.Frames, f)
}

// Start rewinds to the first frame.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the frame at the cursor and advances it.
func (r *Replay) Next() *ReplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		f := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return &f
	}
	return nil
}

// Previous steps the cursor back and returns that frame.
func (r *Replay) Previous() *ReplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		f := r.Frames[r.CurrentIndex]
		return &f
	}
	return nil
}

// Skip moves the cursor by count frames, clamped to the recording.
func (r *Replay) Skip(count int) *ReplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIndex := r.CurrentIndex + count
	if newIndex >= len(r.Frames) {
		newIndex = len(r.Frames) - 1
	}
	if newIndex < 0 {
		newIndex = 0
	}

	r.CurrentIndex = newIndex
	if r.CurrentIndex < len(r.Frames) {
		f := r.Frames[r.CurrentIndex]
		return &f
	}
	return nil
}

// Size returns the number of frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Frames)
}

// FrameAt returns the frame at index.
func (r *Replay) FrameAt(index int) *ReplayFrame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		f := r.Frames[index]
		return &f
	}
	return nil
}

// Actions returns the recorded actions in order, inputs included. Feeding
// them to a fresh engine with the same seed reproduces the match.
func (r *Replay) Actions() []ActionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ActionRecord
	for _, f := range r.Frames {
		out = append(out, f.Actions...)
	}
	return out
}

// SaveToFile writes the replay as gzipped JSON values: a header followed
// by one frame per value.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.MatchID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := json.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		MatchID:    r.MatchID,
		Seed:       r.Seed,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i := range r.Frames {
		if err := encoder.Encode(&r.Frames[i]); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}

	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, matchID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := json.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.MatchID, metadata.Seed)
	for i := 0; i < metadata.FrameCount; i++ {
		var frame ReplayFrame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, frame)
	}

	return replay, nil
}

const replayVersion = 2

type replayMetadata struct {
	MatchID    string    `json:"matchId"`
	Seed       int64     `json:"seed"`
	Timestamp  time.Time `json:"timestamp"`
	Version    int       `json:"version"`
	FrameCount int       `json:"frameCount"`
}

// ReplayRecorder keeps replays for running matches.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // matchID -> Replay
	enabled map[string]bool    // matchID -> whether recording is enabled
	saveDir string
}

// NewReplayRecorder creates a recorder that saves under saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a match.
func (rr *ReplayRecorder) StartRecording(matchID string, seed int64) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[matchID] = NewReplay(matchID, seed)
	rr.enabled[matchID] = true

	rr.logger.Info("started replay recording",
		zap.String("match_id", matchID),
	)
}

// StopRecording stops recording a match. Frames recorded so far are kept.
func (rr *ReplayRecorder) StopRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[matchID] = false

	rr.logger.Info("stopped replay recording",
		zap.String("match_id", matchID),
	)
}

// Attach records a frame for every STATE_SNAPSHOT e emits, carrying the
// action records accepted since the previous frame. The returned function
// detaches both subscriptions.
func (rr *ReplayRecorder) Attach(matchID string, e *Engine) func() {
	var pending []ActionRecord
	offAction := e.OnAction(func(rec ActionRecord) {
		pending = append(pending, rec)
	})
	offEvent := e.OnEvent(func(ev Event) {
		if ev.Type != EventStateSnapshot || ev.State == nil {
			return
		}
		rr.RecordFrame(matchID, ReplayFrame{Actions: pending, Checksum: e.Checksum(), State: *ev.State})
		pending = nil
	})
	return func() {
		offAction()
		offEvent()
	}
}

// RecordFrame adds a frame if recording is enabled for the match.
func (rr *ReplayRecorder) RecordFrame(matchID string, f ReplayFrame) {
	rr.mu.RLock()
	enabled := rr.enabled[matchID]
	replay := rr.replays[matchID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	replay.RecordFrame(f)

	rr.logger.Debug("recorded replay frame",
		zap.String("match_id", matchID),
		zap.Int("frame_count", replay.Size()),
	)
}

// GetReplay returns the replay for a match.
func (rr *ReplayRecorder) GetReplay(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[matchID]
	return replay, exists
}

// SaveReplay writes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(matchID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[matchID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for match %s", matchID)
	}
	delete(rr.replays, matchID)
	delete(rr.enabled, matchID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("match_id", matchID),
		zap.Int("frame_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)

	return nil
}

// LoadReplay reads a replay from disk.
func (rr *ReplayRecorder) LoadReplay(matchID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, matchID)
	if err != nil {
		return nil, err
	}

	rr.logger.Info("loaded replay from disk",
		zap.String("match_id", matchID),
		zap.Int("frame_count", replay.Size()),
	)

	return replay, nil
}

// ClearReplay drops a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, matchID)
	delete(rr.enabled, matchID)

	rr.logger.Debug("cleared replay from memory",
		zap.String("match_id", matchID),
	)
}

// IsRecording reports whether recording is enabled for a match.
func (rr *ReplayRecorder) IsRecording(matchID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[matchID]
}
