package upload

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkCall struct {
	index      int
	total      int
	size       int
	compressed bool
}

// fakeEndpoint is an in-memory Endpoint. failuresLeft maps a chunk index
// to how many attempts should fail before succeeding; -1 means always fail.
type fakeEndpoint struct {
	mu            sync.Mutex
	startCalls    int
	startFilename string
	startTotal    int
	startGuest    string
	startErr      error
	serverChunk   int64
	chunkCalls    []chunkCall
	failuresLeft  map[int]int
	chunkDelay    time.Duration
	blockChunks   bool
	inFlight      int
	maxInFlight   int
	completeCalls int
	completeErr   error
}

func (f *fakeEndpoint) StartSession(_ context.Context, filename string, totalChunks int, guest string) (string, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	f.startFilename = filename
	f.startTotal = totalChunks
	f.startGuest = guest
	if f.startErr != nil {
		return "", 0, f.startErr
	}
	return "up-123", f.serverChunk, nil
}

func (f *fakeEndpoint) UploadChunk(ctx context.Context, _ string, index, total int, payload []byte, compressed bool) error {
	if f.blockChunks {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.chunkCalls = append(f.chunkCalls, chunkCall{index, total, len(payload), compressed})
	fail := false
	if n := f.failuresLeft[index]; n != 0 {
		if n > 0 {
			f.failuresLeft[index] = n - 1
		}
		fail = true
	}
	f.mu.Unlock()

	if f.chunkDelay > 0 {
		time.Sleep(f.chunkDelay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if fail {
		return errors.New("transfer refused")
	}
	return nil
}

func (f *fakeEndpoint) CompleteSession(context.Context, string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return json.RawMessage(`{"url":"/photos/abc"}`), nil
}

func (f *fakeEndpoint) callsFor(index int) []chunkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []chunkCall
	for _, c := range f.chunkCalls {
		if c.index == index {
			calls = append(calls, c)
		}
	}
	return calls
}

func writeTestFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRun_ThreeChunkSession(t *testing.T) {
	ep := &fakeEndpoint{}
	path := writeTestFile(t, 12_000_000)

	up := New(ep, path, Options{ChunkSize: 5_000_000, Guest: "maria"})
	res, err := up.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, up.State())
	assert.Equal(t, "up-123", res.UploadID)
	assert.JSONEq(t, `{"url":"/photos/abc"}`, string(res.Payload))
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, int64(12_000_000), res.Bytes)

	assert.Equal(t, 1, ep.startCalls)
	assert.Equal(t, "photo.jpg", ep.startFilename)
	assert.Equal(t, 3, ep.startTotal)
	assert.Equal(t, "maria", ep.startGuest)
	assert.Equal(t, 1, ep.completeCalls)

	require.Len(t, ep.chunkCalls, 3)
	sizes := map[int]int{}
	for _, c := range ep.chunkCalls {
		assert.Equal(t, 3, c.total)
		sizes[c.index] = c.size
	}
	assert.Equal(t, map[int]int{0: 5_000_000, 1: 5_000_000, 2: 2_000_000}, sizes)

	var percents []int
	var lastLoaded int64
	for snap := range up.Progress() {
		percents = append(percents, snap.Percent)
		assert.GreaterOrEqual(t, snap.Loaded, lastLoaded)
		lastLoaded = snap.Loaded
		assert.Equal(t, int64(12_000_000), snap.Total)
	}
	assert.Equal(t, []int{33, 67, 100}, percents)
	assert.Equal(t, int64(12_000_000), lastLoaded)
}

func TestRun_RetryThenSuccess(t *testing.T) {
	ep := &fakeEndpoint{failuresLeft: map[int]int{1: 2}}
	path := writeTestFile(t, 12_000_000)

	up := New(ep, path, Options{
		ChunkSize:  5_000_000,
		RetryDelay: time.Millisecond,
	})
	res, err := up.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, up.State())
	assert.Equal(t, 3, res.Chunks)

	// Two failed attempts plus the one that landed.
	assert.Len(t, ep.callsFor(1), 3)

	for out := range up.Outcomes() {
		assert.True(t, out.Success)
		assert.NoError(t, out.Err)
		if out.Index == 1 {
			assert.Equal(t, 2, out.Retries)
		}
	}
}

func TestRun_ChunkExhaustsRetries(t *testing.T) {
	ep := &fakeEndpoint{failuresLeft: map[int]int{0: -1}}
	path := writeTestFile(t, 12_000_000)

	up := New(ep, path, Options{
		ChunkSize:     5_000_000,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	})
	_, err := up.Run(context.Background())

	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailureChunkPermanent, serr.Kind)
	assert.Equal(t, 0, serr.ChunkIndex)
	assert.Equal(t, "up-123", serr.UploadID)

	assert.Equal(t, StateFailed, up.State())
	assert.Equal(t, 0, ep.completeCalls, "a failed session must never finalize")
	assert.Len(t, ep.callsFor(0), 3, "initial attempt plus two retries")

	var failed []ChunkOutcome
	for out := range up.Outcomes() {
		if !out.Success {
			failed = append(failed, out)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 0, failed[0].Index)
	assert.Error(t, failed[0].Err)
}

func TestRun_StartSessionFailure(t *testing.T) {
	ep := &fakeEndpoint{startErr: errors.New("gallery offline")}
	path := writeTestFile(t, 1_000)

	up := New(ep, path, Options{})
	_, err := up.Run(context.Background())

	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailureSessionStart, serr.Kind)
	assert.Equal(t, StateFailed, up.State())

	assert.Empty(t, ep.chunkCalls, "no chunk may be sent when the session never opened")
	assert.Equal(t, 0, ep.completeCalls)
}

func TestRun_ServerChunkSizeWins(t *testing.T) {
	ep := &fakeEndpoint{serverChunk: 3_000_000}
	path := writeTestFile(t, 12_000_000)

	up := New(ep, path, Options{ChunkSize: 5_000_000})
	res, err := up.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Chunks)
	require.Len(t, ep.chunkCalls, 4)
	for _, c := range ep.chunkCalls {
		assert.Equal(t, 4, c.total)
		assert.Equal(t, 3_000_000, c.size)
	}
}

func TestRun_BoundsParallelism(t *testing.T) {
	ep := &fakeEndpoint{chunkDelay: 20 * time.Millisecond}
	path := writeTestFile(t, 200_000)

	up := New(ep, path, Options{ChunkSize: 10_000, MaxParallelUploads: 4})
	_, err := up.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, ep.chunkCalls, 20)
	assert.LessOrEqual(t, ep.maxInFlight, 4)
	assert.Greater(t, ep.maxInFlight, 1, "the pool should actually run concurrently")
}

func TestRun_InvalidChunkSize(t *testing.T) {
	ep := &fakeEndpoint{}
	path := writeTestFile(t, 1_000)

	up := New(ep, path, Options{ChunkSize: -1})
	_, err := up.Run(context.Background())

	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailureInvalidInput, serr.Kind)
	assert.Equal(t, 0, ep.startCalls, "validation must run before any request")
}

func TestRun_MissingFile(t *testing.T) {
	ep := &fakeEndpoint{}
	up := New(ep, filepath.Join(t.TempDir(), "nope.jpg"), Options{})
	_, err := up.Run(context.Background())

	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailureInvalidInput, serr.Kind)
	assert.Equal(t, 0, ep.startCalls)
}

func TestRun_FinalizeFailure(t *testing.T) {
	ep := &fakeEndpoint{completeErr: errors.New("manifest mismatch")}
	path := writeTestFile(t, 1_000)

	up := New(ep, path, Options{})
	_, err := up.Run(context.Background())

	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailureFinalize, serr.Kind)
	assert.Equal(t, StateFailed, up.State())
	assert.Len(t, ep.chunkCalls, 1, "chunks were already transferred")
}

func TestRun_EmptyFile(t *testing.T) {
	ep := &fakeEndpoint{}
	path := writeTestFile(t, 0)

	up := New(ep, path, Options{})
	res, err := up.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, up.State())
	assert.Equal(t, 0, res.Chunks)
	assert.Equal(t, 0, ep.startTotal)
	assert.Empty(t, ep.chunkCalls)
	assert.Equal(t, 1, ep.completeCalls)
}

func TestRun_SingleUse(t *testing.T) {
	ep := &fakeEndpoint{}
	path := writeTestFile(t, 1_000)

	up := New(ep, path, Options{})
	_, err := up.Run(context.Background())
	require.NoError(t, err)

	_, err = up.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRun_Canceled(t *testing.T) {
	ep := &fakeEndpoint{blockChunks: true}
	path := writeTestFile(t, 100_000)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	up := New(ep, path, Options{ChunkSize: 10_000})
	_, err := up.Run(ctx)

	var serr *SessionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailureCanceled, serr.Kind)
	assert.Equal(t, StateFailed, up.State())
	assert.Equal(t, 0, ep.completeCalls)
}

func TestRun_Compression(t *testing.T) {
	ep := &fakeEndpoint{}
	path := filepath.Join(t.TempDir(), "flat.raw")
	require.NoError(t, os.WriteFile(path, make([]byte, 64*1024), 0o644))

	up := New(ep, path, Options{Compression: true})
	res, err := up.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ep.chunkCalls, 1)
	assert.True(t, ep.chunkCalls[0].compressed)
	assert.Less(t, ep.chunkCalls[0].size, 64*1024)

	assert.Equal(t, int64(64*1024), res.Bytes)
	assert.Less(t, res.WireBytes, res.Bytes)
}
