package server

import (
	"bytes"
	"context"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/bastiangx/tinyime/pkg/config"
	"github.com/bastiangx/tinyime/pkg/dictionary"
	"github.com/bastiangx/tinyime/pkg/ime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func readyEngine(t *testing.T, cfg *config.Config) *ime.Engine {
	t.Helper()
	src := dictionary.FSSource{FS: fstest.MapFS{
		"pinyin_corpus.txt": {Data: []byte("你 500 0 ni\n尼 50 0 ni\n呢 80 0 ne\n")},
	}}
	e := ime.New(cfg, src)
	e.Start(context.Background())
	t.Cleanup(e.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
	return e
}

func encodeAll(t *testing.T, values ...any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, v := range values {
		require.NoError(t, enc.Encode(v))
	}
	return &buf
}

func serve(t *testing.T, e *ime.Engine, in io.Reader) *msgpack.Decoder {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(e, in, &out)
	require.NoError(t, srv.Start(context.Background()))
	return msgpack.NewDecoder(&out)
}

func decodeMap(t *testing.T, dec *msgpack.Decoder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func decodeKey(t *testing.T, dec *msgpack.Decoder) KeyResponse {
	t.Helper()
	var resp KeyResponse
	require.NoError(t, dec.Decode(&resp))
	return resp
}

func TestServerComposeAndSelect(t *testing.T) {
	e := readyEngine(t, nil)
	in := encodeAll(t,
		Request{ID: "1", Kind: "char", Char: "n"},
		Request{ID: "2", Kind: "char", Char: "i"},
		Request{ID: "3", Kind: "select", Index: 1},
	)
	dec := serve(t, e, in)

	status := decodeMap(t, dec)
	assert.Equal(t, StatusReady, status["status"])

	resp := decodeKey(t, dec)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "n", resp.Composing)
	assert.Equal(t, []string{"n", "你", "呢", "尼"}, resp.Candidates)
	assert.True(t, resp.Handled)
	assert.True(t, resp.Ready)

	resp = decodeKey(t, dec)
	assert.Equal(t, "ni", resp.Composing)
	assert.Equal(t, []string{"ni", "你", "尼"}, resp.Candidates)

	resp = decodeKey(t, dec)
	assert.Equal(t, "3", resp.ID)
	assert.Empty(t, resp.Composing)
	assert.Empty(t, resp.Candidates)
	assert.Equal(t, []string{"你"}, resp.Commits)
	assert.True(t, resp.Handled)
}

func TestServerOutOfRangeSelection(t *testing.T) {
	e := readyEngine(t, nil)
	in := encodeAll(t,
		Request{ID: "1", Kind: "char", Char: "n"},
		Request{ID: "2", Kind: "char", Char: "i"},
		Request{ID: "3", Kind: "select", Index: 9},
		Request{ID: "4", Action: "status"},
	)
	dec := serve(t, e, in)
	decodeMap(t, dec)
	decodeKey(t, dec)
	decodeKey(t, dec)

	var errResp ErrorResponse
	require.NoError(t, dec.Decode(&errResp))
	assert.Equal(t, "3", errResp.ID)
	assert.Equal(t, CodeOutOfRange, errResp.Code)
	assert.NotEmpty(t, errResp.Error)

	var status StatusResponse
	require.NoError(t, dec.Decode(&status))
	assert.Equal(t, "4", status.ID)
	assert.Equal(t, "ni", status.Composing)
	assert.Equal(t, 4, status.Requests)
	assert.Equal(t, 3, status.Keys)
	assert.Equal(t, 1, status.Sources)
}

func TestServerDoneAndDelete(t *testing.T) {
	e := readyEngine(t, nil)
	in := encodeAll(t,
		Request{ID: "1", Kind: "char", Char: "n"},
		Request{ID: "2", Kind: "done"},
		Request{ID: "3", Kind: "delete"},
		Request{ID: "4", Kind: "char", Char: "n"},
		Request{ID: "5", Kind: "char", Char: " "},
	)
	dec := serve(t, e, in)
	decodeMap(t, dec)
	decodeKey(t, dec)

	resp := decodeKey(t, dec)
	assert.Equal(t, []string{"n"}, resp.Commits)
	assert.False(t, resp.Handled)

	resp = decodeKey(t, dec)
	assert.False(t, resp.Handled)
	assert.Empty(t, resp.Commits)

	decodeKey(t, dec)
	resp = decodeKey(t, dec)
	assert.Equal(t, []string{"n "}, resp.Commits)
	assert.Empty(t, resp.Composing)
}

func TestServerBadRequests(t *testing.T) {
	e := readyEngine(t, nil)
	in := encodeAll(t,
		42,
		Request{ID: "2", Kind: "jump"},
		Request{ID: "3", Kind: "char", Char: "ab"},
		Request{ID: "4", Action: "reboot"},
		Request{ID: "5", Kind: "char", Char: "n"},
	)
	dec := serve(t, e, in)
	decodeMap(t, dec)

	for _, id := range []string{"", "2", "3", "4"} {
		var errResp ErrorResponse
		require.NoError(t, dec.Decode(&errResp))
		assert.Equal(t, id, errResp.ID)
		assert.Equal(t, CodeBadRequest, errResp.Code)
	}

	resp := decodeKey(t, dec)
	assert.Equal(t, "n", resp.Composing)
}

func TestServerAllCandidates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.MaxVisible = 1
	cfg.Server.AllCandidates = true
	e := readyEngine(t, cfg)

	dec := serve(t, e, encodeAll(t, Request{ID: "1", Kind: "char", Char: "n"}))
	decodeMap(t, dec)
	resp := decodeKey(t, dec)
	assert.Equal(t, []string{"n", "你", "呢", "尼"}, resp.Candidates)
}

func TestServerPipe(t *testing.T) {
	e := readyEngine(t, nil)
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	srv := NewServer(e, inR, outW)
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(context.Background())
		outW.Close()
	}()

	dec := msgpack.NewDecoder(outR)
	enc := msgpack.NewEncoder(inW)

	status := decodeMap(t, dec)
	assert.Equal(t, StatusReady, status["status"])

	require.NoError(t, enc.Encode(Request{ID: "1", Kind: "char", Char: "n"}))
	resp := decodeKey(t, dec)
	assert.Equal(t, "n", resp.Composing)

	require.NoError(t, enc.Encode(Request{ID: "2", Action: "reset"}))
	resp = decodeKey(t, dec)
	assert.Equal(t, "2", resp.ID)
	assert.Empty(t, resp.Composing)
	assert.Empty(t, resp.Commits)

	require.NoError(t, inW.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on EOF")
	}
}
