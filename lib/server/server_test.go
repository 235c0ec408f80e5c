package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/impact"
	"github.com/pescuma/tia/lib/protocol"
	"github.com/pescuma/tia/lib/reports"
	"github.com/pescuma/tia/lib/storages/memstorage"
)

func startServer(t *testing.T) (*Server, *memstorage.Storage) {
	console := consoles.NewWriterConsole(io.Discard, consoles.LevelDebug)
	storage := memstorage.New()

	analyzer, err := impact.NewAnalyzer(console, storage, nil)
	require.Nil(t, err)
	analyzer.Start(context.Background())

	s, err := Start(console, analyzer, &Options{Workers: 3})
	require.Nil(t, err)

	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})

	return s, storage
}

func post(t *testing.T, s *Server, body string) (int, map[string]any) {
	resp, err := http.Post(s.URL(), "application/json", strings.NewReader(body))
	require.Nil(t, err)
	defer resp.Body.Close()

	var result map[string]any
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&result))

	return resp.StatusCode, result
}

func send(t *testing.T, s *Server, req *protocol.Request) (int, map[string]any) {
	data, err := json.Marshal(req)
	require.Nil(t, err)

	return post(t, s, string(data))
}

func TestListensOnFreePort(t *testing.T) {
	t.Parallel()

	s, _ := startServer(t)

	assert.Greater(t, s.Port(), 0)
	assert.Equal(t, fmt.Sprintf("http://localhost:%v/", s.Port()), s.URL())
	assert.NotEmpty(t, s.ID())

	require.Nil(t, s.Close(context.Background()))
	require.Nil(t, s.Close(context.Background()))

	_, err := http.Post(s.URL(), "application/json", strings.NewReader("{}"))
	assert.NotNil(t, err)
}

func TestRequestFlow(t *testing.T) {
	t.Parallel()

	s, storage := startServer(t)

	status, resp := send(t, s, protocol.NewDisabledTests("p", "d"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"result": []any{}}, resp)

	status, resp = send(t, s, protocol.NewAddReport("p", "org.foo.MyClassTest", []string{"org.foo.MyClass"}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"result": "ok"}, resp)

	status, resp = send(t, s, protocol.NewWriteReport("p", "d"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"result": "ok"}, resp)

	notes, _ := storage.ReadNotes(context.Background())
	assert.Equal(t, `{"digests":{"p":"d"},"p":{"org.foo.MyClassTest":["org.foo.MyClass"]}}`, notes)

	status, resp = send(t, s, protocol.NewDisabledTests("p", "d"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"result": []any{"org.foo.MyClassTest"}}, resp)

	status, resp = send(t, s, protocol.NewLog("info", "hello"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"result": "ok"}, resp)
}

func TestMalformedRequests(t *testing.T) {
	t.Parallel()

	s, _ := startServer(t)

	for _, body := range []string{
		``,
		`not json`,
		`[]`,
		`{}`,
		`{"request":"dance"}`,
		`{"request":"disabledTests","project":"p"}`,
		`{"request":"disabledTests","digest":"d"}`,
		`{"request":"addReport","project":"p","test":"t"}`,
		`{"request":"addReport","project":"p","classes":[]}`,
		`{"request":"writeReport","project":"p"}`,
		`{"request":"log","level":"info"}`,
		`{"request":"log","level":"loud","message":"m"}`,
	} {
		status, resp := post(t, s, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.NotEmpty(t, resp["error"], body)
		assert.NotContains(t, resp, "result", body)
	}

	status, resp := send(t, s, protocol.NewDisabledTests("p", "d"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"result": []any{}}, resp)
}

func TestConcurrentAddReports(t *testing.T) {
	t.Parallel()

	s, storage := startServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			data, _ := json.Marshal(protocol.NewAddReport("p", fmt.Sprintf("org.foo.T%vTest", i), []string{"org.foo.Common"}))
			resp, err := http.Post(s.URL(), "application/json", bytes.NewReader(data))
			if err == nil {
				_ = resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	status, _ := send(t, s, protocol.NewWriteReport("p", "d"))
	require.Equal(t, http.StatusOK, status)

	notes, _ := storage.ReadNotes(context.Background())
	report, err := reports.Decode(notes)
	require.Nil(t, err)
	assert.Len(t, report.Footprints.Tests("p"), 20)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	s, _ := startServer(t)

	send(t, s, protocol.NewDisabledTests("p", "d"))
	post(t, s, `{"request":"dance"}`)

	resp, err := http.Get(s.URL() + "metrics")
	require.Nil(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	text := string(data)
	assert.Contains(t, text, `tia_requests_total{outcome="ok",request="disabledTests"} 1`)
	assert.Contains(t, text, `tia_requests_total{outcome="invalid",request="invalid"} 1`)
}
