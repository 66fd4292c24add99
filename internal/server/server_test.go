package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MangaSketch/internal/export"
	"MangaSketch/internal/guide"
	"MangaSketch/internal/state"
)

type stubRequester struct {
	sketches []string
	prompts  []string
}

func (s *stubRequester) FromSketch(_ context.Context, image string) (string, error) {
	s.sketches = append(s.sketches, image)
	return "guide for sketch", nil
}

func (s *stubRequester) FromPrompt(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return "guide for " + prompt, nil
}

func newTestServer(t *testing.T, req guide.Requester) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(req, ServerOptions{Width: 200, Height: 120, Logger: discardLogger()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + WSPath
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) StateMessage {
	t.Helper()
	var msg StateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MsgState, msg.Type)
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, &stubRequester{})

	resp, err := http.Get(ts.URL + HealthPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestGuideRoutesMounted(t *testing.T) {
	req := &stubRequester{}
	_, ts := newTestServer(t, req)

	resp, err := http.Post(ts.URL+guide.PromptPath, "application/json",
		bytes.NewBufferString(`{"prompt":"a running cat"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out guide.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "guide for a running cat", out.Guide)
	assert.Equal(t, []string{"a running cat"}, req.prompts)
}

func TestSessionDrawAndExport(t *testing.T) {
	_, ts := newTestServer(t, &stubRequester{})
	conn := dial(t, ts)

	initial := readState(t, conn)
	assert.Empty(t, initial.Strokes)
	assert.False(t, initial.Capturing)
	assert.Equal(t, state.ToolBrush, initial.Tool)

	send(t, conn, Message{Type: MsgDown, X: 20, Y: 60})
	down := readState(t, conn)
	assert.True(t, down.Capturing)
	require.Len(t, down.Strokes, 1)

	send(t, conn, Message{Type: MsgMove, X: 100, Y: 60})
	send(t, conn, Message{Type: MsgMove, X: 180, Y: 60})
	send(t, conn, Message{Type: MsgUp})

	up := readState(t, conn)
	assert.False(t, up.Capturing)
	require.Len(t, up.Strokes, 1)
	assert.Equal(t, []state.Point{{X: 20, Y: 60}, {X: 100, Y: 60}, {X: 180, Y: 60}}, up.Strokes[0].Points)

	send(t, conn, Message{Type: MsgExport})
	var img ImageMessage
	require.NoError(t, conn.ReadJSON(&img))
	assert.Equal(t, MsgImage, img.Type)
	assert.Equal(t, MsgExport, img.Action)

	mime, data, err := export.DecodeDataURI(img.Data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())

	_, _, _, a := decoded.At(100, 60).RGBA()
	assert.Greater(t, a, uint32(0), "stroke is painted")
	_, _, _, a = decoded.At(100, 10).RGBA()
	assert.Zero(t, a, "background stays transparent")
}

func TestSessionEraserAndSettings(t *testing.T) {
	_, ts := newTestServer(t, &stubRequester{})
	conn := dial(t, ts)
	readState(t, conn)

	send(t, conn, Message{Type: MsgColor, Color: "#F00"})
	assert.Equal(t, "#ff0000", readState(t, conn).Color)

	send(t, conn, Message{Type: MsgWidth, Width: 0})
	var e ErrorMessage
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, MsgError, e.Type)

	send(t, conn, Message{Type: MsgTool, Tool: "laser"})
	require.NoError(t, conn.ReadJSON(&e))
	assert.Contains(t, e.Error, "unknown tool")

	send(t, conn, Message{Type: MsgTool, Tool: "eraser"})
	assert.Equal(t, state.ToolEraser, readState(t, conn).Tool)

	send(t, conn, Message{Type: MsgDown, X: 5, Y: 5})
	st := readState(t, conn)
	require.Len(t, st.Strokes, 1)
	assert.Equal(t, state.ToolEraser, st.Strokes[0].Tool)
	assert.Equal(t, state.EraseColor, st.Strokes[0].Color)

	send(t, conn, Message{Type: MsgLeave})
	assert.False(t, readState(t, conn).Capturing)

	send(t, conn, Message{Type: MsgClear})
	assert.Empty(t, readState(t, conn).Strokes)

	send(t, conn, Message{Type: "scribble"})
	require.NoError(t, conn.ReadJSON(&e))
	assert.Contains(t, e.Error, "unknown message type")
}

func TestSessionsAreIndependent(t *testing.T) {
	_, ts := newTestServer(t, &stubRequester{})
	a := dial(t, ts)
	b := dial(t, ts)
	readState(t, a)
	readState(t, b)

	send(t, a, Message{Type: MsgDown, X: 1, Y: 1})
	assert.Len(t, readState(t, a).Strokes, 1)

	send(t, b, Message{Type: MsgClear})
	assert.Empty(t, readState(t, b).Strokes)

	send(t, a, Message{Type: MsgUp})
	assert.Len(t, readState(t, a).Strokes, 1)
}

func readImage(t *testing.T, conn *websocket.Conn) image.Image {
	t.Helper()
	var msg ImageMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MsgImage, msg.Type)
	_, data, err := export.DecodeDataURI(msg.Data)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestSessionSurvivesFarOffCanvasPoints(t *testing.T) {
	_, ts := newTestServer(t, &stubRequester{})
	conn := dial(t, ts)
	readState(t, conn)

	send(t, conn, Message{Type: MsgDown, X: 5e9, Y: 10})
	readState(t, conn)
	send(t, conn, Message{Type: MsgMove, X: 10, Y: 10})
	send(t, conn, Message{Type: MsgMove, X: 20, Y: 20})
	send(t, conn, Message{Type: MsgUp})
	require.Len(t, readState(t, conn).Strokes, 1)

	send(t, conn, Message{Type: MsgExport})
	img := readImage(t, conn)
	_, _, _, a := img.At(50, 10).RGBA()
	assert.Greater(t, a, uint32(0), "visible part of the stroke is painted")

	send(t, conn, Message{Type: MsgDown, X: -1e300, Y: 1e300})
	readState(t, conn)
	send(t, conn, Message{Type: MsgMove, X: 1e300, Y: -1e300})
	send(t, conn, Message{Type: MsgUp})
	assert.Len(t, readState(t, conn).Strokes, 2)

	send(t, conn, Message{Type: MsgShare})
	readImage(t, conn)
}

func TestSessionReadLimit(t *testing.T) {
	srv := NewServer(&stubRequester{}, ServerOptions{Logger: discardLogger(), MaxMessageBytes: 512})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	conn := dial(t, ts)
	readState(t, conn)

	send(t, conn, Message{Type: MsgColor, Color: strings.Repeat("f", 4096)})
	var msg StateMessage
	err := conn.ReadJSON(&msg)
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestSessionStrokePointCap(t *testing.T) {
	srv := NewServer(&stubRequester{}, ServerOptions{Logger: discardLogger(), MaxStrokePoints: 3})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	conn := dial(t, ts)
	readState(t, conn)

	send(t, conn, Message{Type: MsgDown, X: 1, Y: 1})
	readState(t, conn)
	for i := 2; i <= 10; i++ {
		send(t, conn, Message{Type: MsgMove, X: float64(i), Y: 1})
	}
	send(t, conn, Message{Type: MsgUp})
	st := readState(t, conn)
	require.Len(t, st.Strokes, 1)
	assert.Equal(t, []state.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}, st.Strokes[0].Points)

	send(t, conn, Message{Type: MsgDown, X: 5, Y: 5})
	send(t, conn, Message{Type: MsgMove, X: 6, Y: 5})
	readState(t, conn)
	send(t, conn, Message{Type: MsgUp})
	st = readState(t, conn)
	require.Len(t, st.Strokes, 2)
	assert.Len(t, st.Strokes[1].Points, 2, "the cap is per stroke")
}

func TestStartStop(t *testing.T) {
	srv := NewServer(&stubRequester{}, ServerOptions{Addr: "127.0.0.1:0", Logger: discardLogger()})
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + HealthPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	assert.Zero(t, srv.Sessions())
}
