package inspector

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/plugin"
	"github.com/sceneforge/sceneforge/internal/core/scene"
)

func TestStreamsSceneMutations(t *testing.T) {
	b := bus.New()
	g := scene.NewGraph(b)
	ins := New("127.0.0.1:0")
	require.NoError(t, ins.Initialize(context.Background(), &plugin.Context{Bus: b, Scene: g}))
	t.Cleanup(func() { _ = ins.Dispose(context.Background()) })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ins.Addr()+"/inspect", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// registration happens in the handler goroutine after the handshake
	deadline := time.Now().Add(2 * time.Second)
	for ins.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, ins.ClientCount())

	require.NoError(t, g.Add(scene.NewNodeWithID("lamp", "Lamp"), ""))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, scene.EventObjectAdded, frame.Type)
	assert.Equal(t, g.Digest(), frame.Digest)

	payload, ok := frame.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "lamp", payload["id"])
	assert.Equal(t, scene.RootID, payload["parent"])
}

func TestDisposeShutsDownCleanly(t *testing.T) {
	b := bus.New()
	g := scene.NewGraph(b)
	ins := New("127.0.0.1:0")
	require.NoError(t, ins.Initialize(context.Background(), &plugin.Context{Bus: b, Scene: g}))
	addr := ins.Addr()
	require.NoError(t, ins.Dispose(context.Background()))

	_, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/inspect", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, ins.ClientCount())
}
