package stdlib

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tulpar-lang/tulpar/internal/builtin"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// wsManager tracks open WebSocket connections by handle, generalized
// from the teacher's WebSocketConn (internal/network/websocket.go) down
// to the four verbs a scripting language needs: connect, send, recv,
// close.
type wsManager struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

var wsConns = &wsManager{conns: make(map[string]*websocket.Conn)}

func registerNetwork(r builtin.Registry) {
	r["wsConnect"] = biWSConnect
	r["wsSend"] = biWSSend
	r["wsRecv"] = biWSRecv
	r["wsClose"] = biWSClose
}

// wsConnect(handle, url) -> bool
func biWSConnect(args []value.Value) value.Value {
	handle, url := strArg(args, 0), strArg(args, 1)
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		reportf("wsConnect: %v", err)
		return value.BoolValue(false)
	}
	wsConns.mu.Lock()
	wsConns.conns[handle] = conn
	wsConns.mu.Unlock()
	return value.BoolValue(true)
}

// wsSend(handle, text) -> bool
func biWSSend(args []value.Value) value.Value {
	handle, text := strArg(args, 0), strArg(args, 1)
	conn, ok := wsConns.lookup(handle)
	if !ok {
		reportf("wsSend: no open connection %q", handle)
		return value.BoolValue(false)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		reportf("wsSend: %v", err)
		return value.BoolValue(false)
	}
	return value.BoolValue(true)
}

// wsRecv(handle) -> str (empty on error)
func biWSRecv(args []value.Value) value.Value {
	handle := strArg(args, 0)
	conn, ok := wsConns.lookup(handle)
	if !ok {
		reportf("wsRecv: no open connection %q", handle)
		return value.ObjValue(value.NewStr(""))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		reportf("wsRecv: %v", err)
		return value.ObjValue(value.NewStr(""))
	}
	return value.ObjValue(value.NewStr(string(data)))
}

// wsClose(handle) -> bool
func biWSClose(args []value.Value) value.Value {
	handle := strArg(args, 0)
	wsConns.mu.Lock()
	defer wsConns.mu.Unlock()
	conn, ok := wsConns.conns[handle]
	if !ok {
		return value.BoolValue(false)
	}
	delete(wsConns.conns, handle)
	if err := conn.Close(); err != nil {
		reportf("wsClose: %v", err)
		return value.BoolValue(false)
	}
	return value.BoolValue(true)
}

func (m *wsManager) lookup(handle string) (*websocket.Conn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.conns[handle]
	return conn, ok
}
