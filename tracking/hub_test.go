package tracking

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failing  bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events(t *testing.T) []services.OrderEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []services.OrderEvent
	for _, raw := range f.messages {
		var msg struct {
			Event string              `json:"event"`
			Data  services.OrderEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventOrderStatus, msg.Event)
		out = append(out, msg.Data)
	}
	return out
}

func TestHubFiltersEventsPerViewer(t *testing.T) {
	utils.InitLogger()
	hub := NewHub()

	everyone := &fakeConn{}
	resident := &fakeConn{}
	hub.Register(everyone, nil)
	hub.Register(resident, func(e services.OrderEvent) bool { return e.ResidentID == 7 })
	assert.Equal(t, 2, hub.Clients())

	hub.PublishOrderEvent(services.OrderEvent{OrderID: 1, ResidentID: 7, Status: models.OrderPrepared})
	hub.PublishOrderEvent(services.OrderEvent{OrderID: 2, ResidentID: 8, Status: models.OrderDelivered})

	assert.Len(t, everyone.events(t), 2)
	got := resident.events(t)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].OrderID)
	assert.Equal(t, models.OrderPrepared, got[0].Status)
}

func TestHubDropsBrokenConnections(t *testing.T) {
	utils.InitLogger()
	hub := NewHub()

	broken := &fakeConn{failing: true}
	hub.Register(broken, nil)
	hub.PublishOrderEvent(services.OrderEvent{OrderID: 1})

	assert.Equal(t, 0, hub.Clients())
	assert.True(t, broken.closed)
}

func TestHubUnregisterClosesConnection(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register(conn, nil)

	require.NoError(t, hub.Send(conn, Message{Event: EventConnected, Data: "hello"}))
	hub.Unregister(conn)
	hub.Unregister(conn)

	assert.True(t, conn.closed)
	assert.Equal(t, 0, hub.Clients())
	assert.Len(t, conn.messages, 1)
}
