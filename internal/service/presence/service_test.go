package presence_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"presenced/internal/model/identity"
	"presenced/internal/service/presence"
)

// fakeTransport records every emit so tests can assert exact delivery.
type fakeTransport struct {
	mu         sync.Mutex
	sends      map[string][]presence.Message
	broadcasts []presence.Message
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sends: make(map[string][]presence.Message)}
}

func (f *fakeTransport) Send(connID string, msg presence.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends[connID] = append(f.sends[connID], msg)
}

func (f *fakeTransport) Broadcast(msg presence.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, msg)
}

func (f *fakeTransport) sent(connID string) []presence.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]presence.Message, len(f.sends[connID]))
	copy(out, f.sends[connID])
	return out
}

func (f *fakeTransport) count(connID, data string) int {
	n := 0
	for _, msg := range f.sent(connID) {
		if msg.Data == data {
			n++
		}
	}
	return n
}

func newTestService() (*presence.Service, *fakeTransport) {
	store := identity.NewMemoryStore(map[string]identity.Identity{
		"tok-a": {ID: "u1", Name: "alice"},
		"tok-b": {ID: "u2", Name: "bob"},
	})
	transport := newFakeTransport()
	return presence.NewService(store, transport, "hello from server"), transport
}

func TestConnectGreetsNewConnectionOnly(t *testing.T) {
	req := require.New(t)
	svc, transport := newTestService()

	svc.Connect("c1")
	svc.Connect("c2")

	req.Equal([]presence.Message{{Data: "hello from server"}}, transport.sent("c1"))
	req.Equal([]presence.Message{{Data: "hello from server"}}, transport.sent("c2"))
	req.Empty(transport.broadcasts)
}

func TestConnectRepeatedIDIsNoOp(t *testing.T) {
	svc, transport := newTestService()

	svc.Connect("c1")
	svc.Connect("c1")

	require.Len(t, transport.sent("c1"), 1)
}

func TestLoginInvalidToken(t *testing.T) {
	req := require.New(t)
	svc, transport := newTestService()

	svc.Connect("c1")
	svc.Login("c1", "tok-bogus")

	req.Equal(1, transport.count("c1", "Invalid token"))
	_, authed := svc.Authenticated("c1")
	req.False(authed)
	req.Empty(svc.RoomMembers("u1"))
}

func TestLoginUnknownConnectionIgnored(t *testing.T) {
	req := require.New(t)
	svc, transport := newTestService()

	svc.Login("ghost", "tok-a")

	req.Empty(transport.sent("ghost"))
	req.Empty(svc.RoomMembers("u1"))
}

func TestLoginJoinsRoomAndWelcomesAllMembers(t *testing.T) {
	req := require.New(t)
	svc, transport := newTestService()

	svc.Connect("c1")
	svc.Login("c1", "tok-a")

	id, authed := svc.Authenticated("c1")
	req.True(authed)
	req.Equal("u1", id)
	req.ElementsMatch([]string{"c1"}, svc.RoomMembers("u1"))
	req.Equal(1, transport.count("c1", "Welcome back, alice"))

	// Second device, same identity: both members receive the welcome.
	svc.Connect("c2")
	svc.Login("c2", "tok-a")

	req.ElementsMatch([]string{"c1", "c2"}, svc.RoomMembers("u1"))
	req.Equal(2, transport.count("c1", "Welcome back, alice"))
	req.Equal(1, transport.count("c2", "Welcome back, alice"))
}

func TestReloginRebindsAndLeavesOldRoom(t *testing.T) {
	req := require.New(t)
	svc, transport := newTestService()

	svc.Connect("c1")
	svc.Login("c1", "tok-a")
	svc.Login("c1", "tok-b")

	req.Empty(svc.RoomMembers("u1"))
	req.ElementsMatch([]string{"c1"}, svc.RoomMembers("u2"))

	id, authed := svc.Authenticated("c1")
	req.True(authed)
	req.Equal("u2", id)
	req.Equal(1, transport.count("c1", "Welcome back, bob"))
}

func TestDisconnectingRemovesMembership(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService()

	svc.Connect("c1")
	svc.Connect("c2")
	svc.Login("c1", "tok-a")
	svc.Login("c2", "tok-a")

	svc.Disconnecting("c1", "network-loss")

	req.ElementsMatch([]string{"c2"}, svc.RoomMembers("u1"))
	_, authed := svc.Authenticated("c1")
	req.False(authed)
}

func TestDisconnectingIsIdempotent(t *testing.T) {
	req := require.New(t)
	svc, transport := newTestService()

	svc.Connect("c1")
	svc.Login("c1", "tok-a")

	svc.Disconnecting("c1", "network-loss")
	before := len(transport.sent("c1"))

	svc.Disconnecting("c1", "network-loss")
	svc.Disconnecting("c1", "")

	req.Empty(svc.RoomMembers("u1"))
	req.Len(transport.sent("c1"), before)
}

func TestDisconnectingUnauthenticated(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService()

	svc.Connect("c1")
	svc.Disconnecting("c1", "gone")

	req.Empty(svc.RoomMembers("u1"))
	_, authed := svc.Authenticated("c1")
	req.False(authed)
}

func TestBroadcastReachesTransport(t *testing.T) {
	svc, transport := newTestService()

	svc.Broadcast("hello everyone")

	require.Equal(t, []presence.Message{{Data: "hello everyone"}}, transport.broadcasts)
}

func TestConcurrentLoginDisconnectKeepsRoomsConsistent(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService()

	const conns = 32
	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", i)
			svc.Connect(connID)
			if i%2 == 0 {
				svc.Login(connID, "tok-a")
			} else {
				svc.Login(connID, "tok-b")
			}
			if i%4 == 0 {
				svc.Disconnecting(connID, "churn")
				svc.Disconnecting(connID, "churn")
			}
		}(i)
	}
	wg.Wait()

	alice := svc.RoomMembers("u1")
	bob := svc.RoomMembers("u2")

	seen := make(map[string]bool)
	for _, id := range append(alice, bob...) {
		req.False(seen[id], "connection %s is in two rooms", id)
		seen[id] = true
	}

	// Every surviving connection sits in exactly the room it logged into.
	req.Len(alice, conns/2-conns/4)
	req.Len(bob, conns/2)
}
