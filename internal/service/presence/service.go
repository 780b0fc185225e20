// Package presence coordinates the connection lifecycle: how an anonymous
// transport connection becomes an authenticated identity, how room membership
// is tracked, and how messages are routed to one connection, one room, or
// everyone.
package presence

import (
	"log"
	"sync"

	"presenced/internal/model/identity"
)

// Message is the single outbound payload shape delivered to phones.
type Message struct {
	Data string `json:"data"`
}

// Transport delivers messages to live connections. Implementations must not
// block: Send and Broadcast enqueue onto per-connection FIFO queues and drop
// when a queue is full. Delivery is best effort.
type Transport interface {
	Send(connID string, msg Message)
	Broadcast(msg Message)
}

type connState int

const (
	stateConnected connState = iota
	stateAuthenticated
)

type connection struct {
	id         string
	state      connState
	identityID string
}

// Service owns per-connection session state, the login protocol, room
// membership, and disconnect cleanup. One mutex guards the connection and
// room maps; transport sends for a transition happen inside the critical
// section so a concurrent room broadcast can never observe a half-applied
// membership change.
type Service struct {
	mu        sync.Mutex
	conns     map[string]*connection
	rooms     map[string]map[string]struct{}
	store     identity.Store
	transport Transport
	greeting  string
}

// NewService bootstraps the coordinator on top of a registry and a transport.
func NewService(store identity.Store, transport Transport, greeting string) *Service {
	return &Service{
		conns:     make(map[string]*connection),
		rooms:     make(map[string]map[string]struct{}),
		store:     store,
		transport: transport,
		greeting:  greeting,
	}
}

// Connect records a new unauthenticated connection and greets it. Greeting
// goes to the new endpoint only, never broadcast.
func (s *Service) Connect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[connID]; ok {
		return
	}
	s.conns[connID] = &connection{id: connID, state: stateConnected}
	log.Printf("[presence] connection %s established", connID)
	s.transport.Send(connID, Message{Data: s.greeting})
}

// ClientMessage logs a generic inbound payload. No state change, no reply,
// never fails the connection.
func (s *Service) ClientMessage(connID, payload string) {
	log.Printf("[presence] message from %s: %s", connID, payload)
}

// Login validates token and binds the connection to the matching identity.
// An unknown token earns the requester an "Invalid token" message and leaves
// its state untouched. A valid token on an already authenticated connection
// rebinds silently: the connection leaves its old room before joining the new
// one, so it is never a member of two rooms.
func (s *Service) Login(connID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.conns[connID]
	if !ok {
		// Disconnect already tore this connection down.
		return
	}

	phone, ok := s.store.FindByToken(token)
	if !ok {
		s.transport.Send(connID, Message{Data: "Invalid token"})
		return
	}

	if conn.state == stateAuthenticated {
		s.leaveRoom(conn)
	}
	conn.state = stateAuthenticated
	conn.identityID = phone.ID

	members, ok := s.rooms[phone.ID]
	if !ok {
		members = make(map[string]struct{})
		s.rooms[phone.ID] = members
	}
	members[connID] = struct{}{}

	welcome := Message{Data: "Welcome back, " + phone.Name}
	for member := range members {
		s.transport.Send(member, welcome)
	}
}

// Disconnecting tears down a connection. Idempotent: the record is dropped on
// the first call, so a repeated disconnect signal from the transport is a
// no-op.
func (s *Service) Disconnecting(connID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.conns[connID]
	if !ok {
		return
	}
	delete(s.conns, connID)

	if conn.state != stateAuthenticated {
		return
	}
	s.leaveRoom(conn)

	name := conn.identityID
	if phone, ok := s.store.FindByID(conn.identityID); ok {
		name = phone.Name
	}
	if reason == "" {
		reason = "unspecified"
	}
	log.Printf("[presence] %s disconnected: %s", name, reason)
}

// Broadcast emits data to every live connection. Exposed for the HTTP API's
// notification side effect.
func (s *Service) Broadcast(data string) {
	s.transport.Broadcast(Message{Data: data})
}

// RoomMembers returns the connection ids currently authenticated as
// identityID.
func (s *Service) RoomMembers(identityID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.rooms[identityID]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Authenticated reports the identity id bound to connID, if any.
func (s *Service) Authenticated(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.conns[connID]
	if !ok || conn.state != stateAuthenticated {
		return "", false
	}
	return conn.identityID, true
}

// leaveRoom must be called with s.mu held. A missing room means cleanup
// already happened and is not an error.
func (s *Service) leaveRoom(conn *connection) {
	members, ok := s.rooms[conn.identityID]
	if !ok {
		return
	}
	delete(members, conn.id)
	if len(members) == 0 {
		delete(s.rooms, conn.identityID)
	}
}
