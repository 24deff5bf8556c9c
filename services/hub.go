package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"cricketauction/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans every auction event out to all connected participants and is
// the only place socket input enters the auction service. Commands are a
// closed set of typed messages, validated and role-gated here before any
// state is touched.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	auction    *AuctionService
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	identity Identity
}

// Message is the wire envelope in both directions. Inbound payloads stay
// raw until the command type says how to decode them.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type startAuctionPayload struct {
	PlayerID uint `json:"player_id"`
}

type placeBidPayload struct {
	Amount int `json:"amount"`
}

type endAuctionPayload struct {
	Sold bool   `json:"sold"`
	Team string `json:"team,omitempty"`
}

type chatPayload struct {
	Text string `json:"text"`
}

func NewHub(auction *AuctionService) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		auction:    auction,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client registered: %s (%s, %s) - Total clients: %d",
				client.id, client.identity.Username, client.identity.Role, total)

			// Catch-up: a newly joined participant gets the full snapshot
			client.sendMessage("auction-state", h.auction.Snapshot())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s (%s) - Total clients: %d",
					client.id, client.identity.Username, len(h.clients))
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastEvent sends the same payload to every connected socket
// regardless of role; what each role displays is a client concern.
func (h *Hub) BroadcastEvent(event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", event, err)
		return
	}

	h.mutex.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Slow client: drop the message. Only the unregister path
			// closes send, after the client's reader has exited, so
			// per-sender writes can never hit a closed channel.
		}
	}
	h.mutex.RUnlock()
}

func (h *Hub) ConnectedUsers() []Identity {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var users []Identity
	for client := range h.clients {
		users = append(users, client.identity)
	}
	return users
}

func (h *Hub) RegisterClient(conn *websocket.Conn, identity Identity) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, 256),
		identity: identity,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Error unmarshaling message from %s: %v", c.identity.Username, err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}

		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

// sendMessage delivers to this client only, used for snapshots and
// per-sender errors.
func (c *Client) sendMessage(event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", event, err)
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		c.sendMessage("pong", "pong")

	case "request-state":
		c.sendMessage("auction-state", c.hub.auction.Snapshot())

	case "bidder-registered", "purse-updated":
		if err := c.hub.auction.Refresh(); err != nil {
			log.Printf("Error refreshing auction state: %v", err)
		}

	case "activate-event":
		if !c.requireAdmin() {
			return
		}
		if err := c.hub.auction.ActivateEvent(); err != nil {
			c.sendMessage("auction-error", err.Error())
		}

	case "start-auction":
		if !c.requireAdmin() {
			return
		}
		var payload startAuctionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.PlayerID == 0 {
			c.sendMessage("auction-error", "start-auction requires a player_id")
			return
		}
		if err := c.hub.auction.StartAuction(payload.PlayerID); err != nil {
			c.sendMessage("auction-error", err.Error())
		}

	case "start-next-player":
		if !c.requireAdmin() {
			return
		}
		if err := c.hub.auction.StartNextPlayer(); err != nil {
			c.sendMessage("auction-error", err.Error())
		}

	case "end-auction":
		if !c.requireAdmin() {
			return
		}
		var payload endAuctionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendMessage("auction-error", "invalid end-auction payload")
			return
		}
		if err := c.hub.auction.EndAuction(payload.Sold, payload.Team); err != nil {
			c.sendMessage("auction-error", err.Error())
		}

	case "place-bid":
		if c.identity.Role != models.RoleBidder && c.identity.Role != models.RoleAdmin {
			c.sendMessage("bid-error", "only bidders may place bids")
			return
		}
		var payload placeBidPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Amount <= 0 {
			c.sendMessage("bid-error", "bid amount must be a positive integer")
			return
		}
		if err := c.hub.auction.PlaceBid(c.identity, payload.Amount); err != nil {
			c.sendMessage("bid-error", err.Error())
		}

	case "send-message":
		var payload chatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Text == "" {
			return
		}
		c.hub.BroadcastEvent("new-message", map[string]interface{}{
			"user":      c.identity.Username,
			"role":      c.identity.Role,
			"message":   payload.Text,
			"timestamp": time.Now(),
		})

	default:
		log.Printf("Unknown message type %q from %s", msg.Type, c.identity.Username)
	}
}

// requireAdmin rejects admin-only commands from other roles. The command
// is dropped with an error to the sender and never reaches shared state.
func (c *Client) requireAdmin() bool {
	if c.identity.Role != models.RoleAdmin {
		c.sendMessage("auction-error", "admin privileges required")
		return false
	}
	return true
}
