// Package simweb serves a browser-based strip simulator: a Transport
// implementation decodes each transmitted frame back into the colors a
// physical strip would latch and broadcasts them to websocket clients.
package simweb

// Hub fans frames out to the connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	census     chan chan int
}

// NewHub returns a hub; Run must be started on its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    map[*Client]bool{},
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		census:     make(chan chan int),
	}
}

// ClientCount reports how many peers are attached. It round-trips through
// the Run loop, so Run must already be started.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	h.census <- reply
	return <-reply
}

// Broadcast queues one message for every connected client. Frames are
// dropped rather than blocking the render loop when the hub backs up.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}

// Run owns the client set until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case reply := <-h.census:
			reply <- len(h.clients)
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}
