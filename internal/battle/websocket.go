package battle

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewWebsocketHandler attaches a client to a running match:
// /ws?match=<id>&userID=<user>&codec=json|msgpack
func NewWebsocketHandler(mg *Manager, sendBuffer int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, hub, err := mg.Get(r.URL.Query().Get("match"))
		if err != nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println(err)
			return
		}

		player := &Player{
			ID:     "p_" + uuid.NewString(),
			UserID: readUserID(r),
			Codec:  CodecByName(r.URL.Query().Get("codec")),
			Conn:   conn,
			Send:   make(chan []byte, sendBuffer),
		}

		if !hub.Join(player) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "match over"))
			conn.Close()
			return
		}
		go writePump(player)
		go readPump(player, m, hub)
	}
}

// readUserID prefers the user_id cookie, then the query string; anonymous clients are guests.
func readUserID(r *http.Request) string {
	if c, err := r.Cookie("user_id"); err == nil && c.Value != "" {
		return c.Value
	}
	if q := r.URL.Query().Get("userID"); q != "" {
		return q
	}
	return "guest"
}

func readPump(p *Player, m *Match, hub *Hub) {
	defer func() {
		hub.Leave(p)
		p.Conn.Close()
	}()

	for {
		_, message, err := p.Conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Printf("[HUB %s] read from %s: %v", hub.MatchID, p.ID, err)
			}
			return
		}

		var cmd command
		if err := p.Codec.Unmarshal(message, &cmd); err != nil {
			continue
		}
		cmd.dispatch(m, p.Side)
	}
}

func writePump(p *Player) {
	defer p.Conn.Close()
	for message := range p.Send {
		if err := p.Conn.WriteMessage(p.Codec.MessageType(), message); err != nil {
			return
		}
	}
	p.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
