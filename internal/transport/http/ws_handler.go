package http

import (
	"log"
	"net/http"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams submission events for a quiz over a websocket so admin
// dashboards can watch results arrive without polling.
type WSHandler struct {
	feed     *app.ResultsFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.ResultsFeed) *WSHandler {
	return &WSHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	QuizID string `json:"quizId"`
}

// ServeWS upgrades HTTP requests to websockets and relays the live results
// feed for one quiz until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe(quizID)
	defer cancel()

	// Reader goroutine only watches for the client closing the socket.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{QuizID: quizID}}); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.SubmissionEvent]{Type: "submission", Payload: ev}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-clientGone:
			return
		}
	}
}
