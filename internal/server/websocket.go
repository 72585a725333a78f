package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"nhooyr.io/websocket"

	"kadi/internal/card"
	"kadi/internal/match"
	"kadi/internal/room"
	"kadi/internal/rules"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
}

type joinedPayload struct {
	Code string `json:"code"`
}

// movePayload carries a drop or a draw in both directions. Cards is
// populated for drops in full (drops are public) and, going to the
// drawer only, for accepted draws. The opponent of a drawer sees Count
// alone, never card identities.
type movePayload struct {
	Type  string      `json:"type"` // "drop" | "draw"
	Cards []card.Card `json:"cards,omitempty"`
	Count int         `json:"count,omitempty"`
}

type startPayload struct {
	View        match.View `json:"view"`
	YouAreFirst bool       `json:"youAreFirst"`
}

type moveResultPayload struct {
	Move movePayload `json:"move"`
	View match.View  `json:"view"`
}

type gameOverPayload struct {
	Winner string     `json:"winner"`
	View   match.View `json:"view"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errCode maps the error taxonomy to stable wire codes.
func errCode(err error) string {
	switch {
	case errors.Is(err, rules.ErrIllegalMove):
		return "illegal-move"
	case errors.Is(err, match.ErrNotYourTurn):
		return "not-your-turn"
	case errors.Is(err, match.ErrDeckExhausted):
		return "deck-exhausted"
	case errors.Is(err, match.ErrFinished):
		return "game-finished"
	case errors.Is(err, match.ErrNotFinished):
		return "not-finished"
	case errors.Is(err, room.ErrRoomNotFound):
		return "room-not-found"
	case errors.Is(err, room.ErrRoomFull):
		return "room-full"
	case errors.Is(err, room.ErrNotStarted):
		return "not-started"
	case errors.Is(err, room.ErrPeerDisconnected):
		return "peer-disconnected"
	}
	return "bad-request"
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	rm, ok := s.broker.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "bad-request", "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" {
		sendWSError(ctx, conn, "bad-request", "invalid join payload")
		return
	}

	playerID := join.PlayerID
	_, started, err := s.broker.Join(code, playerID)
	if err != nil {
		sendWSError(ctx, conn, errCode(err), err.Error())
		return
	}

	send := make(chan []byte, 64)
	rm.Connect(playerID, send)

	// Writer goroutine: send messages from the channel to the
	// websocket. It exits with the connection context; the channel is
	// never closed, so late broadcasts racing a disconnect are dropped
	// rather than panicking.
	go func() {
		for {
			select {
			case msg := <-send:
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	sendWSMsg(send, "room-joined", joinedPayload{Code: code})
	if started {
		// This join completed the pair: deal projections to both.
		s.sendGameStart(rm)
	} else if rm.Started() {
		// The pair completed before this connection existed (the host
		// joins at creation, over REST). Replay this seat's projection
		// so the deal is never lost to the pre-connect channel.
		if view, err := rm.Snapshot(playerID); err == nil {
			sendWSMsg(send, "game-start", startPayload{
				View:        view,
				YouAreFirst: view.TurnOwner == playerID,
			})
		}
	}

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(send, "error", errorPayload{Code: "bad-request", Message: "invalid message"})
			continue
		}
		s.handleMessage(rm, playerID, send, msg)
	}

	// A dropped peer terminates the session: no resume.
	log.Printf("player %s disconnected from room %s", playerID, code)
	if peer := rm.Leave(playerID); peer != nil {
		sendWSMsg(peer.Send, "opponent-left", struct{}{})
	}
	s.broker.Remove(code)
}

func (s *Server) handleMessage(rm *room.Room, playerID string, send chan []byte, msg WSMessage) {
	switch msg.Type {
	case "move":
		var mp movePayload
		if err := json.Unmarshal(msg.Payload, &mp); err != nil {
			sendWSMsg(send, "error", errorPayload{Code: "bad-request", Message: "invalid move payload"})
			return
		}
		switch mp.Type {
		case "drop":
			s.handleDrop(rm, playerID, send, mp.Cards)
		case "draw":
			s.handleDraw(rm, playerID, send, mp.Count)
		default:
			sendWSMsg(send, "error", errorPayload{Code: "bad-request", Message: "unknown move type: " + mp.Type})
		}

	case "rematch":
		if err := rm.Rematch(); err != nil {
			sendWSMsg(send, "error", errorPayload{Code: errCode(err), Message: err.Error()})
			return
		}
		s.sendGameStart(rm)

	default:
		sendWSMsg(send, "error", errorPayload{Code: "bad-request", Message: "unknown message type: " + msg.Type})
	}
}

func (s *Server) handleDrop(rm *room.Room, playerID string, send chan []byte, cards []card.Card) {
	finished, err := rm.Drop(playerID, cards)
	if err != nil {
		sendWSMsg(send, "error", errorPayload{Code: errCode(err), Message: err.Error()})
		return
	}
	move := movePayload{Type: "drop", Cards: cards}
	s.sendToEach(rm, func(pid string, view match.View) (string, any) {
		if pid == playerID {
			return "move-result", moveResultPayload{Move: move, View: view}
		}
		return "opponent-move", moveResultPayload{Move: move, View: view}
	})
	if finished {
		s.broker.RecordResult(rm)
		s.sendToEach(rm, func(pid string, view match.View) (string, any) {
			return "game-over", gameOverPayload{Winner: view.Winner, View: view}
		})
	}
}

func (s *Server) handleDraw(rm *room.Room, playerID string, send chan []byte, claimed int) {
	drawn, err := rm.Draw(playerID, claimed)
	if err != nil {
		sendWSMsg(send, "error", errorPayload{Code: errCode(err), Message: err.Error()})
		return
	}
	s.sendToEach(rm, func(pid string, view match.View) (string, any) {
		if pid == playerID {
			// Real card identities go to the drawer alone.
			return "move-result", moveResultPayload{
				Move: movePayload{Type: "draw", Cards: drawn, Count: len(drawn)},
				View: view,
			}
		}
		return "opponent-move", moveResultPayload{
			Move: movePayload{Type: "draw", Count: len(drawn)},
			View: view,
		}
	})
}

// sendGameStart delivers per-participant deal projections.
func (s *Server) sendGameStart(rm *room.Room) {
	s.sendToEach(rm, func(pid string, view match.View) (string, any) {
		return "game-start", startPayload{
			View:        view,
			YouAreFirst: view.TurnOwner == pid,
		}
	})
}

// sendToEach builds one message per participant from that
// participant's own hidden-information projection.
func (s *Server) sendToEach(rm *room.Room, build func(pid string, view match.View) (string, any)) {
	for _, pid := range rm.ParticipantIDs() {
		p := rm.Participant(pid)
		if p == nil {
			continue
		}
		view, err := rm.Snapshot(pid)
		if err != nil {
			continue
		}
		msgType, payload := build(pid, view)
		sendWSMsg(p.Send, msgType, payload)
	}
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	select {
	case send <- msg:
	default:
		// drop message if buffer full
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, code, message string) {
	p, _ := json.Marshal(errorPayload{Code: code, Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
