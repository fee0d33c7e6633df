package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aayush-1o/truck/internal/models"
)

const (
	readLimit          = 1 << 20
	readDeadline       = 120 * time.Second
	writeDeadline      = 5 * time.Second
	pingInterval       = 15 * time.Second
	firstHelloDeadline = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Client struct {
	ID     int64
	Socket *websocket.Conn
}

type unreg struct {
	userID int64
	conn   *websocket.Conn
}

// LocationManager relays live driver positions to connected clients. All
// access to clients happens inside Run.
type LocationManager struct {
	clients    map[int64]*websocket.Conn
	register   chan Client
	unregister chan unreg
	broadcast  chan models.Location
}

func NewLocationManager() *LocationManager {
	return &LocationManager{
		clients:    make(map[int64]*websocket.Conn),
		register:   make(chan Client),
		unregister: make(chan unreg),
		broadcast:  make(chan models.Location),
	}
}

func (lm *LocationManager) Run() {
	for {
		select {
		case client := <-lm.register:
			if old, ok := lm.clients[client.ID]; ok && old != nil && old != client.Socket {
				_ = old.Close()
			}
			lm.clients[client.ID] = client.Socket
		case u := <-lm.unregister:
			if cur, ok := lm.clients[u.userID]; ok && cur == u.conn {
				_ = cur.Close()
				delete(lm.clients, u.userID)
			}
		case loc := <-lm.broadcast:
			for id, conn := range lm.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(loc); err != nil {
					_ = conn.Close()
					delete(lm.clients, id)
				}
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeDeadline))
}

// LocationWebSocketHandler handles GET /ws/location. The first frame must
// be a hello {userId}; every following frame is a position update.
func (app *application) LocationWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Location WS upgrade error:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(firstHelloDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	var hello struct {
		UserID int64 `json:"userId"`
	}
	if err := conn.ReadJSON(&hello); err != nil || hello.UserID == 0 {
		log.Println("invalid hello payload for location:", err)
		_ = writeClose(conn, websocket.ClosePolicyViolation, "hello required")
		_ = conn.Close()
		return
	}
	conn.SetReadDeadline(time.Now().Add(readDeadline))

	app.locationManager.register <- Client{ID: hello.UserID, Socket: conn}

	go app.pingLoop(conn, hello.UserID)
	go app.handleLocationMessages(conn, hello.UserID)
}

func (app *application) pingLoop(conn *websocket.Conn, userID int64) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for range t.C {
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			_ = writeClose(conn, websocket.CloseGoingAway, "ping error")
			app.locationManager.unregister <- unreg{userID: userID, conn: conn}
			return
		}
	}
}

func (app *application) handleLocationMessages(conn *websocket.Conn, userID int64) {
	defer func() {
		app.locationManager.unregister <- unreg{userID: userID, conn: conn}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = app.driverLocator.Clear(ctx, userID)
		cancel()
		_ = conn.Close()
	}()

	for {
		var msg struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			log.Println("location read error:", err)
			_ = writeClose(conn, websocket.CloseNormalClosure, "read error")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := app.driverLocator.Update(ctx, userID, msg.Latitude, msg.Longitude)
		cancel()
		if err != nil {
			log.Println("update location error:", err)
			continue
		}

		app.locationManager.broadcast <- models.Location{UserID: userID, Latitude: msg.Latitude, Longitude: msg.Longitude}
	}
}
