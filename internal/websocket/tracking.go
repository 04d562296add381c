// Package websocket binds a study-session tracker to the lifetime of a
// client connection. Opening /ws/track activates tracking for the requested
// chapter; the session ends when the socket closes, however that happens.
package websocket

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"studypath-backend/internal/middleware"
	"studypath-backend/internal/tracker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type TrackingServer struct {
	jwt     *middleware.JWTAuth
	manager *tracker.Manager
}

func NewTrackingServer(jwt *middleware.JWTAuth, manager *tracker.Manager) *TrackingServer {
	return &TrackingServer{jwt: jwt, manager: manager}
}

// Handle authenticates via a token query param (browsers cannot set headers
// on websocket requests), upgrades, and activates a tracker for the
// course/chapter named in the query string. The read loop exists only to
// detect disconnect; incoming frames are discarded.
func (s *TrackingServer) Handle(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := s.jwt.ParseUserID(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	courseID := r.URL.Query().Get("course_id")
	if courseID == "" {
		http.Error(w, "course_id is required", http.StatusBadRequest)
		return
	}
	chapterNum, _ := strconv.Atoi(r.URL.Query().Get("chapter"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	t := s.manager.Activate(r.Context(), userID.String(), courseID, chapterNum)
	log.Printf("websocket: tracking connected: user %s course %s", userID, courseID)

	go func() {
		defer func() {
			conn.Close()
			if t != nil {
				t.Stop()
			}
			log.Printf("websocket: tracking disconnected: user %s course %s", userID, courseID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
