package realtime

import (
	"net/http"
	"strconv"
	"time"

	"communityboard/app/middleware"
	"communityboard/app/models"
	"communityboard/app/services"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ThreadSource yields the organized thread of a post for a viewer.
type ThreadSource interface {
	Thread(postID int, viewer models.Viewer) ([]*models.Comment, error)
}

// Message is what a websocket client receives on every change.
type Message struct {
	PostID   int               `json:"postId"`
	Comments []*models.Comment `json:"comments"`
}

// Handler upgrades GET /ws/posts/{postId} and streams the post's thread,
// organized for the connecting viewer, once on connect and after every
// change published to the hub.
func Handler(hub *Hub, threads ThreadSource, checkOrigin func(*http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		postID, err := strconv.Atoi(mux.Vars(r)["postId"])
		if err != nil {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}
		viewer := middleware.ViewerFrom(r.Context())

		comments, err := threads.Thread(postID, viewer)
		if err != nil {
			if services.IsNotFound(err) {
				http.Error(w, "Post not found", http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Int("post", postID).Msg("failed to load thread")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Subscribe before upgrading so no change slips in between.
		changes, cancel := hub.Subscribe(postID)
		defer cancel()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		logger.Debug().Int("post", postID).Msg("thread subscriber connected")
		stream(conn, changes, postID, viewer, threads, comments, logger)
		logger.Debug().Int("post", postID).Msg("thread subscriber left")
	}
}

func stream(conn *websocket.Conn, changes <-chan struct{}, postID int, viewer models.Viewer,
	threads ThreadSource, initial []*models.Comment, logger *zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(comments []*models.Comment) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(Message{PostID: postID, Comments: comments}); err != nil {
			logger.Debug().Err(err).Int("post", postID).Msg("websocket write failed")
			return false
		}
		return true
	}
	closeWith := func(code int, text string) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}

	if !send(initial) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case _, ok := <-changes:
			if !ok {
				closeWith(websocket.CloseGoingAway, "server shutting down")
				return
			}
			comments, err := threads.Thread(postID, viewer)
			if err != nil {
				if services.IsNotFound(err) {
					closeWith(websocket.CloseNormalClosure, "post deleted")
					return
				}
				logger.Error().Err(err).Int("post", postID).Msg("failed to reload thread")
				continue
			}
			if !send(comments) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
