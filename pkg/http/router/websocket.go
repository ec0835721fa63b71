package router

import (
	"net"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// handleResultFeed upgrades to a websocket that receives every evaluation result as json.
func (api *API) handleResultFeed(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	conn, _, hs, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("remote_addr", r.RemoteAddr))
		return
	}
	// the server deadlines were set for a plain request, the feed is long lived
	_ = conn.SetDeadline(time.Time{})

	api.log.Info("established websocket connection", zap.String("connection name", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	sub := api.hub.Register(conn)
	go func() {
		err := sub.Receive()
		api.log.Info("result feed subscriber disconnected", zap.Uint("subscriber", sub.GetID()), zap.Error(err))
		api.hub.Remove(sub)
	}()
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
