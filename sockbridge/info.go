package sockbridge

import (
	"encoding/json"
	"math/rand"
	"net/http"
)

type info struct {
	Websocket    bool     `json:"websocket"`
	CookieNeeded bool     `json:"cookie_needed"`
	Origins      []string `json:"origins"`
	Entropy      int32    `json:"entropy"`
}

func (h *Handler) infoHandler(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Content-Type", "application/json; charset=UTF-8")
	_ = json.NewEncoder(rw).Encode(info{
		Websocket:    h.options.Websocket,
		CookieNeeded: h.options.JSessionID != nil,
		Origins:      []string{"*:*"},
		Entropy:      rand.Int31(),
	})
}

func (h *Handler) infoOptions(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET")
	rw.WriteHeader(http.StatusNoContent)
}
