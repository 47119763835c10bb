package rest

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// qr renders a PNG QR code pointing at the room so a second player can scan
// it from a phone.
func (that *handlers) qr(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := that.match.Poll(r.Context(), ps.ByName("code"), "")
	if err != nil {
		that.fail(w, r, err)
		return
	}

	png, err := qrcode.Encode(that.roomURL(r, view.RoomCode), qrcode.Medium, qrSize)
	if err != nil {
		that.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (that *handlers) roomURL(r *http.Request, roomCode string) string {
	if that.baseURL != "" {
		return strings.TrimSuffix(that.baseURL, "/") + "/rooms/" + roomCode
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + "/rooms/" + roomCode
}
