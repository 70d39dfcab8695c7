package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/wordbattle/internal/api/apierr"
	"github.com/mcoot/wordbattle/internal/api/response"
	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/services/lobby"
)

const qrSize = 320

// RoomsHandler serves room invite codes
type RoomsHandler struct {
	lobby     *lobby.Controller
	publicURL string
	logger    *slog.Logger
}

// NewRoomsHandler creates a new rooms handler
func NewRoomsHandler(controller *lobby.Controller, publicURL string, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{
		lobby:     controller,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// InviteURL returns the link players follow to join a room
func (h *RoomsHandler) InviteURL(roomID model.RoomID) string {
	return h.publicURL + "/?room=" + url.QueryEscape(string(roomID))
}

// QR handles GET /api/v1/rooms/{roomId}/qr
func (h *RoomsHandler) QR(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomId"])

	if _, ok := h.lobby.Room(roomID); !ok {
		WriteError(w, model.ErrRoomNotFound)
		return
	}

	png, err := qrcode.Encode(h.InviteURL(roomID), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("failed to encode invite QR",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		WriteError(w, apierr.NewInternalError())
		return
	}

	response.PNG(w, png)
}
