package api

import (
	"errors"
	"net/http"

	"github.com/esmart-iot/esmart-api/internal/pkg/application/facedetection"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/gorilla/websocket"
)

const maxFrameSize int64 = 8 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func faceDetectionHandler(pipeline *facedetection.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.GetLoggerFromContext(ctx)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader has already replied with an error status
			log.Error().Err(err).Msg("failed to upgrade face detection connection")
			return
		}

		conn.SetReadLimit(maxFrameSize)

		log.Info().Msg("face detection client connected")

		err = pipeline.Serve(ctx, conn)
		if errors.Is(err, facedetection.ErrSendFailed) {
			log.Warn().Err(err).Msg("face detection stream aborted")
			return
		}

		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			log.Error().Err(err).Msg("face detection connection closed unexpectedly")
			return
		}

		log.Info().Msg("face detection client disconnected")
	}
}
