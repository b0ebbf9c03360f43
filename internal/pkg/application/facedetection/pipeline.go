package facedetection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/pkg/types"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const DefaultQueueSize int = 10

const InvalidImageData string = "Invalid image data"

var ErrSendFailed = fmt.Errorf("failed to send detection result")

// Conn is the part of a websocket connection used by the pipeline
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

type Detector interface {
	Detect(img image.Image) [][4]int
}

type Pipeline struct {
	detector  Detector
	queueSize int
}

func NewPipeline(detector Detector, queueSize int) *Pipeline {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Pipeline{
		detector:  detector,
		queueSize: queueSize,
	}
}

// Serve streams frames from conn through the detector until the client goes away.
// Frames that arrive while the queue is full are dropped.
func (p *Pipeline) Serve(ctx context.Context, conn Conn) error {
	log := logging.GetLoggerFromContext(ctx)

	frames := make(chan []byte, p.queueSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.detect(gctx, conn, frames)
	})

	received, dropped, readErr := p.receive(conn, frames)

	cancel()
	detectErr := g.Wait()
	conn.Close()

	log.Debug().Msgf("face detection stream closed after %d frames (%d dropped)", received, dropped)

	if detectErr != nil {
		return detectErr
	}

	return readErr
}

func (p *Pipeline) receive(conn Conn, frames chan<- []byte) (int, int, error) {
	received, dropped := 0, 0

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return received, dropped, err
		}

		received++

		if !enqueue(frames, frame) {
			dropped++
		}
	}
}

func enqueue(frames chan<- []byte, frame []byte) bool {
	select {
	case frames <- frame:
		return true
	default:
		return false
	}
}

func (p *Pipeline) detect(ctx context.Context, conn Conn, frames <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-frames:
			err := conn.WriteJSON(p.process(frame))
			if err != nil {
				// unblocks the receive loop
				conn.Close()
				return errors.Join(ErrSendFailed, err)
			}
		}
	}
}

func (p *Pipeline) process(frame []byte) any {
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return types.FrameError{Error: InvalidImageData}
	}

	faces := p.detector.Detect(img)
	if faces == nil {
		faces = [][4]int{}
	}

	return types.Faces{Faces: faces}
}
