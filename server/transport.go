package server

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Transport moves raw JSON-RPC messages between the server and one client.
type Transport interface {
	// Send writes one encoded message.
	Send(data []byte) error
	// ReceiveWithContext blocks until a message arrives, the peer closes the
	// stream (io.EOF) or ctx is done.
	ReceiveWithContext(ctx context.Context) ([]byte, error)
	// Close releases the transport. It is safe to call more than once.
	Close() error
}

// Serve reads messages from t, handles them and writes the responses until
// the client closes the stream or ctx is cancelled. A clean end of stream
// returns nil.
func (s *Server) Serve(ctx context.Context, t Transport) error {
	defer t.Close()
	s.logger.Info("serving")

	for {
		msg, err := t.ReceiveWithContext(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("client closed the stream")
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.logger.Info("stopping", "reason", ctxErr)
				return ctxErr
			}
			return fmt.Errorf("server: receive: %w", err)
		}

		response := s.HandleMessage(ctx, msg)
		if response == nil {
			continue
		}
		if err := t.Send(response); err != nil {
			return fmt.Errorf("server: send: %w", err)
		}
	}
}
