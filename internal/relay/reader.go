package relay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/omochice/socket-relay/internal/logging"
)

// ReadLoop is the reader task of one connection. It first hands the write
// half to the Actor through out, then turns every chunk read from the read
// half into a Payload event until the peer closes (nil is returned) or the
// read fails (an error wrapping ErrRead is returned). Either way a
// Disconnected event is sent last.
//
// If the Connected event cannot be delivered, ReadLoop closes both halves and
// returns ErrMailboxClosed without reading.
func ReadLoop(conn *Conn, out Sender, bufSize int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	log := logging.WithConn(logger, conn.ID, conn.Addr)
	defer conn.Reader.Close()

	if err := out.Send(Connected{ID: conn.ID, Addr: conn.Addr, Writer: conn.Writer}); err != nil {
		log.Error("connected_send_failed", "error", err.Error())
		conn.Writer.Close()
		return err
	}

	buf := make([]byte, bufSize)
	for {
		n, err := conn.Reader.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if sendErr := out.Send(Payload{Addr: conn.Addr, Data: data}); sendErr != nil {
				log.Warn("payload_send_failed", "error", sendErr.Error())
			}
		}
		if err == nil {
			continue
		}

		if sendErr := out.Send(Disconnected{ID: conn.ID, Addr: conn.Addr}); sendErr != nil {
			log.Warn("disconnected_send_failed", "error", sendErr.Error())
		}
		if errors.Is(err, io.EOF) {
			log.Debug("peer_closed")
			return nil
		}
		log.Warn("peer_read_failed", "error", err.Error())
		return fmt.Errorf("%w: %s: %w", ErrRead, conn.Addr, err)
	}
}
