package segmenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Tokenizer splits text into tokens for the server to send back.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// Server answers segmentation requests. The protocol has no request
// terminator, so a request ends at EOF (the Go client half-closes), at
// MaxRequest bytes, or after ReadIdle without new data.
type Server struct {
	Tokenizer  Tokenizer
	MaxRequest int64
	ReadIdle   time.Duration
	// FirstRead bounds how long a connection may stay silent before its first byte.
	FirstRead time.Duration
	Logger    *slog.Logger

	wg sync.WaitGroup
}

// Serve accepts connections until ctx is done, then waits for in-flight
// requests to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()

	s.logger().Info("segmenter listening", slog.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	log := s.logger().With(slog.String("remote", conn.RemoteAddr().String()))

	req, err := s.readRequest(conn)
	if err != nil {
		log.Warn("read request", slog.Any("error", err))
		return
	}
	if len(req) == 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	text := strings.ToValidUTF8(string(req), "")
	payload, err := Encode(s.Tokenizer.Tokenize(text))
	if err != nil {
		log.Error("encode tokens", slog.Any("error", err))
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	if err := writeFrame(conn, payload); err != nil {
		log.Warn("write response", slog.Any("error", err))
		return
	}
	log.Debug("segmented", slog.Int("request_bytes", len(req)), slog.Int("response_bytes", len(payload)))
}

func (s *Server) readRequest(conn net.Conn) ([]byte, error) {
	limit := s.MaxRequest
	if limit <= 0 {
		limit = 1 << 20
	}
	idle := s.ReadIdle
	if idle <= 0 {
		idle = 100 * time.Millisecond
	}
	first := s.FirstRead
	if first <= 0 {
		first = 30 * time.Second
	}

	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for int64(buf.Len()) < limit {
		wait := idle
		if buf.Len() == 0 {
			wait = first
		}
		_ = conn.SetReadDeadline(time.Now().Add(wait))

		want := int64(len(chunk))
		if rest := limit - int64(buf.Len()); rest < want {
			want = rest
		}
		n, err := conn.Read(chunk[:want])
		buf.Write(chunk[:n])
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() && buf.Len() > 0 {
				break
			}
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
