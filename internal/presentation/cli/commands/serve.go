package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	wspublisher "github.com/jbctechsolutions/answerstream/internal/adapters/publisher/websocket"
	"github.com/jbctechsolutions/answerstream/internal/application/delivery"
	"github.com/jbctechsolutions/answerstream/internal/application/pipeline"
	domainErrors "github.com/jbctechsolutions/answerstream/internal/domain/errors"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/logging"
)

const (
	wsPath          = "/ws"
	healthPath      = "/healthz"
	shutdownTimeout = 10 * time.Second
)

// askRequest is one question sent by a WebSocket client.
type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
	Context  string `json:"context"`
}

// answerer is the part of the pipeline the server needs.
type answerer interface {
	Answer(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// answerServer streams answers back over the socket each question arrived on.
// Questions on one connection are answered in order.
type answerServer struct {
	pipeline     answerer
	logger       *logging.Logger
	readLimit    int64
	defaultModel string
	upgrader     websocket.Upgrader
}

func newAnswerServer(p answerer, logger *logging.Logger, readLimit int64, defaultModel string) *answerServer {
	return &answerServer{
		pipeline:     p,
		logger:       logger,
		readLimit:    readLimit,
		defaultModel: defaultModel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *answerServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(wsPath, s.handleWS)
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *answerServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}

	ctx := logging.WithConnectionID(r.Context(), uuid.NewString())
	pub := wspublisher.New(conn)

	// Unblock ReadMessage when the server shuts down.
	stop := context.AfterFunc(ctx, func() {
		_ = pub.Close()
		_ = conn.Close()
	})
	defer stop()

	s.logger.InfoContext(ctx, "client connected", "remote", r.RemoteAddr)
	defer s.logger.InfoContext(ctx, "client disconnected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WarnContext(ctx, "websocket read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := s.answer(ctx, pub, data); errors.Is(err, domainErrors.ErrDelivery) {
			return
		}
	}
}

// answer runs one request. Delivery errors mean the client is gone.
func (s *answerServer) answer(ctx context.Context, pub *wspublisher.Publisher, data []byte) error {
	var req askRequest
	if err := json.Unmarshal(data, &req); err != nil {
		payload, encErr := delivery.Encode(message.NewError(fmt.Errorf("invalid request: %w", err)))
		if encErr != nil {
			return encErr
		}
		if err := pub.Publish(ctx, payload); err != nil {
			return &domainErrors.DeliveryError{Cause: err}
		}
		return nil
	}
	if req.Model == "" {
		req.Model = s.defaultModel
	}

	_, err := s.pipeline.Answer(ctx, pipeline.Request{
		Question:  req.Question,
		Model:     req.Model,
		Context:   req.Context,
		Publisher: pub,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "request failed", "model", req.Model, "error", err)
	}
	return err
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		addr  string
		model string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve streamed answers over WebSocket",
		Long: `Start a WebSocket server. Clients connect to /ws and send questions as

  {"question": "...", "model": "GPT_4O", "context": "..."}

Each question is answered with stream envelopes followed by one end or error
envelope on the same socket. /healthz reports liveness.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, model)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	cmd.Flags().StringVarP(&model, "model", "m", DefaultAskModel, "model used when a request names none")

	return cmd
}

func runServe(addr, model string) error {
	container, err := requireContainer()
	if err != nil {
		return err
	}
	cfg := container.Config()
	logger := container.Logger()
	ctx := appContext()

	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := newAnswerServer(container.Pipeline(), logger, cfg.Server.ReadLimit, model)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("answer server listening", "addr", addr, "path", wsPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	GetFormatter().Success("Serving answers on ws://%s%s", displayAddr(addr), wsPath)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("answer server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown answer server: %w", err)
	}
	logger.Info("answer server stopped")
	return nil
}

// displayAddr fills in localhost for addresses without a host.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host != "" {
		return addr
	}
	return net.JoinHostPort("localhost", port)
}
