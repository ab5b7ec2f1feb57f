package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
	"github.com/bretbouchard/sandbox/internal/infrastructure/tracing"
	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/shared/id"
	"github.com/bretbouchard/sandbox/internal/shared/paths"
	"github.com/bretbouchard/sandbox/internal/types"
	"github.com/bretbouchard/sandbox/internal/utils"
)

const writeTimeout = 10 * time.Second

// Handler serves the sync channel over websocket
type Handler struct {
	store     *Store
	validator *utils.FrameValidator
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	logger    *logging.Logger
	upgrader  websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]map[*conn]struct{} // by sandbox id
}

// conn is one connected editor session
type conn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	userID    string
	sandboxID string
	clientID  id.ClientID
	logger    *logging.Logger
	trace     context.Context // carries the connection's trace id
}

// NewHandler creates a new websocket handler. A nil tracer disables
// message spans.
func NewHandler(store *Store, maxFrameBytes int, metrics *monitoring.Metrics, tracer *tracing.Tracer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		store:     store,
		validator: utils.NewFrameValidator(maxFrameBytes),
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origins are enforced by the CORS middleware
			},
		},
		conns: make(map[string]map[*conn]struct{}),
	}
}

// HandleConnection upgrades the request, pushes the sandbox tree and
// serves frames until the client goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	userID := c.Query("userId")
	sandboxID := c.Query("sandboxId")
	for _, check := range []error{
		paths.ValidateSegment("userId", userID),
		paths.ValidateSegment("sandboxId", sandboxID),
	} {
		if check != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": check.Error()})
			return
		}
	}

	clientID := id.NewClientID()
	if raw := c.Query("clientId"); raw != "" {
		parsed, err := id.ParseClientID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		clientID = parsed
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(int64(h.validator.MaxSize()))

	cn := &conn{
		ws:        ws,
		userID:    userID,
		sandboxID: sandboxID,
		clientID:  clientID,
		trace:     tracing.Ensure(tracing.Extract(context.Background(), c.Request.Header)),
	}
	cn.logger = h.logger.Sandbox(userID, sandboxID).With(
		zap.Stringer("client_id", cn.clientID),
		zap.String("trace_id", tracing.TraceID(cn.trace)),
	)

	h.register(cn)
	defer h.unregister(cn)
	cn.logger.Info("Client connected")

	h.push(cn, types.EventLoaded, h.store.Tree(sandboxID))

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cn.logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		h.handleMessage(cn, data)
	}
	cn.logger.Info("Client disconnected")
}

func (h *Handler) handleMessage(cn *conn, data []byte) {
	if err := h.validator.ValidateFrame(data); err != nil {
		cn.logger.Warn("Dropping invalid frame", zap.Error(err))
		return
	}
	f, err := types.Decode(data)
	if err != nil {
		cn.logger.Warn("Dropping undecodable frame", zap.Error(err))
		return
	}
	if f.Type != types.FrameEmit {
		cn.logger.Debug("Ignoring frame", zap.String("type", string(f.Type)))
		return
	}
	h.metrics.RecordWSMessage("in", f.Event)

	span, _ := h.tracer.Start(cn.trace, "ws "+f.Event)
	span.Tag("sandbox_id", cn.sandboxID)
	span.Tag("client_id", cn.clientID.String())
	if f.ID != "" {
		span.Tag("request_id", f.ID)
	}
	result, err := h.dispatch(cn, f)
	if err != nil {
		span.Fail(err)
		cn.logger.Warn("Request failed", zap.String("event", f.Event), zap.Error(err))
	}
	h.tracer.Finish(span)
	if f.ID == "" {
		return
	}

	var reply *types.Frame
	if err != nil {
		reply = &types.Frame{Type: types.FrameError, ID: f.ID, Event: f.Event, Error: err.Error()}
	} else if reply, err = types.NewFrame(types.FrameAck, f.ID, f.Event, result...); err != nil {
		reply = &types.Frame{Type: types.FrameError, ID: f.ID, Event: f.Event, Error: err.Error()}
	}
	h.write(cn, reply)
}

// dispatch runs one message and returns the ack args
func (h *Handler) dispatch(cn *conn, f *types.Frame) ([]any, error) {
	sandboxID := cn.sandboxID

	switch f.Event {
	case types.EventGetFile:
		id, err := types.Arg[string](f.Args, 0)
		if err != nil {
			return nil, err
		}
		content, err := h.store.Get(sandboxID, id)
		if err != nil {
			return nil, err
		}
		return []any{content}, nil

	case types.EventSaveFile:
		id, err := types.Arg[string](f.Args, 0)
		if err != nil {
			return nil, err
		}
		content, err := types.Arg[string](f.Args, 1)
		if err != nil {
			return nil, err
		}
		return nil, h.store.Save(sandboxID, id, content)

	case types.EventRenameFile:
		id, err := types.Arg[string](f.Args, 0)
		if err != nil {
			return nil, err
		}
		name, err := types.Arg[string](f.Args, 1)
		if err != nil {
			return nil, err
		}
		if err := h.store.Rename(sandboxID, id, name); err != nil {
			return nil, err
		}
		h.broadcast(cn)
		return nil, nil

	case types.EventDeleteFile:
		id, err := types.Arg[string](f.Args, 0)
		if err != nil {
			return nil, err
		}
		tree, err := h.store.Delete(sandboxID, id)
		if err != nil {
			return nil, err
		}
		h.broadcast(cn)
		if tree == nil {
			tree = []types.Node{}
		}
		return []any{tree}, nil

	case types.EventCreateFile:
		name, err := types.Arg[string](f.Args, 0)
		if err != nil {
			return nil, err
		}
		if _, err := h.store.Create(sandboxID, name); err != nil {
			return nil, err
		}
		h.broadcast(cn)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown event %q", f.Event)
	}
}

// broadcast pushes the sandbox tree to every other client of the sandbox
func (h *Handler) broadcast(origin *conn) {
	tree := h.store.Tree(origin.sandboxID)

	h.mu.RLock()
	peers := make([]*conn, 0, len(h.conns[origin.sandboxID]))
	for cn := range h.conns[origin.sandboxID] {
		if cn != origin {
			peers = append(peers, cn)
		}
	}
	h.mu.RUnlock()

	for _, cn := range peers {
		h.push(cn, types.EventLoaded, tree)
	}
}

func (h *Handler) push(cn *conn, event string, args ...any) {
	f, err := types.NewFrame(types.FrameEvent, "", event, args...)
	if err != nil {
		cn.logger.Error("Failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.write(cn, f)
}

func (h *Handler) write(cn *conn, f *types.Frame) {
	data, err := types.Encode(f)
	if err == nil {
		err = h.validator.ValidateSize(data)
	}
	if err != nil {
		cn.logger.Error("Failed to encode frame", zap.String("event", f.Event), zap.Error(err))
		return
	}

	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	_ = cn.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := cn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			cn.logger.Warn("Failed to write frame", zap.Error(err))
		}
		return
	}
	h.metrics.RecordWSMessage("out", f.Event)
}

func (h *Handler) register(cn *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[cn.sandboxID] == nil {
		h.conns[cn.sandboxID] = make(map[*conn]struct{})
	}
	h.conns[cn.sandboxID][cn] = struct{}{}
	h.metrics.IncWSConnections()
}

func (h *Handler) unregister(cn *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[cn.sandboxID], cn)
	if len(h.conns[cn.sandboxID]) == 0 {
		delete(h.conns, cn.sandboxID)
	}
	h.metrics.DecWSConnections()
}

// Connections returns the number of connected clients
func (h *Handler) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.conns {
		n += len(conns)
	}
	return n
}
