package ipc

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"log/slog"

	"reelsmith/internal/api"
	"reelsmith/internal/daemon"
	"reelsmith/internal/deps"
	"reelsmith/internal/logging"
	"reelsmith/internal/logs"
	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
)

// Server answers daemon control calls as JSON-RPC over a Unix socket.
type Server struct {
	socketPath string
	logger     *slog.Logger
	ln         net.Listener
	rpcServer  *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// bindSocket removes any stale socket file left by a previous run and
// listens on a fresh one.
func bindSocket(path string) (net.Listener, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	return ln, nil
}

// NewServer binds the control socket at path and registers the RPC service.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ln, err := bindSocket(path)
	if err != nil {
		return nil, err
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Reelsmith", &service{core: d, logger: logger, ctx: ctx}); err != nil {
		ln.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		socketPath: path,
		logger:     logger,
		ln:         ln,
		rpcServer:  rpcServer,
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Serve accepts connections in the background until Close or context
// cancellation.
func (s *Server) Serve() {
	s.logger.Debug("control socket listening", logging.String("socket", s.socketPath))
	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("accept failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "ipc_accept_failed"),
				logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
				logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
			continue
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
		}(conn)
	}
}

// Close shuts the listener down, waits for in-flight calls, and removes
// the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.socketPath); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.socketPath),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun reelsmith stop"))
	}
}

// service holds the RPC method set. Every exported method with the
// (request, *response) shape becomes a Reelsmith.<Name> call.
type service struct {
	core   *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

// itemDTO converts a queue row into the wire representation.
func itemDTO(item *queue.Item) *QueueItem {
	if item == nil {
		return nil
	}
	dto := api.FromQueueItem(item)
	qi := QueueItem(dto)
	return &qi
}

func convertScheduleStatus(status daemon.ScheduleStatus) ScheduleStatus {
	return ScheduleStatus{
		Enabled:  status.Enabled,
		Timezone: status.Timezone,
		Times:    append([]string(nil), status.Times...),
		NextRuns: append([]string(nil), status.NextRuns...),
	}
}

// stageHealthDTOs flattens the per-stage health map into a sorted slice.
func stageHealthDTOs(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(health))
	for _, name := range slices.Sorted(maps.Keys(health)) {
		out = append(out, StageHealth{
			Name:   name,
			Ready:  health[name].Ready,
			Detail: health[name].Detail,
		})
	}
	return out
}

func dependencyDTOs(checks []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(checks))
	for _, check := range checks {
		out = append(out, DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Detail:      check.Detail,
		})
	}
	return out
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.core.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("workflow started over control socket",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.core.Stop()
	resp.Stopped = true
	s.log().Info("workflow stopped over control socket",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.core.Status(s.ctx)
	resp.Running = status.Running
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.LastError = status.Workflow.LastError
	resp.LastItem = itemDTO(status.Workflow.LastItem)

	resp.QueueStats = make(map[string]int, len(status.Workflow.QueueStats))
	for k, v := range status.Workflow.QueueStats {
		resp.QueueStats[string(k)] = v
	}

	resp.StageHealth = stageHealthDTOs(status.Workflow.StageHealth)
	resp.Dependencies = dependencyDTOs(status.Dependencies)
	resp.Schedule = convertScheduleStatus(status.Schedule)
	return nil
}

func (s *service) GenerateNow(req GenerateNowRequest, resp *GenerateNowResponse) error {
	topic := strings.TrimSpace(req.Topic)
	s.log().Debug("manual generation requested", logging.String(logging.FieldTopic, topic))
	item, err := s.core.GenerateNow(s.ctx, topic)
	if err != nil {
		return err
	}
	if item == nil {
		resp.Enqueued = false
		resp.Message = "previous run still active"
		return nil
	}
	resp.Enqueued = true
	resp.Message = fmt.Sprintf("queued generation run #%d", item.ID)
	resp.Item = itemDTO(item)
	s.log().Info("generation run queued via IPC",
		logging.String(logging.FieldEventType, "generate_now"),
		logging.Int64(logging.FieldItemID, item.ID))
	return nil
}

func (s *service) ScheduleStatus(_ ScheduleStatusRequest, resp *ScheduleStatusResponse) error {
	resp.Schedule = convertScheduleStatus(s.core.ScheduleStatus())
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		if parsed, ok := queue.ParseStatus(raw); ok {
			statuses = append(statuses, parsed)
		}
	}
	items, err := s.core.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = make([]QueueItem, 0, len(items))
	for _, item := range items {
		if qi := itemDTO(item); qi != nil {
			resp.Items = append(resp.Items, *qi)
		}
	}
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid queue item id %d", req.ID)
	}
	item, err := s.core.GetQueueItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	qi := itemDTO(item)
	if qi == nil {
		return fmt.Errorf("queue item %d not found", req.ID)
	}
	resp.Item = *qi
	return nil
}

// logQueueMutation records a destructive queue operation and how many rows
// it touched.
func (s *service) logQueueMutation(event, msg string, affected int64) {
	s.log().Info(msg,
		logging.String(logging.FieldEventType, event),
		logging.Int64("affected", affected))
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	removed, err := s.core.ClearQueue(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logQueueMutation("queue_clear", "queue cleared", removed)
	return nil
}

func (s *service) QueueClearCompleted(_ QueueClearCompletedRequest, resp *QueueClearCompletedResponse) error {
	removed, err := s.core.ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logQueueMutation("queue_clear_completed", "queue completed items cleared", removed)
	return nil
}

func (s *service) QueueClearFailed(_ QueueClearFailedRequest, resp *QueueClearFailedResponse) error {
	removed, err := s.core.ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logQueueMutation("queue_clear_failed", "queue failed items cleared", removed)
	return nil
}

func (s *service) QueueReset(_ QueueResetRequest, resp *QueueResetResponse) error {
	updated, err := s.core.ResetStuck(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logQueueMutation("queue_reset_stuck", "queue stuck items reset", updated)
	return nil
}

func (s *service) QueueRetry(req QueueRetryRequest, resp *QueueRetryResponse) error {
	updated, err := s.core.RetryFailed(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logQueueMutation("queue_retry", "queue items retried", updated)
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("queue remove requires at least one id")
	}
	var removed int64
	for _, id := range req.IDs {
		ok, err := s.core.RemoveQueueItem(s.ctx, id)
		if err != nil {
			return err
		}
		if ok {
			removed++
		}
	}
	resp.Removed = removed
	s.logQueueMutation("queue_remove", "queue items removed", removed)
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.core.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.core.QueueHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = health.Total
	resp.Pending = health.Pending
	resp.Processing = health.Processing
	resp.Failed = health.Failed
	resp.Completed = health.Completed
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.core.DatabaseHealth(s.ctx)
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.SchemaVersion = health.SchemaVersion
	resp.TableExists = health.TableExists
	resp.ColumnsPresent = append(resp.ColumnsPresent, health.ColumnsPresent...)
	resp.MissingColumns = append(resp.MissingColumns, health.MissingColumns...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalItems = health.TotalItems
	resp.Error = health.Error
	return err
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.core.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
