package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client talks to the daemon's control socket.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:   conn,
		client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call invokes a Reelsmith.<method> RPC and returns the typed response.
func call[Req, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call("Reelsmith."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start asks the daemon to start its workflow loop.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartRequest, StartResponse](c, "Start", StartRequest{})
}

// Stop asks the daemon to stop its workflow loop.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopRequest, StopResponse](c, "Stop", StopRequest{})
}

// Status fetches the daemon snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// GenerateNow enqueues an on-demand generation run, optionally pinned to
// a topic.
func (c *Client) GenerateNow(topic string) (*GenerateNowResponse, error) {
	return call[GenerateNowRequest, GenerateNowResponse](c, "GenerateNow", GenerateNowRequest{Topic: topic})
}

// ScheduleStatus fetches the generation schedule and upcoming runs.
func (c *Client) ScheduleStatus() (*ScheduleStatusResponse, error) {
	return call[ScheduleStatusRequest, ScheduleStatusResponse](c, "ScheduleStatus", ScheduleStatusRequest{})
}

// LogTail reads daemon log lines.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailRequest, LogTailResponse](c, "LogTail", req)
}

// DatabaseHealth fetches detailed queue database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	return call[DatabaseHealthRequest, DatabaseHealthResponse](c, "DatabaseHealth", DatabaseHealthRequest{})
}

// TestNotification sends a test message through the daemon's notifier.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationRequest, TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}

// QueueList lists queue items, optionally filtered by status.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	return call[QueueListRequest, QueueListResponse](c, "QueueList", QueueListRequest{Statuses: statuses})
}

// QueueDescribe fetches a single queue item.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	return call[QueueDescribeRequest, QueueDescribeResponse](c, "QueueDescribe", QueueDescribeRequest{ID: id})
}

// QueueClear drops every queue item.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	return call[QueueClearRequest, QueueClearResponse](c, "QueueClear", QueueClearRequest{})
}

// QueueClearCompleted drops completed items only.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	return call[QueueClearCompletedRequest, QueueClearCompletedResponse](c, "QueueClearCompleted", QueueClearCompletedRequest{})
}

// QueueClearFailed drops failed items only.
func (c *Client) QueueClearFailed() (*QueueClearFailedResponse, error) {
	return call[QueueClearFailedRequest, QueueClearFailedResponse](c, "QueueClearFailed", QueueClearFailedRequest{})
}

// QueueReset moves stuck in-flight items back to pending.
func (c *Client) QueueReset() (*QueueResetResponse, error) {
	return call[QueueResetRequest, QueueResetResponse](c, "QueueReset", QueueResetRequest{})
}

// QueueRetry requeues failed items; an empty id list retries all of them.
func (c *Client) QueueRetry(ids []int64) (*QueueRetryResponse, error) {
	return call[QueueRetryRequest, QueueRetryResponse](c, "QueueRetry", QueueRetryRequest{IDs: ids})
}

// QueueRemove deletes specific queue items by id.
func (c *Client) QueueRemove(ids []int64) (*QueueRemoveResponse, error) {
	return call[QueueRemoveRequest, QueueRemoveResponse](c, "QueueRemove", QueueRemoveRequest{IDs: ids})
}

// QueueHealth fetches aggregate queue counts.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	return call[QueueHealthRequest, QueueHealthResponse](c, "QueueHealth", QueueHealthRequest{})
}
