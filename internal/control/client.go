package control

import (
	"context"
	"errors"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Status is the decoded GetStatus response.
type Status struct {
	Instance     string        `json:"instance"`
	Uptime       time.Duration `json:"uptime"`
	OnlineCount  int           `json:"online_count"`
	UserCount    int           `json:"user_count"`
	MessageCount int           `json:"message_count"`
}

// PresenceEvent is one WatchPresence item.
type PresenceEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id,omitempty"`
	Reason     string    `json:"reason"`
	Online     []string  `json:"online"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Client talks to a daemon's control socket.
type Client struct {
	conn *grpc.ClientConn
}

func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient("unix://"+socketPath, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) Status(ctx context.Context) (*Status, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodGetStatus, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	f := out.GetFields()
	return &Status{
		Instance:     f["instance"].GetStringValue(),
		Uptime:       time.Duration(f["uptime_ms"].GetNumberValue()) * time.Millisecond,
		OnlineCount:  int(f["online_count"].GetNumberValue()),
		UserCount:    int(f["user_count"].GetNumberValue()),
		MessageCount: int(f["message_count"].GetNumberValue()),
	}, nil
}

func (c *Client) Online(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, methodListOnline, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return fromList(out), nil
}

// Kick closes userID's realtime connection.
func (c *Client) Kick(ctx context.Context, userID string) error {
	return c.conn.Invoke(ctx, methodDisconnect, wrapperspb.String(userID), new(emptypb.Empty))
}

// Watch calls fn for each presence event until ctx ends or the stream fails.
func (c *Client) Watch(ctx context.Context, fn func(PresenceEvent)) error {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], methodWatchPresence)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		f := msg.GetFields()
		fn(PresenceEvent{
			EventID:    f["event_id"].GetStringValue(),
			UserID:     f["user_id"].GetStringValue(),
			Reason:     f["reason"].GetStringValue(),
			Online:     fromList(f["online"].GetListValue()),
			OccurredAt: time.UnixMilli(int64(f["occurred_at_unix_ms"].GetNumberValue())),
		})
	}
}

func fromList(l *structpb.ListValue) []string {
	out := make([]string, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}
