package rpc

import (
	"context"
	"fmt"

	"clipshare/internal/domain"
	"clipshare/internal/gallery"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client implements gallery.Backend and gallery.SessionResolver over gRPC.
type Client struct {
	conn *grpc.ClientConn
}

var (
	_ gallery.Backend         = (*Client)(nil)
	_ gallery.SessionResolver = (*Client)(nil)
)

// bearer attaches the session token to every call.
type bearer string

func (b bearer) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool { return false }

// DialOptions are the options every platform client needs. An empty token
// makes an anonymous client.
func DialOptions(token string) []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearer(token)))
	}
	return opts
}

func Dial(target, token string, extra ...grpc.DialOption) (*Client, error) {
	conn, err := grpc.NewClient(target, append(DialOptions(token), extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial platform at %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) CurrentSession(ctx context.Context) (domain.Session, error) {
	var out SessionReply
	if err := c.conn.Invoke(ctx, fullMethod("CurrentSession"), &Empty{}, &out); err != nil {
		return domain.Anonymous(), fromStatus(err, domain.KindRemoteFetch, "current session")
	}
	return domain.Session{UserID: out.UserID, Username: out.Username, Role: domain.Role(out.Role)}, nil
}

func (c *Client) ListItems(ctx context.Context, q domain.ItemQuery) ([]domain.ContentItem, error) {
	var out ListItemsReply
	if err := c.conn.Invoke(ctx, fullMethod("ListItems"), queryToWire(q), &out); err != nil {
		return nil, fromStatus(err, domain.KindRemoteFetch, "list items")
	}
	items := make([]domain.ContentItem, 0, len(out.Items))
	for _, it := range out.Items {
		if it != nil {
			items = append(items, itemFromWire(it))
		}
	}
	return items, nil
}

func (c *Client) ListMembership(ctx context.Context, userID string, rel domain.Relation) ([]string, error) {
	var out ListMembershipReply
	req := &MembershipRequest{UserID: userID, Relation: string(rel)}
	if err := c.conn.Invoke(ctx, fullMethod("ListMembership"), req, &out); err != nil {
		return nil, fromStatus(err, domain.KindRemoteFetch, "list membership")
	}
	return out.ItemIDs, nil
}

func (c *Client) InsertMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	req := &MembershipRequest{UserID: userID, ItemID: itemID, Relation: string(rel)}
	err := c.conn.Invoke(ctx, fullMethod("InsertMembership"), req, &Empty{})
	return fromStatus(err, domain.KindRemoteMutation, "insert membership")
}

func (c *Client) DeleteMembership(ctx context.Context, userID, itemID string, rel domain.Relation) error {
	req := &MembershipRequest{UserID: userID, ItemID: itemID, Relation: string(rel)}
	err := c.conn.Invoke(ctx, fullMethod("DeleteMembership"), req, &Empty{})
	return fromStatus(err, domain.KindRemoteMutation, "delete membership")
}

func (c *Client) AdjustCounter(ctx context.Context, itemID string, delta int) error {
	req := &AdjustCounterRequest{ItemID: itemID, Delta: int32(delta)}
	err := c.conn.Invoke(ctx, fullMethod("AdjustCounter"), req, &Empty{})
	return fromStatus(err, domain.KindRemoteMutation, "adjust counter")
}

func (c *Client) CreateNotification(ctx context.Context, userID, message, kind string) error {
	req := &NotificationRequest{UserID: userID, Message: message, Kind: kind}
	err := c.conn.Invoke(ctx, fullMethod("CreateNotification"), req, &Empty{})
	return fromStatus(err, domain.KindRemoteMutation, "create notification")
}
