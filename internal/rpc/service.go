package rpc

import (
	"context"
	"fmt"

	"clipshare/internal/common"
	"clipshare/internal/domain"
	"clipshare/internal/gallery"

	"go.uber.org/zap"
)

// Service serves PlatformServer from any gallery.Backend. Membership rows can
// only be read or written by the user they belong to.
type Service struct {
	backend gallery.Backend
	log     *zap.Logger
}

var _ PlatformServer = (*Service)(nil)

func NewService(backend gallery.Backend, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{backend: backend, log: log}
}

func (s *Service) CurrentSession(ctx context.Context, _ *Empty) (*SessionReply, error) {
	sess := common.SessionFrom(ctx)
	return &SessionReply{UserID: sess.UserID, Username: sess.Username, Role: string(sess.Role)}, nil
}

func (s *Service) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsReply, error) {
	items, err := s.backend.ListItems(ctx, queryFromWire(req))
	if err != nil {
		return nil, toStatus(err)
	}
	out := &ListItemsReply{Items: make([]*Item, len(items))}
	for i, it := range items {
		out.Items[i] = itemToWire(it)
	}
	return out, nil
}

func (s *Service) ListMembership(ctx context.Context, req *MembershipRequest) (*ListMembershipReply, error) {
	rel, err := s.authorize(ctx, "list membership", req)
	if err != nil {
		return nil, toStatus(err)
	}
	ids, err := s.backend.ListMembership(ctx, req.UserID, rel)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListMembershipReply{ItemIDs: ids}, nil
}

func (s *Service) InsertMembership(ctx context.Context, req *MembershipRequest) (*Empty, error) {
	rel, err := s.authorize(ctx, "insert membership", req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, toStatus(s.backend.InsertMembership(ctx, req.UserID, req.ItemID, rel))
}

func (s *Service) DeleteMembership(ctx context.Context, req *MembershipRequest) (*Empty, error) {
	rel, err := s.authorize(ctx, "delete membership", req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, toStatus(s.backend.DeleteMembership(ctx, req.UserID, req.ItemID, rel))
}

func (s *Service) AdjustCounter(ctx context.Context, req *AdjustCounterRequest) (*Empty, error) {
	if !common.SessionFrom(ctx).Authenticated() {
		return nil, toStatus(domain.E(domain.KindUnauthenticated, "adjust counter", nil))
	}
	if req.Delta != 1 && req.Delta != -1 {
		return nil, toStatus(domain.E(domain.KindInvalid, "adjust counter", fmt.Errorf("delta must be 1 or -1, got %d", req.Delta)))
	}
	return &Empty{}, toStatus(s.backend.AdjustCounter(ctx, req.ItemID, int(req.Delta)))
}

func (s *Service) CreateNotification(ctx context.Context, req *NotificationRequest) (*Empty, error) {
	if !common.SessionFrom(ctx).Authenticated() {
		return nil, toStatus(domain.E(domain.KindUnauthenticated, "create notification", nil))
	}
	return &Empty{}, toStatus(s.backend.CreateNotification(ctx, req.UserID, req.Message, req.Kind))
}

func (s *Service) authorize(ctx context.Context, op string, req *MembershipRequest) (domain.Relation, error) {
	sess := common.SessionFrom(ctx)
	if !sess.Authenticated() {
		return "", domain.E(domain.KindUnauthenticated, op, nil)
	}
	if req.UserID != sess.UserID {
		s.log.Warn("membership access for another user rejected",
			zap.String("caller", sess.UserID),
			zap.String("target", req.UserID),
			zap.String("op", op),
		)
		return "", domain.E(domain.KindForbidden, op, fmt.Errorf("memberships of %s are not yours", req.UserID))
	}
	return domain.ParseRelation(req.Relation)
}
