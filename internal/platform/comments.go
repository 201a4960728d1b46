package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"
	"clipshare/internal/notif"

	"github.com/google/uuid"
)

const maxCommentLength = 1000

// Comment is a top-level comment with its replies, or a reply (no Replies).
type Comment struct {
	ID        string     `json:"id"`
	ItemID    string     `json:"item_id"`
	UserID    string     `json:"user_id"`
	ParentID  *string    `json:"parent_id,omitempty"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Replies   []*Comment `json:"replies,omitempty"`
}

func toComment(row *dbmysql.Comment) *Comment {
	return &Comment{
		ID:        row.ID,
		ItemID:    row.ItemID,
		UserID:    row.UserID,
		ParentID:  row.ParentID,
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
	}
}

// Comments returns the item's thread oldest first. Replies whose parent is gone are dropped.
func (p *Platform) Comments(ctx context.Context, itemID string) ([]*Comment, error) {
	if _, err := p.items.ByID(ctx, itemID); err != nil {
		return nil, err
	}
	rows, err := p.comments.ByItem(ctx, itemID)
	if err != nil {
		return nil, domain.E(domain.KindRemoteFetch, "list comments", err)
	}
	return thread(rows), nil
}

func thread(rows []*dbmysql.Comment) []*Comment {
	top := make([]*Comment, 0, len(rows))
	byID := make(map[string]*Comment, len(rows))
	for _, row := range rows {
		if row.ParentID == nil {
			c := toComment(row)
			top = append(top, c)
			byID[c.ID] = c
		}
	}
	for _, row := range rows {
		if row.ParentID == nil {
			continue
		}
		if parent, ok := byID[*row.ParentID]; ok {
			parent.Replies = append(parent.Replies, toComment(row))
		}
	}
	return top
}

// AddComment posts a comment, or a reply when parentID is set. Replies nest one level only.
func (p *Platform) AddComment(ctx context.Context, s domain.Session, itemID string, parentID *string, content string) (*Comment, error) {
	const op = "add comment"
	if !s.Authenticated() {
		return nil, domain.E(domain.KindUnauthenticated, op, nil)
	}
	content = strings.TrimSpace(content)
	if err := common.ValidateText("content", content, true, maxCommentLength); err != nil {
		return nil, domain.E(domain.KindInvalid, op, err)
	}

	item, err := p.items.ByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var parent *dbmysql.Comment
	if parentID != nil && *parentID != "" {
		parent, err = p.comments.ByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.ItemID != itemID {
			return nil, domain.E(domain.KindInvalid, op, fmt.Errorf("comment %s is on another item", parent.ID))
		}
		if parent.ParentID != nil {
			return nil, domain.E(domain.KindInvalid, op, errors.New("replies cannot be nested"))
		}
	} else {
		parentID = nil
	}

	row := &dbmysql.Comment{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		UserID:    s.UserID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: p.now(),
	}
	if err := p.comments.Create(ctx, row); err != nil {
		return nil, domain.E(domain.KindRemoteMutation, op, err)
	}

	trigger := s.UserID
	event := notif.Event{Type: notif.TypeComment, TriggerUserID: &trigger, ItemID: &item.ID}
	if parent != nil {
		event.UserID = parent.UserID
		event.Message = fmt.Sprintf("%s respondeu seu comentário em \"%s\"", displayName(s), item.Title)
	} else {
		event.UserID = item.OwnerID
		event.Message = fmt.Sprintf("%s comentou em \"%s\"", displayName(s), item.Title)
	}
	if event.UserID != s.UserID {
		p.notify(event)
	}

	return toComment(row), nil
}
