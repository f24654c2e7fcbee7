package service

import (
	"context"
	"fmt"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// CommentService is the append-only timeline shared by the receivers and the
// whistleblower of an InternalTip.
type CommentService interface {
	Add(ctx context.Context, internalTipID string, source model.Source, authorID, content string) (*model.Comment, error)
	Get(ctx context.Context, commentID string) (*model.Comment, error)
	ListAll(ctx context.Context) ([]model.Comment, error)
	ListByInternalTip(ctx context.Context, internalTipID string) ([]model.Comment, error)
	ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.Comment, error)
	SetNotificationMark(ctx context.Context, commentID string, mark model.NotificationMark) error
	DeleteByInternalTip(ctx context.Context, internalTipID string) (int64, error)
}

type commentService struct {
	*core
}

// contextAllows reports whether a context flag permits an action. Missing
// contexts impose no restriction.
func (c *core) contextAllows(ctx context.Context, tx repository.Tx, contextID string, flag func(model.Context) bool) (bool, error) {
	cx, err := tx.GetContext(ctx, contextID)
	if err != nil {
		if rowErr(err, ErrNotFound) == ErrNotFound {
			return true, nil
		}
		return false, rowErr(err, ErrNotFound)
	}
	return flag(*cx), nil
}

func (s *commentService) Add(ctx context.Context, internalTipID string, source model.Source, authorID, content string) (*model.Comment, error) {
	if !model.ValidCommentSource(source) {
		return nil, invalid("comment source %q", source)
	}
	if content == "" {
		return nil, invalid("comment content is empty")
	}

	var out model.Comment
	err := s.run(ctx, "Comment.Add", func(ctx context.Context, tx repository.Tx) error {
		it, err := s.getInternalTip(ctx, tx, internalTipID)
		if err != nil {
			return err
		}
		if source != model.SourceSystem {
			ok, err := s.contextAllows(ctx, tx, it.ContextID, func(c model.Context) bool { return c.EnableComments })
			if err != nil {
				return err
			}
			if !ok {
				return ErrForbidden
			}
		}

		cm := &model.Comment{
			ID:               s.IDs.New(),
			InternalTipID:    it.ID,
			CreatedAt:        s.now(),
			Source:           source,
			AuthorID:         authorID,
			Content:          content,
			NotificationMark: model.MarkNotNotified,
		}
		if err := tx.CreateComment(ctx, cm); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		out = *cm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *commentService) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	if commentID == "" {
		return nil, ErrIDRequired
	}
	var out model.Comment
	err := s.run(ctx, "Comment.Get", func(ctx context.Context, tx repository.Tx) error {
		cm, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}
		out = *cm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *commentService) list(ctx context.Context, op string, f repository.CommentFilter) ([]model.Comment, error) {
	var out []model.Comment
	err := s.run(ctx, op, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListComments(ctx, f)
		return err
	})
	return out, err
}

func (s *commentService) ListAll(ctx context.Context) ([]model.Comment, error) {
	return s.list(ctx, "Comment.ListAll", repository.CommentFilter{})
}

func (s *commentService) ListByInternalTip(ctx context.Context, internalTipID string) ([]model.Comment, error) {
	if internalTipID == "" {
		return nil, ErrIDRequired
	}
	return s.list(ctx, "Comment.ListByInternalTip", repository.CommentFilter{InternalTipID: internalTipID})
}

func (s *commentService) ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.Comment, error) {
	if !mark.Valid() {
		return nil, invalid("notification mark %q", mark)
	}
	return s.list(ctx, "Comment.ListByMark", repository.CommentFilter{Mark: mark})
}

func (s *commentService) SetNotificationMark(ctx context.Context, commentID string, mark model.NotificationMark) error {
	if !mark.Valid() {
		return invalid("notification mark %q", mark)
	}
	if commentID == "" {
		return ErrIDRequired
	}
	return s.run(ctx, "Comment.SetNotificationMark", func(ctx context.Context, tx repository.Tx) error {
		n, err := tx.UpdateCommentMark(ctx, commentID, mark)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *commentService) DeleteByInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	if internalTipID == "" {
		return 0, ErrIDRequired
	}
	var n int64
	err := s.run(ctx, "Comment.DeleteByInternalTip", func(ctx context.Context, tx repository.Tx) error {
		if err := s.lockSubmission(ctx, tx, internalTipID); err != nil {
			return err
		}
		var err error
		n, err = tx.DeleteComments(ctx, internalTipID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
