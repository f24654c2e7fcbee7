package service

import (
	"context"
	"fmt"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// MessageService is the private channel between one receiver and the
// whistleblower. Content is immutable once written.
type MessageService interface {
	Add(ctx context.Context, receiverTipID string, source model.Source, content string) (*model.Message, error)
	// AddFromWhistleblower writes to the receiver tip of receiverID on the
	// submission identified by receipt.
	AddFromWhistleblower(ctx context.Context, receipt, receiverID, content string) (*model.Message, error)
	ListByReceiverTip(ctx context.Context, receiverTipID string) ([]model.Message, error)
	ListForWhistleblower(ctx context.Context, receipt, receiverID string) ([]model.Message, error)
	ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.Message, error)
	SetNotificationMark(ctx context.Context, messageID string, mark model.NotificationMark) error
}

type messageService struct {
	*core
}

func (s *messageService) add(ctx context.Context, tx repository.Tx, rt *model.ReceiverTip, source model.Source, content string) (*model.Message, error) {
	it, err := s.getInternalTip(ctx, tx, rt.InternalTipID)
	if err != nil {
		return nil, err
	}
	ok, err := s.contextAllows(ctx, tx, it.ContextID, func(c model.Context) bool { return c.EnableMessages })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	m := &model.Message{
		ID:               s.IDs.New(),
		ReceiverTipID:    rt.ID,
		InternalTipID:    rt.InternalTipID,
		CreatedAt:        s.now(),
		Source:           source,
		Content:          content,
		NotificationMark: model.MarkNotNotified,
	}
	if err := tx.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

// whistleblowerReceiverTip resolves the receiver tip a whistleblower addresses.
func (s *messageService) whistleblowerReceiverTip(ctx context.Context, tx repository.Tx, receipt, receiverID string) (*model.ReceiverTip, error) {
	wt, err := s.lookupReceipt(ctx, tx, receipt)
	if err != nil {
		return nil, err
	}
	if receiverID == "" {
		return nil, ErrIDRequired
	}
	rts, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: wt.InternalTipID, ReceiverID: receiverID})
	if err != nil {
		return nil, err
	}
	switch len(rts) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return s.getReceiverTip(ctx, tx, rts[0].ID)
	}
	return nil, fmt.Errorf("%w: %d receiver tips for receiver %s", ErrDataIntegrity, len(rts), receiverID)
}

func (s *messageService) Add(ctx context.Context, receiverTipID string, source model.Source, content string) (*model.Message, error) {
	if !model.ValidMessageSource(source) {
		return nil, invalid("message source %q", source)
	}
	if content == "" {
		return nil, invalid("message content is empty")
	}
	var out *model.Message
	err := s.run(ctx, "Message.Add", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, receiverTipID)
		if err != nil {
			return err
		}
		out, err = s.add(ctx, tx, rt, source, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *messageService) AddFromWhistleblower(ctx context.Context, receipt, receiverID, content string) (*model.Message, error) {
	if content == "" {
		return nil, invalid("message content is empty")
	}
	var out *model.Message
	err := s.run(ctx, "Message.AddFromWhistleblower", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.whistleblowerReceiverTip(ctx, tx, receipt, receiverID)
		if err != nil {
			return err
		}
		out, err = s.add(ctx, tx, rt, model.SourceWhistleblower, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *messageService) ListByReceiverTip(ctx context.Context, receiverTipID string) ([]model.Message, error) {
	var out []model.Message
	err := s.run(ctx, "Message.ListByReceiverTip", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.getReceiverTip(ctx, tx, receiverTipID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListMessages(ctx, repository.MessageFilter{ReceiverTipID: receiverTipID})
		return err
	})
	return out, err
}

func (s *messageService) ListForWhistleblower(ctx context.Context, receipt, receiverID string) ([]model.Message, error) {
	var out []model.Message
	err := s.run(ctx, "Message.ListForWhistleblower", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.whistleblowerReceiverTip(ctx, tx, receipt, receiverID)
		if err != nil {
			return err
		}
		out, err = tx.ListMessages(ctx, repository.MessageFilter{ReceiverTipID: rt.ID})
		return err
	})
	return out, err
}

func (s *messageService) ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.Message, error) {
	if !mark.Valid() {
		return nil, invalid("notification mark %q", mark)
	}
	var out []model.Message
	err := s.run(ctx, "Message.ListByMark", func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListMessages(ctx, repository.MessageFilter{Mark: mark})
		return err
	})
	return out, err
}

func (s *messageService) SetNotificationMark(ctx context.Context, messageID string, mark model.NotificationMark) error {
	if !mark.Valid() {
		return invalid("notification mark %q", mark)
	}
	if messageID == "" {
		return ErrIDRequired
	}
	return s.run(ctx, "Message.SetNotificationMark", func(ctx context.Context, tx repository.Tx) error {
		n, err := tx.UpdateMessageMark(ctx, messageID, mark)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
