package service

import (
	"context"
	"fmt"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// ReceiverTipService manages the per-receiver views of a submission and owns
// the pertinence vote.
type ReceiverTipService interface {
	// CreateForSubmission creates one receiver tip for every assigned receiver
	// of the given level. Receivers that no longer exist are skipped.
	CreateForSubmission(ctx context.Context, internalTipID string, tier int) (int, error)
	// Read counts an access and returns the merged tip view.
	Read(ctx context.Context, tipID string) (*model.ReceiverTipDetail, error)
	// CastPertinenceVote records a vote once and returns the new aggregate.
	CastPertinenceVote(ctx context.Context, tipID string, positive bool) (string, int, error)
	SetNotificationMark(ctx context.Context, tipID string, mark model.NotificationMark) error
	// Delete removes one receiver tip with its messages and file copies.
	Delete(ctx context.Context, tipID string) error
	// DeleteAllForInternalTip removes every receiver tip of an internal tip.
	DeleteAllForInternalTip(ctx context.Context, internalTipID string) (int64, error)

	ListAll(ctx context.Context) ([]model.ReceiverTip, error)
	ListByReceiver(ctx context.Context, receiverID string) ([]model.ReceiverTip, error)
	ListSiblings(ctx context.Context, tipID string) (*model.Siblings, error)
	ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.ReceiverTip, error)
	ListByContext(ctx context.Context, contextID string) ([]model.ReceiverTip, error)
	ListReceiversByTip(ctx context.Context, tipID string) (*model.ReceiversByTip, error)
	ListTipsByTip(ctx context.Context, tipID string) (*model.TipsByTip, error)

	// Get returns a receiver tip without counting an access.
	Get(ctx context.Context, tipID string) (*model.ReceiverTip, error)
	// Owner returns the receiver id of a tip without counting an access.
	Owner(ctx context.Context, tipID string) (string, error)
	// SetPreference updates "label" (string) or "enable_notifications" (bool).
	SetPreference(ctx context.Context, tipID, key string, value any) error
	SetAuthOptions(ctx context.Context, tipID string, opts model.AuthOptions) error
}

type receiverTipService struct {
	*core
}

func (c *core) getReceiverTip(ctx context.Context, tx repository.Tx, tipID string) (*model.ReceiverTip, error) {
	rt, _, err := c.lockReceiverTip(ctx, tx, tipID)
	return rt, err
}

// lockReceiverTip locks the owning internal tip before the receiver tip.
// Every path that locks rows of one submission takes the internal tip first.
func (c *core) lockReceiverTip(ctx context.Context, tx repository.Tx, tipID string) (*model.ReceiverTip, *model.InternalTip, error) {
	if tipID == "" {
		return nil, nil, ErrIDRequired
	}
	parent, err := tx.ReceiverTipParent(ctx, tipID)
	if err != nil {
		return nil, nil, rowErr(err, ErrNotFound)
	}
	it, err := c.getInternalTip(ctx, tx, parent)
	if err != nil {
		return nil, nil, err
	}
	rt, err := tx.GetReceiverTip(ctx, tipID)
	if err != nil {
		return nil, nil, rowErr(err, ErrNotFound)
	}
	return rt, it, nil
}

func (c *core) getInternalTip(ctx context.Context, tx repository.Tx, id string) (*model.InternalTip, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	it, err := tx.GetInternalTip(ctx, id)
	if err != nil {
		return nil, rowErr(err, ErrNotFound)
	}
	return it, nil
}

// resolveReceivers loads the assigned receivers of it once. Receivers that no
// longer exist are logged and counted as skipped.
func (c *core) resolveReceivers(ctx context.Context, tx repository.Tx, it *model.InternalTip) ([]model.Receiver, int, error) {
	var (
		out     []model.Receiver
		skipped int
	)
	for _, receiverID := range it.Receivers {
		r, err := tx.GetReceiver(ctx, receiverID)
		if err != nil {
			if rowErr(err, ErrNotFound) == ErrNotFound {
				c.Logger.Warn("receiver_skipped", map[string]any{
					"internaltip_id": it.ID,
					"receiver_id":    receiverID,
					"reason":         "receiver not found",
				})
				skipped++
				continue
			}
			return nil, 0, rowErr(err, ErrNotFound)
		}
		out = append(out, *r)
	}
	return out, skipped, nil
}

// createReceiverTips creates the tips of one tier. It fails on the first
// store error so the caller's transaction discards the partial set.
func (c *core) createReceiverTips(ctx context.Context, tx repository.Tx, it *model.InternalTip, receivers []model.Receiver, tier int) (int, error) {
	now := c.now()
	created := 0
	for _, r := range receivers {
		if r.Level != tier {
			continue
		}
		rt := &model.ReceiverTip{
			ID:                  c.TipIDs.New(),
			InternalTipID:       it.ID,
			ReceiverID:          r.ID,
			NotificationMark:    model.MarkNotNotified,
			ExpressedPertinence: model.PertinenceUnexpressed,
			AuthOptions:         model.AuthOptions{},
			EnableNotifications: true,
			CreatedAt:           now,
		}
		if err := tx.CreateReceiverTip(ctx, rt); err != nil {
			return 0, fmt.Errorf("create receiver tip for %s: %w", r.ID, err)
		}
		created++
	}
	return created, nil
}

// removeReceiverTip deletes a receiver tip after its messages and file
// copies. Each removed copy with its own stored object is queued for secure
// deletion.
func (c *core) removeReceiverTip(ctx context.Context, tx repository.Tx, rt *model.ReceiverTip) (model.PurgeReport, error) {
	report := model.PurgeReport{InternalTipID: rt.InternalTipID}

	keys, err := c.receiverFileKeys(ctx, tx, repository.ReceiverFileFilter{ReceiverTipID: rt.ID})
	if err != nil {
		return report, err
	}
	msgs, err := tx.DeleteMessages(ctx, repository.MessageFilter{ReceiverTipID: rt.ID})
	if err != nil {
		return report, fmt.Errorf("delete messages: %w", err)
	}
	rfiles, err := tx.DeleteReceiverFiles(ctx, repository.ReceiverFileFilter{ReceiverTipID: rt.ID})
	if err != nil {
		return report, fmt.Errorf("delete receiver files: %w", err)
	}
	n, err := tx.DeleteReceiverTip(ctx, rt.ID)
	if err != nil {
		return report, fmt.Errorf("delete receiver tip: %w", err)
	}
	if n == 0 {
		return report, ErrNotFound
	}
	queued, err := c.queueSecureDeletes(ctx, tx, keys)
	if err != nil {
		return report, err
	}

	report.Messages = int(msgs)
	report.ReceiverFiles = int(rfiles)
	report.ReceiverTips = int(n)
	report.SecureFileDeletes = queued
	return report, nil
}

func (s *receiverTipService) CreateForSubmission(ctx context.Context, internalTipID string, tier int) (int, error) {
	var created int
	err := s.run(ctx, "ReceiverTip.CreateForSubmission", func(ctx context.Context, tx repository.Tx) error {
		it, err := s.getInternalTip(ctx, tx, internalTipID)
		if err != nil {
			return err
		}
		receivers, _, err := s.resolveReceivers(ctx, tx, it)
		if err != nil {
			return err
		}
		created, err = s.createReceiverTips(ctx, tx, it, receivers, tier)
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *receiverTipService) Read(ctx context.Context, tipID string) (*model.ReceiverTipDetail, error) {
	var out model.ReceiverTipDetail
	err := s.run(ctx, "ReceiverTip.Read", func(ctx context.Context, tx repository.Tx) error {
		rt, it, err := s.lockReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}

		now := s.now()
		prev := rt.LastAccess
		rt.AccessCounter++
		rt.LastAccess = &now
		if err := tx.UpdateReceiverTip(ctx, rt); err != nil {
			return rowErr(err, ErrNotFound)
		}
		if it.New {
			it.New = false
			if err := tx.UpdateInternalTip(ctx, it); err != nil {
				return rowErr(err, ErrNotFound)
			}
		}

		var name string
		if r, err := tx.GetReceiver(ctx, rt.ReceiverID); err == nil {
			name = r.Name
		}
		// The view reports the access before this one.
		view := *rt
		view.LastAccess = prev
		out = model.NewReceiverTipDetail(*it, view, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CastPertinenceVote locks the internal tip and then the voting tip, so the
// tally below sees every vote committed before it and none in flight.
func (s *receiverTipService) CastPertinenceVote(ctx context.Context, tipID string, positive bool) (string, int, error) {
	var (
		itipID string
		score  int
	)
	err := s.run(ctx, "ReceiverTip.CastPertinenceVote", func(ctx context.Context, tx repository.Tx) error {
		rt, it, err := s.lockReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		if rt.ExpressedPertinence != model.PertinenceUnexpressed {
			return ErrAlreadyVoted
		}

		now := s.now()
		rt.ExpressedPertinence = model.PertinenceFromVote(positive)
		rt.LastAccess = &now
		if err := tx.UpdateReceiverTip(ctx, rt); err != nil {
			return rowErr(err, ErrNotFound)
		}

		pos, neg, err := tx.TallyPertinence(ctx, it.ID)
		if err != nil {
			return fmt.Errorf("tally pertinence: %w", err)
		}
		it.PertinenceScore = pos - neg
		if err := tx.UpdateInternalTip(ctx, it); err != nil {
			return rowErr(err, ErrNotFound)
		}
		itipID, score = it.ID, it.PertinenceScore
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	s.Metrics.Vote(positive)
	return itipID, score, nil
}

func (s *receiverTipService) SetNotificationMark(ctx context.Context, tipID string, mark model.NotificationMark) error {
	if !mark.Valid() {
		return invalid("notification mark %q", mark)
	}
	return s.run(ctx, "ReceiverTip.SetNotificationMark", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		now := s.now()
		rt.NotificationMark = mark
		rt.NotificationDate = &now
		return rowErr(tx.UpdateReceiverTip(ctx, rt), ErrNotFound)
	})
}

func (s *receiverTipService) Delete(ctx context.Context, tipID string) error {
	return s.run(ctx, "ReceiverTip.Delete", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		_, err = s.removeReceiverTip(ctx, tx, rt)
		return err
	})
}

func (s *receiverTipService) DeleteAllForInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	if internalTipID == "" {
		return 0, ErrIDRequired
	}
	var n int64
	err := s.run(ctx, "ReceiverTip.DeleteAllForInternalTip", func(ctx context.Context, tx repository.Tx) error {
		if err := s.lockSubmission(ctx, tx, internalTipID); err != nil {
			return err
		}
		tips, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: internalTipID})
		if err != nil {
			return err
		}
		for i := range tips {
			rep, err := s.removeReceiverTip(ctx, tx, &tips[i])
			if err != nil {
				return err
			}
			n += int64(rep.ReceiverTips)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *receiverTipService) list(ctx context.Context, op string, f repository.ReceiverTipFilter) ([]model.ReceiverTip, error) {
	var out []model.ReceiverTip
	err := s.run(ctx, op, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListReceiverTips(ctx, f)
		return err
	})
	return out, err
}

func (s *receiverTipService) ListAll(ctx context.Context) ([]model.ReceiverTip, error) {
	return s.list(ctx, "ReceiverTip.ListAll", repository.ReceiverTipFilter{})
}

func (s *receiverTipService) ListByReceiver(ctx context.Context, receiverID string) ([]model.ReceiverTip, error) {
	if receiverID == "" {
		return nil, ErrIDRequired
	}
	return s.list(ctx, "ReceiverTip.ListByReceiver", repository.ReceiverTipFilter{ReceiverID: receiverID})
}

func (s *receiverTipService) ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.ReceiverTip, error) {
	if !mark.Valid() {
		return nil, invalid("notification mark %q", mark)
	}
	return s.list(ctx, "ReceiverTip.ListByMark", repository.ReceiverTipFilter{Mark: mark})
}

func (s *receiverTipService) ListSiblings(ctx context.Context, tipID string) (*model.Siblings, error) {
	var out model.Siblings
	err := s.run(ctx, "ReceiverTip.ListSiblings", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		it, err := s.getInternalTip(ctx, tx, rt.InternalTipID)
		if err != nil {
			return err
		}
		all, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: it.ID})
		if err != nil {
			return err
		}
		out = model.Siblings{Siblings: withoutTip(all, rt.ID), Requested: *rt, InternalTip: *it}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *receiverTipService) ListByContext(ctx context.Context, contextID string) ([]model.ReceiverTip, error) {
	if contextID == "" {
		return nil, ErrIDRequired
	}
	out := make([]model.ReceiverTip, 0)
	err := s.run(ctx, "ReceiverTip.ListByContext", func(ctx context.Context, tx repository.Tx) error {
		tips, err := tx.ListInternalTips(ctx, repository.InternalTipFilter{ContextID: contextID})
		if err != nil {
			return err
		}
		for _, it := range tips {
			rts, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: it.ID})
			if err != nil {
				return err
			}
			out = append(out, rts...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *receiverTipService) ListReceiversByTip(ctx context.Context, tipID string) (*model.ReceiversByTip, error) {
	var out model.ReceiversByTip
	err := s.run(ctx, "ReceiverTip.ListReceiversByTip", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		all, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: rt.InternalTipID})
		if err != nil {
			return err
		}

		out = model.ReceiversByTip{Others: []model.Receiver{}, Mapped: []string{}}
		for _, t := range all {
			out.Mapped = append(out.Mapped, t.ReceiverID)
			r, err := tx.GetReceiver(ctx, t.ReceiverID)
			if err != nil {
				if rowErr(err, ErrNotFound) == ErrNotFound {
					continue
				}
				return rowErr(err, ErrNotFound)
			}
			if t.ID == rt.ID {
				out.Actor = *r
			} else {
				out.Others = append(out.Others, *r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *receiverTipService) ListTipsByTip(ctx context.Context, tipID string) (*model.TipsByTip, error) {
	var out model.TipsByTip
	err := s.run(ctx, "ReceiverTip.ListTipsByTip", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		mine, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{ReceiverID: rt.ReceiverID})
		if err != nil {
			return err
		}
		out = model.TipsByTip{OtherTips: withoutTip(mine, rt.ID), Request: *rt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *receiverTipService) Get(ctx context.Context, tipID string) (*model.ReceiverTip, error) {
	var out *model.ReceiverTip
	err := s.run(ctx, "ReceiverTip.Get", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		out = rt
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *receiverTipService) Owner(ctx context.Context, tipID string) (string, error) {
	var owner string
	err := s.run(ctx, "ReceiverTip.Owner", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		owner = rt.ReceiverID
		return nil
	})
	return owner, err
}

const maxLabelLen = 255

func (s *receiverTipService) SetPreference(ctx context.Context, tipID, key string, value any) error {
	apply, err := preference(key, value)
	if err != nil {
		return err
	}
	return s.run(ctx, "ReceiverTip.SetPreference", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		apply(rt)
		return rowErr(tx.UpdateReceiverTip(ctx, rt), ErrNotFound)
	})
}

func preference(key string, value any) (func(*model.ReceiverTip), error) {
	switch key {
	case "label":
		label, ok := value.(string)
		if !ok {
			return nil, invalid("label must be a string")
		}
		if len(label) > maxLabelLen {
			return nil, invalid("label longer than %d bytes", maxLabelLen)
		}
		return func(rt *model.ReceiverTip) { rt.Label = label }, nil
	case "enable_notifications":
		on, ok := value.(bool)
		if !ok {
			return nil, invalid("enable_notifications must be a boolean")
		}
		return func(rt *model.ReceiverTip) { rt.EnableNotifications = on }, nil
	}
	return nil, invalid("unknown preference %q", key)
}

func (s *receiverTipService) SetAuthOptions(ctx context.Context, tipID string, opts model.AuthOptions) error {
	if err := opts.Validate(); err != nil {
		return invalid("%v", err)
	}
	return s.run(ctx, "ReceiverTip.SetAuthOptions", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		rt.AuthOptions = opts.Clone()
		return rowErr(tx.UpdateReceiverTip(ctx, rt), ErrNotFound)
	})
}

func withoutTip(tips []model.ReceiverTip, id string) []model.ReceiverTip {
	out := make([]model.ReceiverTip, 0, len(tips))
	for _, t := range tips {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
