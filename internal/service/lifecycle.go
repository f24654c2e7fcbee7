package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// maxReceiptAttempts bounds receipt regeneration after hash collisions.
const maxReceiptAttempts = 8

// Submission is a finalized submission handed over by the intake collaborator.
type Submission struct {
	ContextID string          `json:"context_id"`
	Receivers []string        `json:"receivers"`
	Answers   json.RawMessage `json:"answers,omitempty"`
}

// FinalizeResult carries the receipt. It is the only place the plaintext
// receipt ever appears.
type FinalizeResult struct {
	InternalTip  model.InternalTip   `json:"internaltip"`
	ReceiverTips []model.ReceiverTip `json:"receivertips"`
	Receipt      string              `json:"receipt"`
}

// SweepReport summarizes one expiration pass.
type SweepReport struct {
	WhistleblowerTips int `json:"whistleblowertips"`
	InternalTips      int `json:"internaltips"`
	Failed            int `json:"failed"`
}

// LifecycleService coordinates creation and cascading removal of every entity
// descending from an InternalTip.
type LifecycleService interface {
	// Finalize creates the InternalTip, the receiver tips of every configured
	// tier and the whistleblower tip in one transaction.
	Finalize(ctx context.Context, sub Submission) (*FinalizeResult, error)
	// Delete removes an InternalTip and all its dependents.
	Delete(ctx context.Context, internalTipID string) (*model.PurgeReport, error)
	// DeleteByReceiver is a total delete requested by a receiver.
	DeleteByReceiver(ctx context.Context, receiverID, tipID string) (*model.PurgeReport, error)
	// RemoveReceiverTip removes one receiver tip. Siblings are untouched.
	RemoveReceiverTip(ctx context.Context, tipID string) (*model.PurgeReport, error)
	// Postpone moves the expiration to now plus the context tip lifetime.
	Postpone(ctx context.Context, receiverID, tipID string) (time.Time, error)
	// Sweep applies whistleblower inactivity and tip expiration as of now.
	Sweep(ctx context.Context, now time.Time) (*SweepReport, error)

	Counts(ctx context.Context) (model.Counts, error)
	ListInternalTips(ctx context.Context) ([]model.InternalTip, error)
	ListByContext(ctx context.Context, contextID string) ([]model.ContextBundle, error)
}

type lifecycleService struct {
	*core
}

// createWhistleblowerTip stores the single whistleblower tip of it and
// returns the plaintext receipt. A bare ErrDuplicateKey from the store is a
// receipt hash collision; the receipt is regenerated.
func (c *core) createWhistleblowerTip(ctx context.Context, tx repository.Tx, internalTipID string) (string, error) {
	existing, err := tx.ListWhistleblowerTips(ctx, repository.WhistleblowerTipFilter{InternalTipID: internalTipID})
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", invalid("internal tip %s already has a whistleblower tip", internalTipID)
	}

	now := c.now()
	for attempt := 1; attempt <= maxReceiptAttempts; attempt++ {
		receipt, err := c.Receipts.NewReceipt()
		if err != nil {
			return "", fmt.Errorf("generate receipt: %w", err)
		}
		hash, err := c.HashReceipt(c.ReceiptSalt, receipt)
		if err != nil {
			return "", fmt.Errorf("hash receipt: %w", err)
		}
		err = tx.CreateWhistleblowerTip(ctx, &model.WhistleblowerTip{
			ReceiptHash:   hash,
			InternalTipID: internalTipID,
			AuthOptions:   model.AuthOptions{},
			CreatedAt:     now,
		})
		if err == repository.ErrDuplicateKey {
			c.Logger.Warn("receipt_collision", map[string]any{
				"internaltip_id": internalTipID,
				"attempt":        attempt,
			})
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create whistleblower tip: %w", err)
		}
		return receipt, nil
	}
	return "", fmt.Errorf("create whistleblower tip: %d receipt collisions", maxReceiptAttempts)
}

// receiverFileKeys returns the storage keys of the receiver files matching f
// that differ from their file's own key.
func (c *core) receiverFileKeys(ctx context.Context, tx repository.Tx, f repository.ReceiverFileFilter) ([]string, error) {
	rfiles, err := tx.ListReceiverFiles(ctx, f)
	if err != nil {
		return nil, err
	}
	fileKeys := map[string]string{}
	var keys []string
	for _, rf := range rfiles {
		if rf.StorageKey == "" {
			continue
		}
		fk, ok := fileKeys[rf.FileID]
		if !ok {
			file, err := tx.GetFile(ctx, rf.FileID)
			switch {
			case err == nil:
				fk = file.StorageKey
			case rowErr(err, ErrNotFound) != ErrNotFound:
				return nil, rowErr(err, ErrNotFound)
			}
			fileKeys[rf.FileID] = fk
		}
		if rf.StorageKey != fk {
			keys = append(keys, rf.StorageKey)
		}
	}
	return keys, nil
}

// queueSecureDeletes records one SecureFileDelete per distinct key.
func (c *core) queueSecureDeletes(ctx context.Context, tx repository.Tx, keys []string) (int, error) {
	seen := make(map[string]bool, len(keys))
	now := c.now()
	n := 0
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if err := tx.CreateSecureFileDelete(ctx, &model.SecureFileDelete{
			ID:         c.IDs.New(),
			StorageKey: k,
			CreatedAt:  now,
		}); err != nil {
			return n, fmt.Errorf("queue secure delete: %w", err)
		}
		n++
	}
	return n, nil
}

// lockSubmission takes the internal tip lock ahead of bulk child deletes. A
// missing tip is not an error, the deletes then match nothing.
func (c *core) lockSubmission(ctx context.Context, tx repository.Tx, internalTipID string) error {
	if _, err := tx.GetInternalTip(ctx, internalTipID); err != nil {
		if err = rowErr(err, ErrNotFound); err != ErrNotFound {
			return err
		}
	}
	return nil
}

// purgeInternalTip runs the cascade children first: messages, receiver files,
// files, comments, whistleblower tip, receiver tips, internal tip.
func (c *core) purgeInternalTip(ctx context.Context, tx repository.Tx, internalTipID string) (model.PurgeReport, error) {
	report := model.PurgeReport{InternalTipID: internalTipID}
	if _, err := c.getInternalTip(ctx, tx, internalTipID); err != nil {
		return report, err
	}

	files, err := tx.ListFiles(ctx, repository.FileFilter{InternalTipID: internalTipID})
	if err != nil {
		return report, err
	}
	keys, err := c.receiverFileKeys(ctx, tx, repository.ReceiverFileFilter{InternalTipID: internalTipID})
	if err != nil {
		return report, err
	}
	for _, f := range files {
		keys = append(keys, f.StorageKey)
	}

	steps := []struct {
		name string
		n    *int
		del  func() (int64, error)
	}{
		{"messages", &report.Messages, func() (int64, error) {
			return tx.DeleteMessages(ctx, repository.MessageFilter{InternalTipID: internalTipID})
		}},
		{"receiver files", &report.ReceiverFiles, func() (int64, error) {
			return tx.DeleteReceiverFiles(ctx, repository.ReceiverFileFilter{InternalTipID: internalTipID})
		}},
		{"files", &report.Files, func() (int64, error) { return tx.DeleteFiles(ctx, internalTipID) }},
		{"comments", &report.Comments, func() (int64, error) { return tx.DeleteComments(ctx, internalTipID) }},
		{"whistleblower tip", &report.WhistleblowerTips, func() (int64, error) {
			return tx.DeleteWhistleblowerTips(ctx, internalTipID)
		}},
		{"receiver tips", &report.ReceiverTips, func() (int64, error) { return tx.DeleteReceiverTips(ctx, internalTipID) }},
		{"internal tip", &report.InternalTips, func() (int64, error) { return tx.DeleteInternalTip(ctx, internalTipID) }},
	}
	for _, st := range steps {
		n, err := st.del()
		if err != nil {
			return report, fmt.Errorf("delete %s: %w", st.name, err)
		}
		*st.n = int(n)
	}
	if report.InternalTips == 0 {
		return report, ErrNotFound
	}

	report.SecureFileDeletes, err = c.queueSecureDeletes(ctx, tx, keys)
	if err != nil {
		return report, err
	}
	return report, nil
}

func (c *core) tipTTL(ctx context.Context, tx repository.Tx, contextID string) (time.Duration, error) {
	cx, err := tx.GetContext(ctx, contextID)
	if err != nil {
		return 0, rowErr(err, ErrNotFound)
	}
	if ttl := cx.TipTTL(); ttl > 0 {
		return ttl, nil
	}
	return c.DefaultTipTTL, nil
}

func (s *lifecycleService) logPurge(event string, r model.PurgeReport) {
	s.Logger.Info(event, map[string]any{
		"internaltip_id":    r.InternalTipID,
		"receivertips":      r.ReceiverTips,
		"whistleblowertips": r.WhistleblowerTips,
		"files":             r.Files,
		"receiverfiles":     r.ReceiverFiles,
		"comments":          r.Comments,
		"messages":          r.Messages,
		"securefiledeletes": r.SecureFileDeletes,
	})
}

func (s *lifecycleService) Finalize(ctx context.Context, sub Submission) (*FinalizeResult, error) {
	if sub.ContextID == "" {
		return nil, ErrIDRequired
	}
	receivers := uniqueStrings(sub.Receivers)
	if len(receivers) == 0 {
		return nil, invalid("submission has no receivers")
	}
	if len(sub.Answers) > 0 && !json.Valid(sub.Answers) {
		return nil, invalid("answers are not valid JSON")
	}

	var (
		out     FinalizeResult
		created int
		skipped int
	)
	err := s.run(ctx, "Lifecycle.Finalize", func(ctx context.Context, tx repository.Tx) error {
		ttl, err := s.tipTTL(ctx, tx, sub.ContextID)
		if err != nil {
			return err
		}

		now := s.now()
		it := &model.InternalTip{
			ID:             s.TipIDs.New(),
			ContextID:      sub.ContextID,
			CreatedAt:      now,
			ExpirationDate: now.Add(ttl),
			WBLastAccess:   now,
			Receivers:      receivers,
			Answers:        sub.Answers,
			New:            true,
		}
		if err := tx.CreateInternalTip(ctx, it); err != nil {
			return fmt.Errorf("create internal tip: %w", err)
		}

		assigned, sk, err := s.resolveReceivers(ctx, tx, it)
		if err != nil {
			return err
		}
		created, skipped = 0, sk
		for _, tier := range s.Tiers {
			c, err := s.createReceiverTips(ctx, tx, it, assigned, tier)
			if err != nil {
				return err
			}
			created += c
		}

		receipt, err := s.createWhistleblowerTip(ctx, tx, it.ID)
		if err != nil {
			return err
		}
		rts, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: it.ID})
		if err != nil {
			return err
		}
		out = FinalizeResult{InternalTip: *it, ReceiverTips: rts, Receipt: receipt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.TipFinalized(created, skipped)
	s.Logger.Info("tip_finalized", map[string]any{
		"internaltip_id": out.InternalTip.ID,
		"context_id":     out.InternalTip.ContextID,
		"receivertips":   created,
		"skipped":        skipped,
	})
	return &out, nil
}

func (s *lifecycleService) Delete(ctx context.Context, internalTipID string) (*model.PurgeReport, error) {
	var report model.PurgeReport
	err := s.run(ctx, "Lifecycle.Delete", func(ctx context.Context, tx repository.Tx) error {
		var err error
		report, err = s.purgeInternalTip(ctx, tx, internalTipID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Cascade("deleted")
	s.logPurge("tip_deleted", report)
	return &report, nil
}

// authorize loads a tip owned by receiverID and the owner's directory entry.
func (c *core) authorize(ctx context.Context, tx repository.Tx, receiverID, tipID string) (*model.ReceiverTip, *model.Receiver, error) {
	rt, err := c.getReceiverTip(ctx, tx, tipID)
	if err != nil {
		return nil, nil, err
	}
	if rt.ReceiverID != receiverID {
		return nil, nil, ErrForbidden
	}
	r, err := tx.GetReceiver(ctx, receiverID)
	if err != nil {
		if rowErr(err, ErrNotFound) == ErrNotFound {
			return nil, nil, ErrForbidden
		}
		return nil, nil, rowErr(err, ErrNotFound)
	}
	return rt, r, nil
}

func (s *lifecycleService) DeleteByReceiver(ctx context.Context, receiverID, tipID string) (*model.PurgeReport, error) {
	var report model.PurgeReport
	err := s.run(ctx, "Lifecycle.DeleteByReceiver", func(ctx context.Context, tx repository.Tx) error {
		rt, r, err := s.authorize(ctx, tx, receiverID, tipID)
		if err != nil {
			return err
		}
		if !r.CanDeleteSubmission {
			return ErrForbidden
		}
		report, err = s.purgeInternalTip(ctx, tx, rt.InternalTipID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Cascade("deleted")
	s.logPurge("tip_deleted", report)
	return &report, nil
}

func (s *lifecycleService) RemoveReceiverTip(ctx context.Context, tipID string) (*model.PurgeReport, error) {
	var report model.PurgeReport
	err := s.run(ctx, "Lifecycle.RemoveReceiverTip", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, tipID)
		if err != nil {
			return err
		}
		report, err = s.removeReceiverTip(ctx, tx, rt)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logPurge("receivertip_removed", report)
	return &report, nil
}

func (s *lifecycleService) Postpone(ctx context.Context, receiverID, tipID string) (time.Time, error) {
	var expiration time.Time
	err := s.run(ctx, "Lifecycle.Postpone", func(ctx context.Context, tx repository.Tx) error {
		rt, r, err := s.authorize(ctx, tx, receiverID, tipID)
		if err != nil {
			return err
		}
		if !r.CanPostponeExpiration {
			return ErrForbidden
		}
		it, err := s.getInternalTip(ctx, tx, rt.InternalTipID)
		if err != nil {
			return err
		}
		ttl, err := s.tipTTL(ctx, tx, it.ContextID)
		if errors.Is(err, ErrNotFound) {
			ttl, err = s.DefaultTipTTL, nil
		}
		if err != nil {
			return err
		}
		it.ExpirationDate = s.now().Add(ttl)
		if err := tx.UpdateInternalTip(ctx, it); err != nil {
			return rowErr(err, ErrNotFound)
		}
		expiration = it.ExpirationDate
		return nil
	})
	return expiration, err
}

// Sweep evaluates the two expiration triggers independently. Each tip is
// handled in its own transaction and re-checked under lock, so a failure or a
// concurrent postpone only affects that tip.
func (s *lifecycleService) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	now = now.UTC()
	inactiveBefore := now.Add(-s.WhistleblowerTTL)

	var (
		wbtips  []model.WhistleblowerTip
		expired []model.InternalTip
	)
	err := s.run(ctx, "Lifecycle.Sweep", func(ctx context.Context, tx repository.Tx) error {
		var err error
		wbtips, err = tx.ListWhistleblowerTips(ctx, repository.WhistleblowerTipFilter{InactiveBefore: &inactiveBefore})
		if err != nil {
			return err
		}
		expired, err = tx.ListInternalTips(ctx, repository.InternalTipFilter{ExpiredBefore: &now})
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &SweepReport{}
	for _, wt := range wbtips {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		removed, err := s.expireWhistleblowerTip(ctx, wt, inactiveBefore)
		if err != nil {
			report.Failed++
			s.Logger.Error("wbtip_expire_failed", err, map[string]any{"internaltip_id": wt.InternalTipID})
			continue
		}
		if removed {
			report.WhistleblowerTips++
			s.Metrics.WhistleblowerTipExpired()
		}
	}

	for _, it := range expired {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		purged, err := s.expireInternalTip(ctx, it.ID, now)
		if err != nil {
			report.Failed++
			s.Logger.Error("tip_expire_failed", err, map[string]any{"internaltip_id": it.ID})
			continue
		}
		if purged != nil {
			report.InternalTips++
			s.Metrics.Cascade("expired")
			s.logPurge("tip_expired", *purged)
		}
	}

	s.Logger.Info("sweep_completed", map[string]any{
		"whistleblowertips": report.WhistleblowerTips,
		"internaltips":      report.InternalTips,
		"failed":            report.Failed,
	})
	return report, nil
}

func (s *lifecycleService) expireWhistleblowerTip(ctx context.Context, wt model.WhistleblowerTip, inactiveBefore time.Time) (bool, error) {
	removed := false
	err := s.run(ctx, "Lifecycle.ExpireWhistleblowerTip", func(ctx context.Context, tx repository.Tx) error {
		it, err := tx.GetInternalTip(ctx, wt.InternalTipID)
		if err != nil {
			if rowErr(err, ErrNotFound) == ErrNotFound {
				return nil
			}
			return rowErr(err, ErrNotFound)
		}
		if !it.WBLastAccess.Before(inactiveBefore) {
			return nil
		}
		n, err := tx.DeleteWhistleblowerTip(ctx, wt.ReceiptHash)
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	return removed, err
}

func (s *lifecycleService) expireInternalTip(ctx context.Context, internalTipID string, now time.Time) (*model.PurgeReport, error) {
	var report *model.PurgeReport
	err := s.run(ctx, "Lifecycle.ExpireInternalTip", func(ctx context.Context, tx repository.Tx) error {
		it, err := tx.GetInternalTip(ctx, internalTipID)
		if err != nil {
			if rowErr(err, ErrNotFound) == ErrNotFound {
				return nil
			}
			return rowErr(err, ErrNotFound)
		}
		if !it.ExpirationDate.Before(now) {
			return nil
		}
		r, err := s.purgeInternalTip(ctx, tx, it.ID)
		if err != nil {
			return err
		}
		report = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *lifecycleService) Counts(ctx context.Context) (model.Counts, error) {
	var out model.Counts
	err := s.run(ctx, "Lifecycle.Counts", func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.Counts(ctx)
		return err
	})
	return out, err
}

func (s *lifecycleService) ListInternalTips(ctx context.Context) ([]model.InternalTip, error) {
	var out []model.InternalTip
	err := s.run(ctx, "Lifecycle.ListInternalTips", func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListInternalTips(ctx, repository.InternalTipFilter{})
		return err
	})
	return out, err
}

func (s *lifecycleService) ListByContext(ctx context.Context, contextID string) ([]model.ContextBundle, error) {
	if contextID == "" {
		return nil, ErrIDRequired
	}
	out := make([]model.ContextBundle, 0)
	err := s.run(ctx, "Lifecycle.ListByContext", func(ctx context.Context, tx repository.Tx) error {
		tips, err := tx.ListInternalTips(ctx, repository.InternalTipFilter{ContextID: contextID})
		if err != nil {
			return err
		}
		for _, it := range tips {
			b := model.ContextBundle{InternalTip: it}
			if b.ReceiverTips, err = tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: it.ID}); err != nil {
				return err
			}
			if b.WhistleblowerTips, err = tx.ListWhistleblowerTips(ctx, repository.WhistleblowerTipFilter{InternalTipID: it.ID}); err != nil {
				return err
			}
			if b.Comments, err = tx.ListComments(ctx, repository.CommentFilter{InternalTipID: it.ID}); err != nil {
				return err
			}
			if b.Files, err = tx.ListFiles(ctx, repository.FileFilter{InternalTipID: it.ID}); err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
