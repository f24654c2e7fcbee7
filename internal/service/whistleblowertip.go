package service

import (
	"context"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// WhistleblowerTipService manages the anonymous source's view of a submission.
// Every lookup goes through the receipt; the plaintext receipt is never
// stored.
type WhistleblowerTipService interface {
	// CreateForSubmission returns the receipt of the new tip.
	CreateForSubmission(ctx context.Context, internalTipID string) (string, error)
	Read(ctx context.Context, receipt string) (*model.WhistleblowerTipDetail, error)
	DeleteSelf(ctx context.Context, receipt string) error
	// DeleteForInternalTip removes zero or one tip.
	DeleteForInternalTip(ctx context.Context, internalTipID string) (int64, error)
	ListAll(ctx context.Context) ([]model.WhistleblowerTip, error)
	// InternalTipID resolves a receipt without touching access times.
	InternalTipID(ctx context.Context, receipt string) (string, error)
}

type whistleblowerTipService struct {
	*core
}

func (c *core) lookupReceipt(ctx context.Context, tx repository.Tx, receipt string) (*model.WhistleblowerTip, error) {
	if receipt == "" {
		c.Metrics.ReceiptMiss()
		return nil, ErrReceiptNotFound
	}
	hash, err := c.HashReceipt(c.ReceiptSalt, receipt)
	if err != nil {
		return nil, err
	}
	miss := func(err error) error {
		err = rowErr(err, ErrReceiptNotFound)
		if err == ErrReceiptNotFound {
			c.Metrics.ReceiptMiss()
		}
		return err
	}
	// Lock the internal tip before the whistleblower tip.
	parent, err := tx.WhistleblowerTipParent(ctx, hash)
	if err != nil {
		return nil, miss(err)
	}
	if _, err := tx.GetInternalTip(ctx, parent); err != nil {
		return nil, miss(err)
	}
	wt, err := tx.GetWhistleblowerTip(ctx, hash)
	if err != nil {
		return nil, miss(err)
	}
	return wt, nil
}

func (s *whistleblowerTipService) CreateForSubmission(ctx context.Context, internalTipID string) (string, error) {
	var receipt string
	err := s.run(ctx, "WhistleblowerTip.CreateForSubmission", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.getInternalTip(ctx, tx, internalTipID); err != nil {
			return err
		}
		var err error
		receipt, err = s.createWhistleblowerTip(ctx, tx, internalTipID)
		return err
	})
	if err != nil {
		return "", err
	}
	return receipt, nil
}

func (s *whistleblowerTipService) Read(ctx context.Context, receipt string) (*model.WhistleblowerTipDetail, error) {
	var out model.WhistleblowerTipDetail
	err := s.run(ctx, "WhistleblowerTip.Read", func(ctx context.Context, tx repository.Tx) error {
		wt, err := s.lookupReceipt(ctx, tx, receipt)
		if err != nil {
			return err
		}
		it, err := s.getInternalTip(ctx, tx, wt.InternalTipID)
		if err != nil {
			return err
		}

		now := s.now()
		wt.LastAccess = &now
		if err := tx.UpdateWhistleblowerTip(ctx, wt); err != nil {
			return rowErr(err, ErrReceiptNotFound)
		}
		it.WBLastAccess = now
		if err := tx.UpdateInternalTip(ctx, it); err != nil {
			return rowErr(err, ErrNotFound)
		}

		rts, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: it.ID})
		if err != nil {
			return err
		}
		refs := make([]model.ReceiverRef, 0, len(rts))
		for _, rt := range rts {
			ref := model.ReceiverRef{ID: rt.ReceiverID}
			if r, err := tx.GetReceiver(ctx, rt.ReceiverID); err == nil {
				ref.Name = r.Name
			}
			refs = append(refs, ref)
		}

		out = model.WhistleblowerTipDetail{
			ID:             receipt,
			InternalTipID:  it.ID,
			ContextID:      it.ContextID,
			CreationDate:   it.CreatedAt,
			ExpirationDate: it.ExpirationDate,
			LastAccess:     wt.LastAccess,
			Receivers:      refs,
			Answers:        it.Answers,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *whistleblowerTipService) DeleteSelf(ctx context.Context, receipt string) error {
	return s.run(ctx, "WhistleblowerTip.DeleteSelf", func(ctx context.Context, tx repository.Tx) error {
		wt, err := s.lookupReceipt(ctx, tx, receipt)
		if err != nil {
			return err
		}
		n, err := tx.DeleteWhistleblowerTip(ctx, wt.ReceiptHash)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrReceiptNotFound
		}
		return nil
	})
}

func (s *whistleblowerTipService) DeleteForInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	if internalTipID == "" {
		return 0, ErrIDRequired
	}
	var n int64
	err := s.run(ctx, "WhistleblowerTip.DeleteForInternalTip", func(ctx context.Context, tx repository.Tx) error {
		if err := s.lockSubmission(ctx, tx, internalTipID); err != nil {
			return err
		}
		var err error
		n, err = tx.DeleteWhistleblowerTips(ctx, internalTipID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *whistleblowerTipService) ListAll(ctx context.Context) ([]model.WhistleblowerTip, error) {
	var out []model.WhistleblowerTip
	err := s.run(ctx, "WhistleblowerTip.ListAll", func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListWhistleblowerTips(ctx, repository.WhistleblowerTipFilter{})
		return err
	})
	return out, err
}

func (s *whistleblowerTipService) InternalTipID(ctx context.Context, receipt string) (string, error) {
	var id string
	err := s.run(ctx, "WhistleblowerTip.InternalTipID", func(ctx context.Context, tx repository.Tx) error {
		wt, err := s.lookupReceipt(ctx, tx, receipt)
		if err != nil {
			return err
		}
		id = wt.InternalTipID
		return nil
	})
	return id, err
}
