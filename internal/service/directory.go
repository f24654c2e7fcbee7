package service

import (
	"context"
	"fmt"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// DirectoryService maintains the contexts and receivers tips refer to.
type DirectoryService interface {
	GetContext(ctx context.Context, id string) (*model.Context, error)
	SaveContext(ctx context.Context, c model.Context) (*model.Context, error)
	GetReceiver(ctx context.Context, id string) (*model.Receiver, error)
	SaveReceiver(ctx context.Context, r model.Receiver) (*model.Receiver, error)
}

type directoryService struct {
	*core
}

func (s *directoryService) GetContext(ctx context.Context, id string) (*model.Context, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	var out model.Context
	err := s.run(ctx, "Directory.GetContext", func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetContext(ctx, id)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *directoryService) SaveContext(ctx context.Context, c model.Context) (*model.Context, error) {
	if c.ID == "" {
		return nil, ErrIDRequired
	}
	if c.TipTimeToLiveDays < 0 {
		return nil, invalid("negative tip lifetime")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	err := s.run(ctx, "Directory.SaveContext", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.SaveContext(ctx, &c); err != nil {
			return fmt.Errorf("save context: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *directoryService) GetReceiver(ctx context.Context, id string) (*model.Receiver, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	var out model.Receiver
	err := s.run(ctx, "Directory.GetReceiver", func(ctx context.Context, tx repository.Tx) error {
		r, err := tx.GetReceiver(ctx, id)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}
		out = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *directoryService) SaveReceiver(ctx context.Context, r model.Receiver) (*model.Receiver, error) {
	if r.ID == "" {
		return nil, ErrIDRequired
	}
	if r.Level < 0 {
		return nil, invalid("negative receiver level")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	err := s.run(ctx, "Directory.SaveReceiver", func(ctx context.Context, tx repository.Tx) error {
		if err := tx.SaveReceiver(ctx, &r); err != nil {
			return fmt.Errorf("save receiver: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
