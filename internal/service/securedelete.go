package service

import (
	"context"
	"errors"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
	"whistlebox/internal/storage"
)

// DefaultDrainBatch is used when Drain is called with a non-positive batch.
const DefaultDrainBatch = 50

// DrainReport summarizes one secure delete pass.
type DrainReport struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// SecureDeleteService destroys stored content whose rows were removed.
type SecureDeleteService interface {
	// Drain deletes up to batch pending objects. A record is removed only
	// after its object is gone; failed records stay for the next pass.
	Drain(ctx context.Context, batch int) (*DrainReport, error)
}

type secureDeleteService struct {
	*core
}

func (s *secureDeleteService) Drain(ctx context.Context, batch int) (*DrainReport, error) {
	if batch <= 0 {
		batch = DefaultDrainBatch
	}

	var pending []model.SecureFileDelete
	err := s.run(ctx, "SecureDelete.List", func(ctx context.Context, tx repository.Tx) error {
		var err error
		pending, err = tx.ListSecureFileDeletes(ctx, batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &DrainReport{}
	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.destroy(ctx, d); err != nil {
			report.Failed++
			s.Metrics.SecureDelete(false)
			s.Logger.Error("secure_delete_failed", err, map[string]any{"securefiledelete_id": d.ID})
			continue
		}
		report.Deleted++
		s.Metrics.SecureDelete(true)
	}

	if len(pending) > 0 {
		s.Logger.Info("secure_delete_drained", map[string]any{
			"deleted": report.Deleted,
			"failed":  report.Failed,
		})
	}
	return report, nil
}

func (s *secureDeleteService) destroy(ctx context.Context, d model.SecureFileDelete) error {
	if err := s.Storage.Delete(ctx, d.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return err
	}
	return s.run(ctx, "SecureDelete.Remove", func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.DeleteSecureFileDelete(ctx, d.ID)
		return err
	})
}
