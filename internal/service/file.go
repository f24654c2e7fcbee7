package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
	"whistlebox/internal/storage"
)

const downloadLinkTTL = 15 * time.Minute

// FileInput is the metadata reported by the upload collaborator once content
// is stored under StorageKey.
type FileInput struct {
	Name        string `json:"name"`
	Checksum    string `json:"sha2sum"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	StorageKey  string `json:"storage_key"`
}

// DownloadLink is a receiver file with a short-lived URL to its content.
type DownloadLink struct {
	File      model.ReceiverFile `json:"file"`
	Name      string             `json:"name"`
	URL       string             `json:"url,omitempty"`
	ExpiresIn int                `json:"expires_in,omitempty"`
}

// FileService is the attachment ledger. Content bytes never pass through it.
type FileService interface {
	Register(ctx context.Context, internalTipID string, in FileInput) (*model.File, error)
	Get(ctx context.Context, fileID string) (*model.File, error)
	ListAll(ctx context.Context) ([]model.File, error)
	// ListByMark accepts "new", "ready", "blocked" and the alias
	// "not processed".
	ListByMark(ctx context.Context, mark string) ([]model.File, error)
	ListByInternalTip(ctx context.Context, internalTipID string) ([]model.File, error)
	SetMark(ctx context.Context, fileID, mark string) error
	// DeleteByInternalTip removes the files of a tip and their receiver
	// copies, queueing their content for secure deletion.
	DeleteByInternalTip(ctx context.Context, internalTipID string) (int64, error)
	// Deliver creates missing receiver copies for every deliverable file.
	Deliver(ctx context.Context, internalTipID string) (int, error)
	ListReceiverFiles(ctx context.Context, receiverTipID string) ([]model.ReceiverFile, error)
	Download(ctx context.Context, receiverTipID, receiverFileID string) (*DownloadLink, error)
}

type fileService struct {
	*core
}

// receiverCopyKey names the per-receiver copy of a stored file.
func receiverCopyKey(fileKey, receiverTipID string) string {
	return fileKey + "/" + receiverTipID
}

func (s *fileService) Register(ctx context.Context, internalTipID string, in FileInput) (*model.File, error) {
	if in.Name == "" {
		return nil, invalid("file name is required")
	}
	if in.StorageKey == "" {
		return nil, invalid("storage key is required")
	}
	if in.Size < 0 {
		return nil, invalid("negative file size")
	}

	info, err := s.Storage.Stat(ctx, in.StorageKey)
	switch {
	case err == nil:
		if in.Size == 0 {
			in.Size = info.Size
		}
		if in.ContentType == "" {
			in.ContentType = info.ContentType
		}
	case errors.Is(err, storage.ErrNotConfigured):
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, invalid("no stored object under %q", in.StorageKey)
	default:
		return nil, fmt.Errorf("stat %s: %w", in.StorageKey, err)
	}

	var out model.File
	err = s.run(ctx, "File.Register", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.getInternalTip(ctx, tx, internalTipID); err != nil {
			return err
		}
		f := &model.File{
			ID:            s.IDs.New(),
			InternalTipID: internalTipID,
			Name:          in.Name,
			Checksum:      in.Checksum,
			Size:          in.Size,
			ContentType:   in.ContentType,
			Description:   in.Description,
			Mark:          model.FileMarkNew,
			Completed:     in.Completed,
			UploadedAt:    s.now(),
			StorageKey:    in.StorageKey,
		}
		if err := tx.CreateFile(ctx, f); err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		out = *f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *fileService) Get(ctx context.Context, fileID string) (*model.File, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	var out model.File
	err := s.run(ctx, "File.Get", func(ctx context.Context, tx repository.Tx) error {
		f, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}
		out = *f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *fileService) list(ctx context.Context, op string, f repository.FileFilter) ([]model.File, error) {
	var out []model.File
	err := s.run(ctx, op, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListFiles(ctx, f)
		return err
	})
	return out, err
}

func (s *fileService) ListAll(ctx context.Context) ([]model.File, error) {
	return s.list(ctx, "File.ListAll", repository.FileFilter{})
}

func (s *fileService) ListByMark(ctx context.Context, mark string) ([]model.File, error) {
	m, ok := model.ParseFileMark(mark)
	if !ok {
		return nil, invalid("file mark %q", mark)
	}
	return s.list(ctx, "File.ListByMark", repository.FileFilter{Mark: m})
}

func (s *fileService) ListByInternalTip(ctx context.Context, internalTipID string) ([]model.File, error) {
	if internalTipID == "" {
		return nil, ErrIDRequired
	}
	return s.list(ctx, "File.ListByInternalTip", repository.FileFilter{InternalTipID: internalTipID})
}

// fileMarkAllowed lists the supported transitions. A blocked file stays
// blocked and a ready file never goes back to new.
func fileMarkAllowed(from, to model.FileMark) bool {
	if from == to {
		return true
	}
	switch from {
	case model.FileMarkNew:
		return to == model.FileMarkReady || to == model.FileMarkBlocked
	case model.FileMarkReady:
		return to == model.FileMarkBlocked
	}
	return false
}

func (s *fileService) SetMark(ctx context.Context, fileID, mark string) error {
	m, ok := model.ParseFileMark(mark)
	if !ok {
		return invalid("file mark %q", mark)
	}
	if fileID == "" {
		return ErrIDRequired
	}
	return s.run(ctx, "File.SetMark", func(ctx context.Context, tx repository.Tx) error {
		f, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}
		if !fileMarkAllowed(f.Mark, m) {
			return fmt.Errorf("%w: file mark %s to %s", ErrUnimplemented, f.Mark, m)
		}
		f.Mark = m
		return rowErr(tx.UpdateFile(ctx, f), ErrNotFound)
	})
}

func (s *fileService) DeleteByInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	if internalTipID == "" {
		return 0, ErrIDRequired
	}
	var n int64
	err := s.run(ctx, "File.DeleteByInternalTip", func(ctx context.Context, tx repository.Tx) error {
		if err := s.lockSubmission(ctx, tx, internalTipID); err != nil {
			return err
		}
		files, err := tx.ListFiles(ctx, repository.FileFilter{InternalTipID: internalTipID})
		if err != nil {
			return err
		}
		keys, err := s.receiverFileKeys(ctx, tx, repository.ReceiverFileFilter{InternalTipID: internalTipID})
		if err != nil {
			return err
		}
		for _, f := range files {
			keys = append(keys, f.StorageKey)
		}
		if _, err := tx.DeleteReceiverFiles(ctx, repository.ReceiverFileFilter{InternalTipID: internalTipID}); err != nil {
			return fmt.Errorf("delete receiver files: %w", err)
		}
		if n, err = tx.DeleteFiles(ctx, internalTipID); err != nil {
			return fmt.Errorf("delete files: %w", err)
		}
		_, err = s.queueSecureDeletes(ctx, tx, keys)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *fileService) Deliver(ctx context.Context, internalTipID string) (int, error) {
	created := 0
	err := s.run(ctx, "File.Deliver", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.getInternalTip(ctx, tx, internalTipID); err != nil {
			return err
		}
		files, err := tx.ListFiles(ctx, repository.FileFilter{InternalTipID: internalTipID})
		if err != nil {
			return err
		}
		rts, err := tx.ListReceiverTips(ctx, repository.ReceiverTipFilter{InternalTipID: internalTipID})
		if err != nil {
			return err
		}
		existing, err := tx.ListReceiverFiles(ctx, repository.ReceiverFileFilter{InternalTipID: internalTipID})
		if err != nil {
			return err
		}
		have := make(map[[2]string]bool, len(existing))
		for _, rf := range existing {
			have[[2]string{rf.FileID, rf.ReceiverTipID}] = true
		}

		now := s.now()
		for i := range files {
			f := &files[i]
			if f.Mark == model.FileMarkBlocked {
				continue
			}
			status := model.ReceiverFileProcessing
			if f.Completed {
				status = model.ReceiverFileDelivered
			}
			for _, rt := range rts {
				if have[[2]string{f.ID, rt.ID}] {
					continue
				}
				rf := &model.ReceiverFile{
					ID:            s.IDs.New(),
					FileID:        f.ID,
					ReceiverTipID: rt.ID,
					InternalTipID: internalTipID,
					Status:        status,
					CreatedAt:     now,
					StorageKey:    receiverCopyKey(f.StorageKey, rt.ID),
				}
				if err := tx.CreateReceiverFile(ctx, rf); err != nil {
					return fmt.Errorf("create receiver file: %w", err)
				}
				created++
			}
			if f.Mark != model.FileMarkReady {
				f.Mark = model.FileMarkReady
				if err := tx.UpdateFile(ctx, f); err != nil {
					return rowErr(err, ErrNotFound)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *fileService) ListReceiverFiles(ctx context.Context, receiverTipID string) ([]model.ReceiverFile, error) {
	var out []model.ReceiverFile
	err := s.run(ctx, "File.ListReceiverFiles", func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.getReceiverTip(ctx, tx, receiverTipID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListReceiverFiles(ctx, repository.ReceiverFileFilter{ReceiverTipID: receiverTipID})
		return err
	})
	return out, err
}

// Download counts a download and signs a link to the receiver's copy. When no
// object store is configured the link is omitted.
func (s *fileService) Download(ctx context.Context, receiverTipID, receiverFileID string) (*DownloadLink, error) {
	if receiverFileID == "" {
		return nil, ErrIDRequired
	}
	var out DownloadLink
	err := s.run(ctx, "File.Download", func(ctx context.Context, tx repository.Tx) error {
		rt, err := s.getReceiverTip(ctx, tx, receiverTipID)
		if err != nil {
			return err
		}
		rf, err := tx.GetReceiverFile(ctx, receiverFileID)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}
		if rf.ReceiverTipID != rt.ID {
			return ErrForbidden
		}
		f, err := tx.GetFile(ctx, rf.FileID)
		if err != nil {
			return rowErr(err, ErrNotFound)
		}

		now := s.now()
		rf.Downloads++
		rf.LastAccess = &now
		if err := tx.UpdateReceiverFile(ctx, rf); err != nil {
			return rowErr(err, ErrNotFound)
		}

		url, err := s.Storage.PresignGet(ctx, rf.StorageKey, downloadLinkTTL)
		switch {
		case err == nil:
			out.URL = url
			out.ExpiresIn = int(downloadLinkTTL.Seconds())
		case errors.Is(err, storage.ErrNotConfigured):
		default:
			return fmt.Errorf("presign %s: %w", rf.ID, err)
		}
		out.File = *rf
		out.Name = f.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
