package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// Store implements repository.Store with in-process concurrency safety.
// Transactions are serialized by a single mutex and run against a copy of the
// tables, which replaces the live tables only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	data *tables
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*Tx)(nil)
)

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&Tx{t: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

type tables struct {
	contexts      map[string]model.Context
	receivers     map[string]model.Receiver
	internalTips  map[string]model.InternalTip
	receiverTips  map[string]model.ReceiverTip
	wbTips        map[string]model.WhistleblowerTip
	files         map[string]model.File
	receiverFiles map[string]model.ReceiverFile
	comments      map[string]model.Comment
	messages      map[string]model.Message
	secureDeletes map[string]model.SecureFileDelete
}

func newTables() *tables {
	return &tables{
		contexts:      map[string]model.Context{},
		receivers:     map[string]model.Receiver{},
		internalTips:  map[string]model.InternalTip{},
		receiverTips:  map[string]model.ReceiverTip{},
		wbTips:        map[string]model.WhistleblowerTip{},
		files:         map[string]model.File{},
		receiverFiles: map[string]model.ReceiverFile{},
		comments:      map[string]model.Comment{},
		messages:      map[string]model.Message{},
		secureDeletes: map[string]model.SecureFileDelete{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		contexts:      cloneMap(t.contexts, same[model.Context]),
		receivers:     cloneMap(t.receivers, same[model.Receiver]),
		internalTips:  cloneMap(t.internalTips, copyInternalTip),
		receiverTips:  cloneMap(t.receiverTips, copyReceiverTip),
		wbTips:        cloneMap(t.wbTips, copyWhistleblowerTip),
		files:         cloneMap(t.files, same[model.File]),
		receiverFiles: cloneMap(t.receiverFiles, copyReceiverFile),
		comments:      cloneMap(t.comments, same[model.Comment]),
		messages:      cloneMap(t.messages, same[model.Message]),
		secureDeletes: cloneMap(t.secureDeletes, same[model.SecureFileDelete]),
	}
}

func cloneMap[T any](m map[string]T, cp func(T) T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

func same[T any](v T) T { return v }

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInternalTip(it model.InternalTip) model.InternalTip {
	it.Receivers = append(model.StringList{}, it.Receivers...)
	if it.Answers != nil {
		it.Answers = append(json.RawMessage{}, it.Answers...)
	}
	return it
}

func copyReceiverTip(rt model.ReceiverTip) model.ReceiverTip {
	rt.LastAccess = copyTime(rt.LastAccess)
	rt.NotificationDate = copyTime(rt.NotificationDate)
	rt.AuthOptions = rt.AuthOptions.Clone()
	return rt
}

func copyWhistleblowerTip(wt model.WhistleblowerTip) model.WhistleblowerTip {
	wt.LastAccess = copyTime(wt.LastAccess)
	wt.AuthOptions = wt.AuthOptions.Clone()
	return wt
}

func copyReceiverFile(rf model.ReceiverFile) model.ReceiverFile {
	rf.LastAccess = copyTime(rf.LastAccess)
	return rf
}

// collect returns copies of the values accepted by keep, ordered by
// (created, id).
func collect[T any](m map[string]T, keep func(T) bool, key func(T) (time.Time, string), cp func(T) T) []T {
	out := make([]T, 0)
	for _, v := range m {
		if keep(v) {
			out = append(out, cp(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, idi := key(out[i])
		tj, idj := key(out[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
	return out
}

// deleteWhere removes the values accepted by match and returns how many went.
func deleteWhere[T any](m map[string]T, match func(T) bool) int64 {
	var n int64
	for k, v := range m {
		if match(v) {
			delete(m, k)
			n++
		}
	}
	return n
}

func anyWhere[T any](m map[string]T, match func(T) bool) bool {
	for _, v := range m {
		if match(v) {
			return true
		}
	}
	return false
}
