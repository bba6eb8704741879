package store

import (
	"time"

	"fintrack/internal/models"
)

// pendingEdit is an optimistic update whose outcome is not known yet.
type pendingEdit struct {
	seq   uint64
	patch models.TransactionPatch
	at    time.Time
}

// editLog tracks one transaction while updates to it are in flight.
// confirmed is the last value known to the service; edits started after
// confirmedSeq are shown on top of it.
type editLog struct {
	confirmed    models.Transaction
	confirmedSeq uint64
	edits        []pendingEdit
}

func (l *editLog) view() models.Transaction {
	tx := l.confirmed
	for _, e := range l.edits {
		if e.seq > l.confirmedSeq {
			tx = e.patch.Apply(tx)
			tx.UpdatedAt = e.at
		}
	}
	return tx
}

func (l *editLog) remove(seq uint64) {
	kept := l.edits[:0]
	for _, e := range l.edits {
		if e.seq != seq {
			kept = append(kept, e)
		}
	}
	l.edits = kept
}

// Edit logs are guarded by the root lock: every method runs inside apply.

// beginEdit records p against id and shows it. It reports false when id is
// not in the collection.
func (t *TransactionStore) beginEdit(s *State, id string, p models.TransactionPatch, at time.Time) (uint64, bool) {
	cur, ok := findID(s.Transactions.Items, id, transactionID)
	if !ok {
		return 0, false
	}
	if t.edits == nil {
		t.edits = make(map[string]*editLog)
	}
	l := t.edits[id]
	if l == nil {
		l = &editLog{confirmed: cur, confirmedSeq: t.editSeq}
		t.edits[id] = l
	}
	t.editSeq++
	l.edits = append(l.edits, pendingEdit{seq: t.editSeq, patch: p, at: at})
	s.Transactions.Items = upsert(s.Transactions.Items, l.view(), transactionID)
	return t.editSeq, true
}

// settleEdit ends the edit seq. A non-nil confirmed value is the service's
// answer: it becomes the new base and is shown as is, the last settled update
// wins. Otherwise the edit is dropped and the transaction is rebuilt from the
// confirmed value and the edits still pending.
func (t *TransactionStore) settleEdit(s *State, id string, seq uint64, confirmed *models.Transaction) {
	l := t.edits[id]
	if l == nil {
		if confirmed != nil {
			s.Transactions.Items = upsert(s.Transactions.Items, *confirmed, transactionID)
		}
		return
	}
	l.remove(seq)
	if confirmed != nil {
		l.confirmed = *confirmed
		l.confirmedSeq = t.editSeq
	}
	if _, ok := findID(s.Transactions.Items, id, transactionID); ok || confirmed != nil {
		s.Transactions.Items = upsert(s.Transactions.Items, l.view(), transactionID)
	}
	if len(l.edits) == 0 {
		delete(t.edits, id)
	}
}

// observeRead rebases edit logs on values freshly read from the service.
// Edits already pending are assumed to be reflected by the read.
func (t *TransactionStore) observeRead(s *State, read []models.Transaction) {
	for _, tx := range read {
		l := t.edits[tx.ID]
		if l == nil {
			continue
		}
		l.confirmed = tx
		l.confirmedSeq = t.editSeq
		s.Transactions.Items = upsert(s.Transactions.Items, l.view(), transactionID)
	}
}

func (t *TransactionStore) forgetEdits() {
	t.edits = nil
}
