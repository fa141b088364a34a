package basic

import (
	"sync/atomic"

	"github.com/zhukovaskychina/xmysql-storage/storage/common"
)

var nextTxnID int32

// Transaction is the handle threaded through index operations. No locking,
// logging or recovery hangs off it yet; it only carries an identity.
type Transaction struct {
	id common.TxnID
}

// NewTransaction issues a transaction handle with a fresh id.
func NewTransaction() *Transaction {
	return &Transaction{id: common.TxnID(atomic.AddInt32(&nextTxnID, 1))}
}

// ID returns the transaction id.
func (t *Transaction) ID() common.TxnID {
	if t == nil {
		return common.InvalidTxnID
	}
	return t.id
}
