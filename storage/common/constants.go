package common

// Page geometry and reserved identifiers. PageSize is a compile-time
// constant; every on-disk structure in this module is laid out against it.
const (
	// PageSize 数据页大小（字节）
	PageSize = 512

	// InvalidPageID marks an absent page reference on disk and in memory.
	InvalidPageID PageID = -1

	// HeaderPageID is the reserved catalog page holding index roots.
	HeaderPageID PageID = 0

	// BucketSize is the default extendible hash bucket capacity.
	BucketSize = 50

	// InvalidLSN 无效的日志序列号
	InvalidLSN LSN = -1

	// InvalidTxnID marks the absence of a transaction.
	InvalidTxnID TxnID = -1
)
