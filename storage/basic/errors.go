package basic

import "errors"

// 页面相关错误
var (
	ErrInvalidPageID = errors.New("invalid page ID")
	ErrPageNotFound  = errors.New("page not found in buffer pool")
	ErrPagePinned    = errors.New("page is still pinned")
)

// 缓冲池相关错误
var (
	ErrBufferPoolFull = errors.New("buffer pool is full, all pages pinned")
	ErrInvalidConfig  = errors.New("invalid storage configuration")
)

// 索引相关错误
var (
	ErrIndexNotFound = errors.New("index not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrKeyNotFound   = errors.New("key not found")
	ErrTreeCorrupted = errors.New("tree corrupted")
)

// StorageError 存储层错误结构
type StorageError struct {
	Op  string // 操作名称
	Err error  // 原始错误
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op + ": <nil>"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewError 创建新的存储层错误
func NewError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsBufferPoolFull 检查是否为缓冲池已满错误
func IsBufferPoolFull(err error) bool {
	return errors.Is(err, ErrBufferPoolFull)
}

// IsDuplicateKey 检查是否为重复键错误
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
