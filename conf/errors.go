package conf

import "errors"

var (
	ErrMissingDataPath   = errors.New("data_dir and data_file are required")
	ErrInvalidPoolSize   = errors.New("pool_size must be positive")
	ErrInvalidBucketSize = errors.New("bucket_size must be positive")
)
