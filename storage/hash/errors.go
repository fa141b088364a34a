package hash

import "errors"

var (
	errLocalDepthTooDeep = errors.New("bucket local depth exceeds global depth")
	errDirectorySharing  = errors.New("directory slots sharing a bucket disagree in low bits")
)
