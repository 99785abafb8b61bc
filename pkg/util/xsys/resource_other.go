//go:build !unix

package xsys

// SetFileLimit 非 Unix 平台返回 [ErrUnsupportedPlatform]
func SetFileLimit(limit uint64) error {
	if limit == 0 {
		return ErrInvalidFileLimit
	}
	return ErrUnsupportedPlatform
}

// RaiseFileLimit 非 Unix 平台返回 [ErrUnsupportedPlatform]
func RaiseFileLimit(uint64) (before, after uint64, err error) {
	return 0, 0, ErrUnsupportedPlatform
}

// GetFileLimit 非 Unix 平台返回 [ErrUnsupportedPlatform]
func GetFileLimit() (soft, hard uint64, err error) {
	return 0, 0, ErrUnsupportedPlatform
}
