//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package framestore

import "fmt"

func mapFile(path string, protection Protection, length int) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, ErrPlatformNotSupported)
}

func unmapFile(data []byte) error {
	return nil
}

func syncMapping(data []byte) error {
	return nil
}
