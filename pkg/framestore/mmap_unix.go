//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package framestore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(path string, protection Protection, length int) ([]byte, error) {
	flag, prot := os.O_RDONLY, unix.PROT_READ
	if protection == ReadWrite {
		flag, prot = os.O_RDWR, unix.PROT_READ|unix.PROT_WRITE
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	// The mapping keeps its own reference to the file.
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	if info.Size() != int64(length) {
		return nil, fmt.Errorf("%w: %s: size %d, expected %d", ErrIO, path, info.Size(), length)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, length, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrIO, path, err)
	}
	return data, nil
}

func unmapFile(data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}

func syncMapping(data []byte) error {
	if data == nil {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}
