//go:build unix

package queuestore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lock toma un flock sobre <cola>.lock. El documento se reemplaza con rename, por eso el
// bloqueo vive en un archivo vecino que nunca cambia de inodo.
func (f *fileBackend) lock(exclusive bool) (func(), error) {
	lf, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("queuestore: abrir bloqueo: %w", err)
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	for {
		err = unix.Flock(int(lf.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("queuestore: flock: %w", err)
	}
	return func() {
		_ = unix.Flock(int(lf.Fd()), unix.LOCK_UN)
		_ = lf.Close()
	}, nil
}
