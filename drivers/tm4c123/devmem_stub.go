//go:build !linux

package tm4c123

import "github.com/pkg/errors"

// DevMem is only available on Linux hosts.
type DevMem struct{}

func OpenDevMem(base, size uint32) (*DevMem, error) {
	return nil, errors.New("devmem: /dev/mem mapping requires linux")
}

func (d *DevMem) Load(addr uint32) uint32     { return 0 }
func (d *DevMem) Store(addr uint32, v uint32) {}
func (d *DevMem) Close() error                { return nil }
