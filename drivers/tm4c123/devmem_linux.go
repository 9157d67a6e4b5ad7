//go:build linux

package tm4c123

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DevMem maps a physical register window through /dev/mem and exposes it as
// driver Memory. Intended for bring-up rigs where the register space of the
// target part is visible in the host's physical address space.
type DevMem struct {
	f     *os.File
	buf   []byte
	first uint32 // first mapped physical address
	limit uint32 // one past the last mapped physical address
}

// OpenDevMem maps [base, base+size) from /dev/mem. The window is widened to
// page boundaries as mmap requires.
func OpenDevMem(base, size uint32) (*DevMem, error) {
	if size == 0 {
		return nil, errors.New("devmem: zero-sized window")
	}
	page := uint32(os.Getpagesize())
	first := base &^ (page - 1)
	span := base + size - first
	if r := span % page; r != 0 {
		span += page - r
	}

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, errors.Wrap(err, "devmem: open /dev/mem")
	}
	buf, err := unix.Mmap(int(f.Fd()), int64(first), int(span),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "devmem: mmap %#x+%#x", first, span)
	}
	return &DevMem{f: f, buf: buf, first: first, limit: first + span}, nil
}

func (d *DevMem) word(addr uint32) *uint32 {
	if addr < d.first || addr+4 > d.limit || addr%4 != 0 {
		panic(errors.Errorf("devmem: access outside mapped window: %#x", addr))
	}
	return (*uint32)(unsafe.Pointer(&d.buf[addr-d.first]))
}

func (d *DevMem) Load(addr uint32) uint32 {
	return *d.word(addr)
}

func (d *DevMem) Store(addr uint32, v uint32) {
	*d.word(addr) = v
}

// Close unmaps the window.
func (d *DevMem) Close() error {
	err := unix.Munmap(d.buf)
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "devmem: close")
}
