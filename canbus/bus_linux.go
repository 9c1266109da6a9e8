//go:build linux

package canbus

import (
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// SocketCANBus is the real adapter: an AF_CAN/SOCK_RAW socket bound to a
// named interface, with a background reader goroutine feeding a bounded
// queue that the tick drains non-blockingly. Grounded on
// onboard/canbus/bus_linux.go's socket setup.
type SocketCANBus struct {
	fd int

	mu    sync.Mutex
	queue *droppingQueue

	closeOnce sync.Once
	done      chan struct{}
}

// NewSocketCANBus opens and binds a raw CAN socket on ifname (e.g. "can0")
// and starts the background reader.
func NewSocketCANBus(ifname string) (*SocketCANBus, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	b := &SocketCANBus{
		fd:    fd,
		queue: newDroppingQueue(queueDepth),
		done:  make(chan struct{}),
	}
	go b.reader()
	return b, nil
}

func (b *SocketCANBus) reader() {
	raw := make([]byte, 16)
	for {
		select {
		case <-b.done:
			return
		default:
		}

		n, err := unix.Read(b.fd, raw)
		if err != nil || n < 16 {
			continue
		}
		f := frameFromRaw(raw)

		b.mu.Lock()
		b.queue.push(f)
		b.mu.Unlock()
	}
}

// Send writes a frame to the wire immediately; SocketCAN's own kernel
// buffer provides the outbound queueing, so no send-side ring is needed.
func (b *SocketCANBus) Send(f Frame) error {
	raw, err := f.toRaw()
	if err != nil {
		return err
	}
	_, err = unix.Write(b.fd, raw)
	return err
}

func (b *SocketCANBus) Recv() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.pop()
}

// Dropped returns the count of received frames discarded because the
// bounded queue was full when they arrived.
func (b *SocketCANBus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Dropped()
}

func (b *SocketCANBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = unix.Close(b.fd)
	})
	return err
}
