//go:build darwin

package netmon

import (
	"context"
	"encoding/binary"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type darwinWatcher struct{}

// NewWatcher creates a macOS-specific watcher using AF_ROUTE sockets.
func NewWatcher() Watcher {
	return &darwinWatcher{}
}

func (w *darwinWatcher) Start(ctx context.Context, callback func(ChangeEvent)) error {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return err
	}

	// Close socket when context is cancelled
	go func() {
		<-ctx.Done()
		unix.Close(fd)
	}()

	log.Debug("Darwin watcher initialized")

	buf := make([]byte, 4096)

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.WithError(err).Warn("Error reading from route socket")
				continue
			}
		}

		// Message header layout shared by rt_msghdr, if_msghdr and ifa_msghdr:
		// - bytes 0-1: msglen
		// - byte 2: version
		// - byte 3: type
		if n < 4 {
			continue
		}
		msgLen := int(binary.LittleEndian.Uint16(buf[0:2]))
		if msgLen < 4 || msgLen > n {
			continue
		}

		reason, ok := reasonForMessage(buf[3])
		if !ok {
			continue
		}

		log.WithFields(log.Fields{
			"msgType": buf[3],
			"reason":  reason,
		}).Trace("Received routing socket event")

		callback(ChangeEvent{Reason: reason})
	}
}

func reasonForMessage(msgType byte) (string, bool) {
	switch int(msgType) {
	case unix.RTM_IFINFO:
		return ReasonIfInfo, true
	case unix.RTM_NEWADDR, unix.RTM_DELADDR:
		return ReasonAddr, true
	case unix.RTM_ADD, unix.RTM_DELETE, unix.RTM_CHANGE:
		return ReasonRoute, true
	default:
		return "", false
	}
}
