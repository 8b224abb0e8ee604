package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrNoNodeIdentity indicates that neither machine-id nor hostname is available.
var ErrNoNodeIdentity = errors.New("uid: cannot determine stable node identity")

// ObjectID generates 64 character hex ids: 6 bytes of millisecond time,
// 6 bytes of node, 2 bytes of pid, 4 bytes of counter and 14 random bytes.
// The random tail makes ids unguessable, which matters for verification ids.
type ObjectID struct {
	node    [6]byte
	pid     uint16
	counter atomic.Uint32
	now     func() time.Time
}

// NewObjectID builds a generator bound to this host.
func NewObjectID() (*ObjectID, error) {
	src, err := nodeIdentity()
	if err != nil {
		return nil, err
	}

	g := &ObjectID{pid: hostPID(), now: time.Now}
	sum := sha256.Sum256([]byte(src))
	copy(g.node[:], sum[:6])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter.Store(binary.BigEndian.Uint32(seed[:]))

	return g, nil
}

// Generate returns the next id.
func (g *ObjectID) Generate() string {
	var raw [32]byte

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(g.now().UnixMilli()))
	copy(raw[0:6], ts[2:])
	copy(raw[6:12], g.node[:])
	binary.BigEndian.PutUint16(raw[12:14], g.pid)
	binary.BigEndian.PutUint32(raw[14:18], g.counter.Add(1))

	if _, err := rand.Read(raw[18:]); err != nil {
		sum := sha256.Sum256(raw[:18])
		copy(raw[18:], sum[:14])
	}

	return hex.EncodeToString(raw[:])
}

func nodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrNoNodeIdentity
}
