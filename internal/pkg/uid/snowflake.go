package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time ordered int64 ids.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake derives the node number from the host identity so replicas do
// not collide.
func NewSnowflake() (*Snowflake, error) {
	src, err := nodeIdentity()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(src))
	nodeNum := int64(binary.BigEndian.Uint16(sum[:2])) % 1024

	node, err := snowflake.NewNode(nodeNum)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func hostPID() uint16 {
	return uint16(os.Getpid())
}
