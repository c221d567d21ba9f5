package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// epoch is the start of the id space. Dataset and user ids minted by
// different replicas stay ordered by creation time.
var epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxNodeID matches the default 10 node bits of bwmarrin/snowflake.
const maxNodeID = 1<<10 - 1

// Snowflake generates time-ordered int64 ids for datasets and users.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for the given node. Replicas sharing a
// database must use distinct nodes; a node of 0 picks a random one, which is
// what a single instance wants.
func NewSnowflake(node int64) (*Snowflake, error) {
	if node < 0 || node > maxNodeID {
		return nil, fmt.Errorf("snowflake node %d out of range 0..%d", node, maxNodeID)
	}
	if node == 0 {
		var err error
		if node, err = randomNode(); err != nil {
			return nil, err
		}
	}

	snowflake.Epoch = epoch.UnixMilli()

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// CreatedAt recovers the mint time embedded in an id.
func CreatedAt(id int64) time.Time {
	return time.UnixMilli(snowflake.ID(id).Time()).UTC()
}

func randomNode() (int64, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random node: %w", err)
	}
	return int64(binary.BigEndian.Uint16(b[:]))&maxNodeID | 1, nil
}
