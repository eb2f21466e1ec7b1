package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewRunID 生成新的运行 ID / Generates a new run ID
func NewRunID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("run_%d_%s", time.Now().UTC().Unix(), hex.EncodeToString(buf))
}
