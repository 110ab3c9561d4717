package browserenv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// wireLogMaxBytes bounds the frame preview in debug logs. Screenshot
// responses run to megabytes of base64; the hash still identifies them.
const wireLogMaxBytes = 512

func truncateFrame(in []byte, maxBytes int) ([]byte, bool, int, string) {
	if maxBytes <= 0 || len(in) <= maxBytes {
		return in, false, len(in), ""
	}
	sum := sha256.Sum256(in)
	return in[:maxBytes], true, len(in), hex.EncodeToString(sum[:])
}

// logFrame records one CDP frame at debug level, truncated and hashed
// when oversized.
func logFrame(direction string, data []byte) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	preview, truncated, size, sum := truncateFrame(data, wireLogMaxBytes)
	if truncated {
		slog.Debug("cdp frame", "dir", direction, "bytes", size, "sha256", sum, "preview", string(preview))
		return
	}
	slog.Debug("cdp frame", "dir", direction, "bytes", size, "payload", string(preview))
}
