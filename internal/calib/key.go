package calib

import (
	"regexp"
	"strings"
)

// WildcardPackage marks a device-wide fallback profile that applies to any
// package on the device.
const WildcardPackage = "*"

// keyStripRe matches characters not allowed in a storage key part.
var keyStripRe = regexp.MustCompile(`[^A-Za-z0-9_.*-]+`)

// maxKeyPartLen caps each sanitized key part so device serials or package
// names of unbounded length cannot produce pathological filenames.
const maxKeyPartLen = 64

// sanitizeKeyPart strips disallowed characters and caps the length.
// An empty or fully-stripped part becomes "_" so the two-part key shape
// is preserved.
func sanitizeKeyPart(s string) string {
	s = keyStripRe.ReplaceAllString(s, "")
	if len(s) > maxKeyPartLen {
		s = s[:maxKeyPartLen]
	}
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}

// ProfileKey builds the storage key for a (deviceId, packageName) pair.
// Distinct pairs can collide after sanitization; the sanitizer is kept pure
// and separately tested so such collisions are at least deterministic.
func ProfileKey(deviceID, packageName string) string {
	return sanitizeKeyPart(deviceID) + "." + sanitizeKeyPart(packageName)
}
