package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Separator joins encoded key segments.
const Separator = "/"

// Key is an ordered tuple of primitives. Two encoded keys sort like their
// tuples when the first segment they differ in is fixed width (number, time,
// bool) or is the last segment with no '/' or '%' to escape. A timestamp
// segment under a fixed prefix therefore yields chronological scans. A
// differing string segment followed by more segments is compared together
// with the separator: "a-b/x" sorts before "a/x" because '-' < '/'.
//
// Supported parts: string, int, int32, int64, uint, uint32, uint64, bool, time.Time.
type Key []any

// K builds a Key from its parts.
func K(parts ...any) Key {
	return Key(parts)
}

// Append returns a new key with extra trailing parts.
func (k Key) Append(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// Encode returns the byte-ordered string form of the key.
func (k Key) Encode() string {
	var b strings.Builder
	for i, part := range k {
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(encodePart(part))
	}
	return b.String()
}

// Prefix returns the encoded form used to match every key under k.
// The empty key matches everything.
func (k Key) Prefix() string {
	if len(k) == 0 {
		return ""
	}
	return k.Encode() + Separator
}

func (k Key) String() string { return k.Encode() }

// Equal reports whether both keys encode identically.
func (k Key) Equal(other Key) bool {
	return k.Encode() == other.Encode()
}

// ParseKey splits an encoded key back into its string segments.
// Numeric and time segments come back in their padded textual form.
func ParseKey(encoded string) []string {
	if encoded == "" {
		return nil
	}
	raw := strings.Split(encoded, Separator)
	out := make([]string, len(raw))
	for i, seg := range raw {
		out[i] = unescape(seg)
	}
	return out
}

// KeyFromPath turns a slash separated path ("journal_by_date") into a Key of
// string segments. Empty segments are dropped.
func KeyFromPath(path string) Key {
	var k Key
	for _, seg := range strings.Split(path, Separator) {
		if seg = strings.TrimSpace(seg); seg != "" {
			k = append(k, seg)
		}
	}
	return k
}

// DecodeInt reverses the integer encoding of a single segment.
func DecodeInt(seg string) (int64, error) {
	u, err := strconv.ParseUint(seg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("store: bad integer segment %q: %w", seg, err)
	}
	return int64(u ^ (1 << 63)), nil
}

// DecodeTime reverses the time.Time encoding of a single segment.
func DecodeTime(seg string) (time.Time, error) {
	ms, err := DecodeInt(seg)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func encodePart(part any) string {
	switch v := part.(type) {
	case string:
		return escape(v)
	case int:
		return encodeInt(int64(v))
	case int32:
		return encodeInt(int64(v))
	case int64:
		return encodeInt(v)
	case uint:
		return encodeUint(uint64(v))
	case uint32:
		return encodeUint(uint64(v))
	case uint64:
		return encodeUint(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return encodeInt(v.UnixMilli())
	default:
		panic(fmt.Sprintf("store: unsupported key part type %T", part))
	}
}

// encodeInt flips the sign bit so negative values sort before positive ones.
func encodeInt(v int64) string {
	return encodeUint(uint64(v) ^ (1 << 63))
}

func encodeUint(v uint64) string {
	s := strconv.FormatUint(v, 10)
	if len(s) >= 20 {
		return s
	}
	return strings.Repeat("0", 20-len(s)) + s
}

func escape(s string) string {
	if !strings.ContainsAny(s, "%/") {
		return s
	}
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, "/", "%2F")
}

func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	s = strings.ReplaceAll(s, "%2F", "/")
	return strings.ReplaceAll(s, "%25", "%")
}
