package dataset

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset is the legacy single-byte charset the source exports use.
// Any IANA charset name is accepted in its place, including "utf-8".
const DefaultCharset = "windows-1251"

// lookupCharset resolves an IANA charset name to its encoding.
func lookupCharset(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	return enc, nil
}
