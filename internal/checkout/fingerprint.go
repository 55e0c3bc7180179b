package checkout

import (
    "crypto/rand"
    "encoding/hex"
    "encoding/json"

    "golang.org/x/crypto/blake2b"

    "github.com/iliyamo/event-ticket-storefront/internal/backend"
)

// Fingerprinter hashes checkout content with a process-wide secret key so
// fingerprints can be logged without exposing buyer contact details.
type Fingerprinter struct {
    key []byte
}

// NewFingerprinter returns a Fingerprinter keyed with key.  Keys longer
// than blake2b.Size are reduced with an unkeyed hash first; an empty key
// gets a random one.
func NewFingerprinter(key []byte) *Fingerprinter {
    switch {
    case len(key) == 0:
        key = make([]byte, 32)
        _, _ = rand.Read(key)
    case len(key) > blake2b.Size:
        sum := blake2b.Sum256(key)
        key = sum[:]
    }
    return &Fingerprinter{key: key}
}

// Fingerprint returns a deterministic digest of the preference request.
// encoding/json writes map keys in sorted order, so selectedMenus does not
// depend on insertion order.
func (f *Fingerprinter) Fingerprint(req backend.PreferenceRequest) string {
    b, err := json.Marshal(req)
    if err != nil {
        return ""
    }
    h, err := blake2b.New256(f.key)
    if err != nil {
        return ""
    }
    _, _ = h.Write(b)
    return hex.EncodeToString(h.Sum(nil))
}
