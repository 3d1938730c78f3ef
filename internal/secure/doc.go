// Package secure keeps fetched secret payloads encrypted while they wait
// in memory between fetch and projection.
//
// It wraps the memguard library: payloads are sealed into enclaves
// (XSalsa20Poly1305, mlock-backed, guard-paged) right after fetch and only
// decrypted for the duration of one callback:
//
//	p := secure.NewPayload(raw)
//	defer p.Destroy()
//
//	err := p.Expose(func(value string) error {
//	    return handler.Apply(name, value)
//	})
//
// The plaintext buffer is wiped when the callback returns. Values the
// callback keeps (decoded JSON fields, for instance) are its own copies.
//
// If mlock is unavailable (RLIMIT_MEMLOCK on Linux), memguard degrades to
// standard memory; the encryption at rest still holds. Call secure.Purge
// from a defer in main so all enclaves are wiped on exit.
package secure
