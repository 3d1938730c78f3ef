package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a payload is exposed after Destroy.
var ErrDestroyed = errors.New("secure: payload destroyed")

// Payload holds one fetched secret payload encrypted at rest. Safe for
// concurrent use.
type Payload struct {
	enclave *memguard.Enclave

	mu        sync.RWMutex
	destroyed bool
}

// NewPayload seals a payload into a protected enclave. The string -> byte
// conversion copies, so the caller's string is untouched; memguard wipes
// the intermediate copy. Empty payloads (optional secrets that were absent)
// need no enclave; memguard rejects zero-size buffers.
func NewPayload(value string) *Payload {
	if value == "" {
		return &Payload{}
	}
	return &Payload{
		enclave: memguard.NewEnclave([]byte(value)),
	}
}

// Expose decrypts the payload, hands it to fn and wipes the plaintext when
// fn returns. The value string is only valid inside fn; anything kept must
// be a copy (decoding JSON into fresh values qualifies).
func (p *Payload) Expose(fn func(value string) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed {
		return ErrDestroyed
	}
	if p.enclave == nil {
		return fn("")
	}

	locked, err := p.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.String())
}

// Len reports the payload size in bytes without decrypting it.
func (p *Payload) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed || p.enclave == nil {
		return 0
	}
	return p.enclave.Size()
}

// Destroy marks the payload as unusable. Idempotent. The ciphertext is
// left for the collector; it is useless without the enclave key.
func (p *Payload) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.destroyed = true
}

// Purge wipes every enclave and locked buffer in the process. Deferred in
// main so an exit path cannot leak plaintext.
func Purge() {
	memguard.Purge()
}
