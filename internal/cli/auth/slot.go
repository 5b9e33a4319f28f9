package auth

import "errors"

// Slot is the single durable credential slot of one server.
// Readers call Load on every use; only the session store writes it.
type Slot struct {
	Store  TokenStore
	Server string
}

// NewSlot binds a token store to a server key. A nil store is the OS keyring.
func NewSlot(store TokenStore, server string) Slot {
	if store == nil {
		store = Default
	}
	return Slot{Store: store, Server: server}
}

// Load returns the stored token, or "" when the slot is empty.
func (s Slot) Load() (string, error) {
	token, err := s.Store.LoadToken(s.Server)
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	return token, err
}

func (s Slot) Save(token string) error {
	return s.Store.SaveToken(s.Server, token)
}

func (s Slot) Delete() error {
	return s.Store.DeleteToken(s.Server)
}
