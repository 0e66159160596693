package storage

import (
	"sync"

	"vaultd/core/types"
	"vaultd/crypto"
	"vaultd/native/stake"
	"vaultd/native/vault"
)

// MemoryState is the directly-addressable, atomically-updated store backing
// both ledger engines. It satisfies vault.EngineState and stake.EngineState.
//
// Every read and write moves a deep copy across the boundary, so an engine
// that abandons an operation mid-flight cannot leak partial mutations into
// stored state through shared big.Int pointers.
type MemoryState struct {
	mu       sync.RWMutex
	ledger   *vault.LedgerState
	users    map[string]*vault.UserAccount
	accounts map[string]*types.Account
	records  map[string]*stake.StakeRecord
	pool     *stake.PoolState
}

// NewMemoryState constructs an empty store.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		users:    make(map[string]*vault.UserAccount),
		accounts: make(map[string]*types.Account),
		records:  make(map[string]*stake.StakeRecord),
	}
}

func key(addr crypto.Address) string {
	return string(addr.Bytes())
}

// --- vault.EngineState ---

func (m *MemoryState) GetLedger() (*vault.LedgerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ledger == nil {
		return &vault.LedgerState{}, nil
	}
	return m.ledger.Clone(), nil
}

func (m *MemoryState) PutLedger(ledger *vault.LedgerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = ledger.Clone()
	return nil
}

func (m *MemoryState) GetUserAccount(addr crypto.Address) (*vault.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.users[key(addr)]; ok {
		return account.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryState) PutUserAccount(account *vault.UserAccount) error {
	if account == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[key(account.Address)] = account.Clone()
	return nil
}

func (m *MemoryState) DeleteUserAccount(addr crypto.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, key(addr))
	return nil
}

// --- shared account balances ---

func (m *MemoryState) GetAccount(addr crypto.Address) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.accounts[key(addr)]; ok {
		return account.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryState) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[key(addr)] = account.Clone()
	return nil
}

// --- stake.EngineState ---

func (m *MemoryState) GetStakeRecord(addr crypto.Address) (*stake.StakeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if record, ok := m.records[key(addr)]; ok {
		return record.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryState) PutStakeRecord(record *stake.StakeRecord) error {
	if record == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key(record.Owner)] = record.Clone()
	return nil
}

func (m *MemoryState) DeleteStakeRecord(addr crypto.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key(addr))
	return nil
}

func (m *MemoryState) GetPool() (*stake.PoolState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pool == nil {
		return &stake.PoolState{}, nil
	}
	return m.pool.Clone(), nil
}

func (m *MemoryState) PutPool(pool *stake.PoolState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = pool.Clone()
	return nil
}
