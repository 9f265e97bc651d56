package action

// CycleLedger tracks amounts already committed per source account within
// one evaluation cycle, so remaining-amount resolution cannot over-commit
// a balance across rules. Scoped to a single cycle and discarded after.
type CycleLedger struct {
	committed map[string]float64
}

// NewCycleLedger creates an empty ledger for one cycle.
func NewCycleLedger() *CycleLedger {
	return &CycleLedger{committed: make(map[string]float64)}
}

// Committed returns the total already committed against an account this
// cycle.
func (l *CycleLedger) Committed(accountID string) float64 {
	return l.committed[accountID]
}

// Commit records an amount as withdrawn from an account this cycle.
func (l *CycleLedger) Commit(accountID string, amount float64) {
	l.committed[accountID] += amount
}
