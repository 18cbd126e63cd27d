package system

// Rent is charged per byte and year. Accounts holding DefaultExemptionThreshold
// years of rent are exempt, and the ledger only admits exempt accounts.
const (
	LamportsPerSol = 1_000_000_000

	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2

	// Bytes of account metadata charged on top of the data
	AccountStorageOverhead = 128
)

// RentExemptMinimum is the balance an account with size bytes of data needs
// to be rent exempt
func RentExemptMinimum(size int) uint64 {
	return uint64(AccountStorageOverhead+size) * DefaultLamportsPerByteYear * DefaultExemptionThreshold
}
