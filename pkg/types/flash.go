package types

// FlashEntry asks for a file to be written to a named partition
type FlashEntry struct {
	Partition string
	Source    string
}

// ResolvedWrite is a FlashEntry whose partition has been located
type ResolvedWrite struct {
	Partition string
	Offset    uint32
	Source    string
}

// FlashPlan is the ordered result of resolving a set of FlashEntry values.
// Skipped holds the names that were dropped because the layout does not
// know them.
type FlashPlan struct {
	Writes  []ResolvedWrite
	Skipped []string
}

// Empty reports whether nothing is left to write
func (p FlashPlan) Empty() bool {
	return len(p.Writes) == 0
}
