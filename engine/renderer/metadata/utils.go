package metadata

// GetAligned rounds operand up to the next multiple of granularity (a power of two).
func GetAligned(operand, granularity uint64) uint64 {
	if granularity == 0 {
		return operand
	}
	return (operand + (granularity - 1)) &^ (granularity - 1)
}
