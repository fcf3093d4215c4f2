package services

// proportionalShares splits amount across contributions by their relative
// weight at full precision. The final share absorbs the float residue so the
// shares always sum to exactly amount.
func proportionalShares(contributions []float64, amount float64) []float64 {
	shares := make([]float64, len(contributions))
	if len(contributions) == 0 || amount == 0 {
		return shares
	}
	total := 0.0
	for _, c := range contributions {
		total += c
	}
	if total <= 0 {
		return shares
	}
	allocated := 0.0
	for i, c := range contributions {
		if i == len(contributions)-1 {
			shares[i] = amount - allocated
			break
		}
		shares[i] = c / total * amount
		allocated += shares[i]
	}
	return shares
}

func cloneStringPointer(v *string) *string {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneFloatPointer(v *float64) *float64 {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneIntPointer(v *int) *int {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
