package billing

// All money in this package is integer minor units (cents). An appointment's
// rate is fixed by its lifetime fee (booked + hold) and the paid duration;
// both reconciliation branches convert through the same two helpers so the
// boundary between them is governed by a single rule.

// feeForSeconds converts session seconds into minor units at the
// appointment's rate.
func feeForSeconds(seconds, totalFee, durationSecs int64) int64 {
	return seconds * totalFee / durationSecs
}

// secondsForFee converts minor units into session seconds at the same rate.
func secondsForFee(fee, totalFee, durationSecs int64) int64 {
	return fee * durationSecs / totalFee
}
