package payment

// Convert translates a display-currency amount (KES cents) into settlement
// units (USDC cents) using a fixed-point rate in hundredths of KES per USDC.
// Pure integer arithmetic: the same amount and rate always produce the same
// result. Truncates toward zero; the backend never receives a rounded-up
// debit.
func Convert(displayCents, rateHundredths int64) int64 {
	if rateHundredths <= 0 {
		return 0
	}
	return displayCents * 100 / rateHundredths
}
