package scorestore

// Checksum reproduces the original BTChecksum algorithm: it splits the score
// at the 100,000 boundary, sums the upper part in three-digit groups and the
// lower part in two-digit groups, adds the
// ASCII value of every name byte, then divides by the low digit of that sum
// (falling back to 1 when that digit is zero). It exists purely to detect
// local score-file tampering or corruption, not for security.
func Checksum(name string, score uint64) int {
	checksum := 0

	upper := int(score / 100000)
	lower := int(score - uint64(upper)*100000)

	for upper != 0 {
		checksum += upper % 1000
		upper /= 1000
	}
	for lower != 0 {
		checksum += lower % 100
		lower /= 100
	}
	for i := 0; i < len(name); i++ {
		checksum += int(name[i])
	}

	divisor := checksum % 10
	if divisor == 0 {
		divisor = 1
	}
	return checksum / divisor
}
