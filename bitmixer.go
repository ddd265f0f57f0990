package bisim

// PHI_C64 is the 64-bit golden ratio bit mixer.
const PHI_C64 = uint64(0x9e3779b97f4a7c15)

// mixPhi spreads a 64-bit key over all bits; used for open addressing.
func mixPhi(k uint64) uint64 {
	h := k * PHI_C64
	return h ^ (h >> 32)
}
