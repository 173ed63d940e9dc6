//go:build !linux && !darwin

package clock

func readTicks() uint64 {
	return fallbackTicks()
}
