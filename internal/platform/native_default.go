//go:build !linux
// +build !linux

package platform

// Default returns the fastest provider for the running OS, which is Portable
// everywhere but linux
func Default() Provider {
	return &Portable{}
}
