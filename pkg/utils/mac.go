package utils

import (
	"net"
	"strings"
)

// NormalizeMAC canonicalizes a MAC address string to uppercase colon-hex.
// It returns an error for anything net.ParseMAC cannot handle.
func NormalizeMAC(mac string) (string, error) {
	hwAddr, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hwAddr.String()), nil
}

// NormalizePrefix canonicalizes a MAC prefix for comparison. Prefixes are
// not full addresses, so this only uppercases and trims.
func NormalizePrefix(prefix string) string {
	return strings.ToUpper(strings.TrimSpace(prefix))
}

// IsPrivateMAC checks if a MAC address is a locally administered (private) MAC
func IsPrivateMAC(mac string) bool {
	hwAddr, err := net.ParseMAC(mac)
	if err != nil || len(hwAddr) == 0 {
		return false
	}
	// Check if the locally administered bit (bit 1 of the first octet) is set
	return (hwAddr[0] & 0x02) != 0
}
