package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}

	return common.IsHexAddress(s)
}

// ShortAddress renders long values as 0x1234...abcd.
func ShortAddress(s string) string {
	if len(s) < 12 {
		return s
	}

	return s[:6] + "..." + s[len(s)-4:]
}

// ContractLabel is the graph label of the contract node.
func ContractLabel(address string) string {
	if address == "" {
		return "JobManager (not set)"
	}

	return "JobManager " + ShortAddress(address)
}
