package factory

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABIJSON is the interface of the on-chain OptimismMintableERC20Factory.
const ABIJSON = `[
	{"type":"constructor","inputs":[{"name":"_bridge","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"BRIDGE","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"bridge","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"version","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"type":"function","name":"createOptimismMintableERC20","inputs":[{"name":"_remoteToken","type":"address"},{"name":"_name","type":"string"},{"name":"_symbol","type":"string"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"createStandardL2Token","inputs":[{"name":"_remoteToken","type":"address"},{"name":"_name","type":"string"},{"name":"_symbol","type":"string"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"event","name":"StandardL2TokenCreated","inputs":[{"name":"remoteToken","type":"address","indexed":true},{"name":"localToken","type":"address","indexed":true}],"anonymous":false},
	{"type":"event","name":"OptimismMintableERC20Created","inputs":[{"name":"localToken","type":"address","indexed":true},{"name":"remoteToken","type":"address","indexed":true},{"name":"deployer","type":"address","indexed":false}],"anonymous":false}
]`

const (
	MethodCreateOptimismMintableERC20 = "createOptimismMintableERC20"
	MethodCreateStandardL2Token       = "createStandardL2Token"
	MethodBridge                      = "bridge"
	MethodBRIDGE                      = "BRIDGE"
	MethodVersion                     = "version"

	EventStandardL2TokenCreated       = "StandardL2TokenCreated"
	EventOptimismMintableERC20Created = "OptimismMintableERC20Created"
)

var factoryABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ABI returns the parsed factory ABI.
func ABI() abi.ABI {
	return factoryABI
}
