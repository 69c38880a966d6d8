package predeploys

import "github.com/ethereum/go-ethereum/common"

const (
	L2StandardBridge             = "0x4200000000000000000000000000000000000010"
	OptimismMintableERC20Factory = "0x4200000000000000000000000000000000000012"
)

var (
	L2StandardBridgeAddr             = common.HexToAddress(L2StandardBridge)
	OptimismMintableERC20FactoryAddr = common.HexToAddress(OptimismMintableERC20Factory)
)
