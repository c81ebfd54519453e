package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// Token decimals
	USDC_DECIMALS   int32 = 6
	NATIVE_DECIMALS int32 = 18

	// GLOBAL_STATS_ID is the id of the single global stats row
	GLOBAL_STATS_ID = "global"
)
