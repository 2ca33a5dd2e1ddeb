package common

const (
	// LIGHT_CLIENT name to identify the execution-chain light client component
	LIGHT_CLIENT = "lightclient" //nolint:stylecheck
	// CUSTODY name to identify the utxo custody component
	CUSTODY = "custody"
)
