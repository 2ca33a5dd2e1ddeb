package config

// DefaultVars are the values referenced from DefaultValues as {{Var}}. They
// depend on the deployment and are usually overridden
const DefaultVars = `
# PathRWData is the folder holding the databases
PathRWData = "/tmp/pegcore"
# NetworkName is the bitcoin network: mainnet, testnet3, regtest, signet or simnet
NetworkName = "mainnet"
# CustodyKeyPath is the file holding the WIF encoded custody private key
CustodyKeyPath = "/app/custody.wif"
# FeeRateSatsPerByte is the default fee rate of the redemptions
FeeRateSatsPerByte = 20
`

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Common]
NetworkName = "{{NetworkName}}"

[Custody]
DBPath = "{{PathRWData}}/custody.sqlite"
DustAmount = 0
DustRelayFee = 3
FeeRateSatsPerByte = {{FeeRateSatsPerByte}}
SafeAddress = "136CTERaocm8dLbEtzCaFtJJX9jfFhnChK"
DestinationSafeAddress = "0x71A440EE9Fa7F99FB9a697e96eC7839B8A1643B8"
PrivateKeyPath = "{{CustodyKeyPath}}"

[LightClient]
DBPath = "{{PathRWData}}/lightclient.sqlite"
MaxStoredStates = 10
`
