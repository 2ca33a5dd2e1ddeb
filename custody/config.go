package custody

// Config is the configuration of the utxo custody engine
type Config struct {
	// DBPath is the path of the sqlite database holding the utxo set
	DBPath string `mapstructure:"DBPath"`
	// DustAmount is the minimum value, in satoshis, of a custodied output.
	// If 0 it is derived from DustRelayFee
	DustAmount uint64 `mapstructure:"DustAmount"`
	// DustRelayFee is the relay fee, in satoshis per byte, used to derive the dust amount
	DustRelayFee uint64 `mapstructure:"DustRelayFee"`
	// FeeRateSatsPerByte is the fee rate used for spends that don't set one
	FeeRateSatsPerByte uint64 `mapstructure:"FeeRateSatsPerByte"`
	// SafeAddress receives the redemptions whose recipient address is not valid
	SafeAddress string `mapstructure:"SafeAddress"`
	// DestinationSafeAddress receives the deposits whose destination address is not valid
	DestinationSafeAddress string `mapstructure:"DestinationSafeAddress"`
	// PrivateKeyPath is the file holding the WIF encoded custody key
	PrivateKeyPath string `mapstructure:"PrivateKeyPath"`
}

// GetDustAmount returns the configured dust amount, or the one derived from the relay fee
func (c Config) GetDustAmount() uint64 {
	if c.DustAmount > 0 {
		return c.DustAmount
	}
	relayFee := c.DustRelayFee
	if relayFee == 0 {
		relayFee = DefaultDustRelayFee
	}
	return DustAmountFromRelayFee(relayFee)
}
