package asset

// Well-known issuing accounts on mainnet
const (
	IssuerBitstamp  = "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"
	IssuerGateHub   = "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq"
	IssuerRipple    = "rMxCKbEDwqr76QuheSUMdEGf4B9xJ8m5De"
	IssuerSologenic = "rsoLo2S1kiGeCcn6hCUXVrCpGMWLrRrLZz"
)

// Well-known assets (pre-validated instances)
var (
	USDBitstamp = Asset{Currency: "USD", Issuer: IssuerBitstamp}
	USDGateHub  = Asset{Currency: "USD", Issuer: IssuerGateHub}
	EURGateHub  = Asset{Currency: "EUR", Issuer: IssuerGateHub}
	RLUSD       = Asset{Currency: "RLUSD", Issuer: IssuerRipple}
	SOLO        = Asset{Currency: "SOLO", Issuer: IssuerSologenic}
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("XRP", XRP, "XRP")

	// Stablecoins
	r.Register("RLUSD", RLUSD, "Ripple USD")
	r.Register("USD.bitstamp", USDBitstamp, "Bitstamp USD")
	r.Register("USD.gatehub", USDGateHub, "GateHub USD")
	r.Register("EUR.gatehub", EURGateHub, "GateHub EUR")

	// Tokens
	r.Register("SOLO", SOLO, "Sologenic")

	return r
}
