package deeplink

// Route schemas. Every field listed is required.
var (
	MergeChangeSchema = Schema{
		"dao":     KindAddress,
		"plugin":  KindAddress,
		"signal":  KindAddress,
		"chainId": KindUint,
		"repoUrl": KindText,
		"pr":      KindUint,
		"action":  KindText,
		"target":  KindText,
	}

	JoinSchema = Schema{
		"chainId":  KindUint,
		"faucet":   KindAddress,
		"token":    KindAddress,
		"amount":   KindDecimal,
		"decimals": KindUint,
	}

	ProposeFaucetSchema = Schema{
		"dao":     KindAddress,
		"plugin":  KindAddress,
		"token":   KindAddress,
		"faucet":  KindAddress,
		"chainId": KindUint,
	}
)
