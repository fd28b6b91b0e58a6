package domain

const (
	StatusVanilla = "vanilla"
	StatusMEV     = "mev"
)

type BlockReward struct {
	Status string  `json:"status"`
	Reward float64 `json:"reward_gwei"`
}

type SyncDuties struct {
	Validators []string `json:"validators"`
}
