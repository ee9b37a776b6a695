package points

// BalanceResponse reports a user's points and their redemption value.
type BalanceResponse struct {
	Points      int `json:"points"`
	PointsValue int `json:"points_value"`
}

// RedeemResponse reports the outcome of a redemption.
type RedeemResponse struct {
	PointsRedeemed  int `json:"points_redeemed"`
	ValueRedeemed   int `json:"value_redeemed"`
	RemainingPoints int `json:"remaining_points"`
}
