package loyalty

import (
	"github.com/angelmondragon/aether-storefront/internal/coupons"
	"github.com/shopspring/decimal"
)

// PointsPerUnit is the number of points earned per currency unit spent.
const PointsPerUnit = 10

// Reward is an item in the points trading shop; redeeming it grants coupon Code.
type Reward struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Cost int64  `json:"cost"`
}

var rewards = []Reward{
	{ID: "coupon-10", Name: "10% OFF Coupon", Code: "AETHER10", Cost: 500},
	{ID: "coupon-20", Name: "20% OFF Coupon", Code: "AETHER20", Cost: 1000},
	{ID: "coupon-freeship", Name: "Free Shipping", Code: "FREESHIP_PRO", Cost: 300},
	{ID: "coupon-50", Name: "50% OFF Coupon", Code: "AETHER50", Cost: 2500},
}

// Rewards returns the trading shop in display order.
func Rewards() []Reward {
	out := make([]Reward, len(rewards))
	copy(out, rewards)
	return out
}

func RewardByID(id string) (Reward, bool) {
	for _, r := range rewards {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}

// Coupon is the definition granted on redemption, described by the reward name.
func (r Reward) Coupon() (coupons.Definition, bool) {
	def, ok := coupons.Lookup(r.Code)
	if !ok {
		return coupons.Definition{}, false
	}
	def.Description = r.Name
	return def, true
}

// PointsFor converts an order total to points: floor(round2(total) * 10).
func PointsFor(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.Round(2).Mul(decimal.NewFromInt(PointsPerUnit)).Floor().IntPart()
}
