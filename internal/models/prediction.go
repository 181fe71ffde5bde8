package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prediction represents a model prediction snapshot for a game, with the edge
// figures computed against the market price at prediction time attached.
type Prediction struct {
	ID            uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	ModelVersion  string          `db:"model_version" json:"model_version" validate:"required"`
	GameID        uuid.UUID       `db:"game_id" json:"game_id" validate:"required,uuid4"`
	Probability   float64         `db:"probability" json:"probability" validate:"required,gt=0,lt=1"`
	MarketOdds    int             `db:"market_odds" json:"market_odds"`
	Edge          float64         `db:"edge" json:"edge"`
	ExpectedValue float64         `db:"expected_value" json:"expected_value"`
	KellyStake    float64         `db:"kelly_stake" json:"kelly_stake" validate:"gte=0"`
	Features      json.RawMessage `db:"features" json:"features"`
	PredictedAt   time.Time       `db:"predicted_at" json:"predicted_at" validate:"required"`
}

// PredictionView is the wire representation of a prediction snapshot.
// Fixed-precision figures serialize as decimal strings so probabilities and
// stakes survive the wire without floating-point drift.
type PredictionView struct {
	ID            uuid.UUID       `json:"id"`
	ModelVersion  string          `json:"model_version"`
	GameID        uuid.UUID       `json:"game_id"`
	Probability   decimal.Decimal `json:"probability"`
	MarketOdds    int             `json:"market_odds"`
	Edge          decimal.Decimal `json:"edge"`
	ExpectedValue decimal.Decimal `json:"expected_value"`
	KellyStake    decimal.Decimal `json:"kelly_stake"`
	Features      json.RawMessage `json:"features,omitempty"`
	PredictedAt   time.Time       `json:"predicted_at"`
}

// View converts the snapshot to its wire representation, rounding the derived
// figures to six decimal places.
func (p *Prediction) View() PredictionView {
	return PredictionView{
		ID:            p.ID,
		ModelVersion:  p.ModelVersion,
		GameID:        p.GameID,
		Probability:   decimal.NewFromFloat(p.Probability).Round(6),
		MarketOdds:    p.MarketOdds,
		Edge:          decimal.NewFromFloat(p.Edge).Round(6),
		ExpectedValue: decimal.NewFromFloat(p.ExpectedValue).Round(6),
		KellyStake:    decimal.NewFromFloat(p.KellyStake).Round(6),
		Features:      p.Features,
		PredictedAt:   p.PredictedAt,
	}
}

// GetFeature retrieves a feature value from the Features JSON
func (p *Prediction) GetFeature(name string) (interface{}, error) {
	if p.Features == nil {
		return nil, nil
	}

	var features map[string]interface{}
	if err := json.Unmarshal(p.Features, &features); err != nil {
		return nil, err
	}

	return features[name], nil
}
