package engine

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PreferenceConfig holds the matrix factorization hyperparameters.
type PreferenceConfig struct {
	// Factors is the latent dimensionality.
	Factors int
	// Epochs is the number of full SGD passes over the ratings.
	Epochs int
	// LearningRate is the SGD step size.
	LearningRate float64
	// Regularization is the L2 penalty on biases and factors.
	Regularization float64
	// InitStdDev is the standard deviation of the initial factor values.
	InitStdDev float64
	// Seed makes factor initialisation reproducible.
	Seed int64
	// MinRating and MaxRating bound the rating scale. Ratings outside it are
	// skipped during training and predictions are clipped to it.
	MinRating float64
	MaxRating float64
}

// DefaultPreferenceConfig returns the stock hyperparameters: 100 factors,
// 20 epochs, learning rate 0.005, regularisation 0.02 on a 0.5-5 scale.
func DefaultPreferenceConfig() PreferenceConfig {
	return PreferenceConfig{
		Factors:        100,
		Epochs:         20,
		LearningRate:   0.005,
		Regularization: 0.02,
		InitStdDev:     0.1,
		Seed:           42,
		MinRating:      0.5,
		MaxRating:      5.0,
	}
}

// Validate rejects hyperparameters training cannot use.
func (c PreferenceConfig) Validate() error {
	switch {
	case c.Factors <= 0:
		return fmt.Errorf("%w: factors must be positive, got %d", ErrInvalidConfiguration, c.Factors)
	case c.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidConfiguration, c.Epochs)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive, got %v", ErrInvalidConfiguration, c.LearningRate)
	case c.Regularization < 0:
		return fmt.Errorf("%w: regularization must not be negative, got %v", ErrInvalidConfiguration, c.Regularization)
	case c.InitStdDev < 0:
		return fmt.Errorf("%w: init stddev must not be negative, got %v", ErrInvalidConfiguration, c.InitStdDev)
	case c.MinRating >= c.MaxRating:
		return fmt.Errorf("%w: rating scale [%v,%v] is empty", ErrInvalidConfiguration, c.MinRating, c.MaxRating)
	}
	return nil
}

// PreferenceModel is a trained biased matrix factorization model:
//
//	r(u,i) = mu + b_u + b_i + p_u . q_i
//
// It is immutable after TrainPreferenceModel returns.
type PreferenceModel struct {
	globalMean  float64
	userBias    []float64
	itemBias    []float64
	userFactors *mat.Dense
	itemFactors *mat.Dense
	userIndex   map[int64]int
	itemIndex   map[int64]int
	minRating   float64
	maxRating   float64
	trained     int
	skipped     int
}

// TrainPreferenceModel fits the model with stochastic gradient descent,
// visiting ratings in input order each epoch. The context is checked between
// epochs.
func TrainPreferenceModel(ctx context.Context, ratings []Rating, cfg PreferenceConfig) (*PreferenceModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &PreferenceModel{
		userIndex: make(map[int64]int),
		itemIndex: make(map[int64]int),
		minRating: cfg.MinRating,
		maxRating: cfg.MaxRating,
	}

	type sample struct {
		u, i  int
		value float64
	}
	samples := make([]sample, 0, len(ratings))
	var sum float64
	for _, r := range ratings {
		if !(r.Value >= cfg.MinRating && r.Value <= cfg.MaxRating) {
			m.skipped++
			continue
		}
		u, ok := m.userIndex[r.UserID]
		if !ok {
			u = len(m.userIndex)
			m.userIndex[r.UserID] = u
		}
		i, ok := m.itemIndex[r.ItemID]
		if !ok {
			i = len(m.itemIndex)
			m.itemIndex[r.ItemID] = i
		}
		samples = append(samples, sample{u: u, i: i, value: r.Value})
		sum += r.Value
	}
	m.trained = len(samples)

	if len(samples) == 0 {
		// Nothing to learn from: every prediction is the scale midpoint.
		m.globalMean = (cfg.MinRating + cfg.MaxRating) / 2
		return m, nil
	}
	m.globalMean = sum / float64(len(samples))

	numUsers, numItems := len(m.userIndex), len(m.itemIndex)
	m.userBias = make([]float64, numUsers)
	m.itemBias = make([]float64, numItems)

	//nolint:gosec // model initialisation, not security sensitive
	rng := rand.New(rand.NewSource(cfg.Seed))
	m.userFactors = randomFactors(rng, numUsers, cfg.Factors, cfg.InitStdDev)
	m.itemFactors = randomFactors(rng, numItems, cfg.Factors, cfg.InitStdDev)

	lr, reg := cfg.LearningRate, cfg.Regularization
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, s := range samples {
			pu := m.userFactors.RawRowView(s.u)
			qi := m.itemFactors.RawRowView(s.i)

			errUI := s.value - (m.globalMean + m.userBias[s.u] + m.itemBias[s.i] + floats.Dot(pu, qi))

			m.userBias[s.u] += lr * (errUI - reg*m.userBias[s.u])
			m.itemBias[s.i] += lr * (errUI - reg*m.itemBias[s.i])

			for f := range pu {
				puf, qif := pu[f], qi[f]
				pu[f] += lr * (errUI*qif - reg*puf)
				qi[f] += lr * (errUI*puf - reg*qif)
			}
		}
	}

	return m, nil
}

func randomFactors(rng *rand.Rand, rows, cols int, stddev float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for k := range data {
		data[k] = rng.NormFloat64() * stddev
	}
	return mat.NewDense(rows, cols, data)
}

// Predict estimates how userID would rate itemID. A user or item that was not
// seen during training is a cold start and receives the global mean rating.
func (m *PreferenceModel) Predict(userID, itemID int64) float64 {
	u, knownUser := m.userIndex[userID]
	i, knownItem := m.itemIndex[itemID]
	if !knownUser || !knownItem {
		return m.globalMean
	}

	est := m.globalMean + m.userBias[u] + m.itemBias[i] +
		floats.Dot(m.userFactors.RawRowView(u), m.itemFactors.RawRowView(i))
	return m.clip(est)
}

// Knows reports whether both the user and the item were seen during training.
func (m *PreferenceModel) Knows(userID, itemID int64) bool {
	_, knownUser := m.userIndex[userID]
	_, knownItem := m.itemIndex[itemID]
	return knownUser && knownItem
}

// GlobalMean returns the mean training rating used for cold starts.
func (m *PreferenceModel) GlobalMean() float64 {
	return m.globalMean
}

// Users returns the number of distinct users seen in training.
func (m *PreferenceModel) Users() int {
	return len(m.userIndex)
}

// Items returns the number of distinct items seen in training.
func (m *PreferenceModel) Items() int {
	return len(m.itemIndex)
}

// TrainedRatings returns how many ratings were used and how many were skipped
// for falling outside the rating scale.
func (m *PreferenceModel) TrainedRatings() (used, skipped int) {
	return m.trained, m.skipped
}

func (m *PreferenceModel) clip(v float64) float64 {
	if v < m.minRating {
		return m.minRating
	}
	if v > m.maxRating {
		return m.maxRating
	}
	return v
}
