// Package dice provides the randomness behind steals and scripted rolls: a
// concurrency-safe Source, the check bounds that split a steal roll into
// fail, partial and full bands, and "NdS+M" expressions for Lua hooks.
package dice

import (
	"crypto/rand"
	"math/big"

	"go.uber.org/zap"
)

// Source yields uniform integers. Implementations must be safe for
// concurrent use.
type Source interface {
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
}

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source { return cryptoSource{} }

func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// Roller draws from a Source and logs every check and expression roll at
// debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller returns a Roller over src. A nil logger discards roll logs.
//
// Precondition: src must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Intn exposes the roller's source for weighted choices.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// RollExpr parses and rolls a dice expression.
func (r *Roller) RollExpr(text string) (Result, error) {
	e, err := Parse(text)
	if err != nil {
		return Result{}, err
	}
	res := e.Roll(r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", e.String()),
		zap.Ints("dice", res.Dice),
		zap.Int("modifier", res.Modifier),
		zap.Int("total", res.Total()),
	)
	return res, nil
}
