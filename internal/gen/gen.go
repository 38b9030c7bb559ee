// Package gen produces synthetic transactions for development seeding and
// tests. The patterns mirror real laundering typologies loosely: large
// transfers in high-risk formats, and structuring runs kept just under the
// 10k reporting threshold.
package gen

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

const reportingThreshold = 10000

var (
	currencies    = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD"}
	normalFormats = []string{"WIRE", "ACH", "CHECK"}
	riskyFormats  = []string{"CRYPTO", "CASH", "WIRE"}
)

// Generator produces synthetic transactions. Not safe for concurrent use.
type Generator struct {
	rng      *rand.Rand
	banks    []string
	accounts []string
}

// New creates a generator seeded for reproducibility.
func New(seed uint64) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(seed, seed>>1)),
	}
	for i := 0; i < 20; i++ {
		g.banks = append(g.banks, fmt.Sprintf("Bank_%c", 'A'+i))
	}
	for i := 0; i < 1000; i++ {
		g.accounts = append(g.accounts, fmt.Sprintf("ACC%08d", 10000000+i))
	}
	return g
}

// Clean returns an unremarkable transaction in a normal payment format.
func (g *Generator) Clean() *triage.Transaction {
	return &triage.Transaction{
		OriginBank:    g.pick(g.banks),
		OriginAccount: g.pick(g.accounts),
		DestBank:      g.pick(g.banks),
		DestAccount:   g.pick(g.accounts),
		Amount:        round2(100 + g.rng.Float64()*9900),
		Currency:      g.pick(currencies),
		Format:        g.pick(normalFormats),
		CreatedAt:     time.Now().UTC(),
	}
}

// Suspicious returns a large transfer in a high-risk payment format.
func (g *Generator) Suspicious() *triage.Transaction {
	return &triage.Transaction{
		OriginBank:    g.pick(g.banks),
		OriginAccount: g.pick(g.accounts),
		DestBank:      g.pick(g.banks),
		DestAccount:   g.pick(g.accounts),
		Amount:        round2(50000 + g.rng.Float64()*450000),
		Currency:      g.pick(currencies),
		Format:        g.pick(riskyFormats),
		CreatedAt:     time.Now().UTC(),
	}
}

// Structured returns n transactions from one account, each just under the
// reporting threshold. The classic smurfing pattern the history context is
// meant to surface.
func (g *Generator) Structured(account string, n int) []*triage.Transaction {
	if account == "" {
		account = g.pick(g.accounts)
	}
	out := make([]*triage.Transaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &triage.Transaction{
			OriginBank:    g.pick(g.banks),
			OriginAccount: account,
			DestBank:      g.pick(g.banks),
			DestAccount:   g.pick(g.accounts),
			Amount:        round2(reportingThreshold - 500 - g.rng.Float64()*1000),
			Currency:      "USD",
			Format:        "WIRE",
			CreatedAt:     time.Now().UTC(),
		})
	}
	return out
}

// Batch returns n transactions with roughly the given laundering probability.
func (g *Generator) Batch(n int, launderingProbability float64) []*triage.Transaction {
	out := make([]*triage.Transaction, 0, n)
	for i := 0; i < n; i++ {
		if g.rng.Float64() < launderingProbability {
			out = append(out, g.Suspicious())
		} else {
			out = append(out, g.Clean())
		}
	}
	return out
}

func (g *Generator) pick(s []string) string {
	return s[g.rng.IntN(len(s))]
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
