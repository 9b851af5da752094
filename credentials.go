package locator

import (
	"github.com/jmcvetta/randutil"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/pospos369/ip-location-api/upstream"
)

// Query is one caller request after input validation.
type Query struct {
	// IP is a validated dotted-quad IPv4 address.
	IP string

	// Coor is the coordinate system hint forwarded to Baidu Map.
	Coor string

	// BaiduAK and AmapKey are optional caller-supplied credentials.
	BaiduAK string
	AmapKey string
}

// ResolvedCredentials names the starting candidate for a request and the
// credential it should be invoked with.
type ResolvedCredentials struct {
	// Primary is the first candidate to try. Nil when nothing is usable.
	Primary *Candidate

	// PrimaryCredential is the key to use with Primary.
	PrimaryCredential string

	// CallerSupplied is true when the caller brought their own credential.
	// Only then is the result unsafe to share across callers.
	CallerSupplied bool
}

// Picker selects the starting candidate when the caller supplies no
// credential. It is an interface so tests can pin the choice.
type Picker interface {
	Pick(candidates []*Candidate) *Candidate
}

// WeightedPicker picks proportionally to candidate weights, spreading
// credential-less traffic across upstreams.
type WeightedPicker struct{}

func (WeightedPicker) Pick(candidates []*Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}

	choices := lo.Map(candidates, func(c *Candidate, _ int) randutil.Choice {
		return randutil.Choice{Weight: c.Weight, Item: c}
	})

	choice, err := randutil.WeightedChoice(choices)

	if err != nil {
		log.WithError(err).Warning("Weighted pick failed, using first candidate")
		return candidates[0]
	}

	return choice.Item.(*Candidate)
}

// resolveCredentials decides which candidate leads the fallback chain.
// A caller credential always wins; otherwise the picker chooses among the
// candidates usable with default credentials.
func (l *Locator) resolveCredentials(query Query) ResolvedCredentials {
	if query.BaiduAK != "" {
		return ResolvedCredentials{
			Primary:           l.candidateByName(upstream.NameBaiduMap),
			PrimaryCredential: query.BaiduAK,
			CallerSupplied:    true,
		}
	}

	if query.AmapKey != "" {
		return ResolvedCredentials{
			Primary:           l.candidateByName(upstream.NameAmap),
			PrimaryCredential: query.AmapKey,
			CallerSupplied:    true,
		}
	}

	usable := lo.Filter(l.candidates, func(c *Candidate, _ int) bool {
		return c.usable()
	})

	primary := l.picker.Pick(usable)

	if primary == nil {
		return ResolvedCredentials{}
	}

	return ResolvedCredentials{
		Primary:           primary,
		PrimaryCredential: primary.DefaultCredential,
	}
}
