package vars

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRandomIntMax = 999
	randomStringLength  = 8
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type generator func(args []string) string

// Generators are dispatched by lower-cased name, so {{$UUID}} and {{$uuid}}
// hit the same entry. Every occurrence produces an independent value; nothing
// here is memoized.
var dynamicGenerators = map[string]generator{
	"timestamp": func([]string) string {
		return strconv.FormatInt(time.Now().Unix(), 10)
	},
	"isotimestamp": func([]string) string {
		return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	},
	"uuid": func([]string) string {
		return uuid.NewString()
	},
	"randomint": randomInt,
	"randomstring": func([]string) string {
		out := make([]byte, randomStringLength)
		for i := range out {
			out[i] = alphanumeric[randomBelow(int64(len(alphanumeric)))]
		}
		return string(out)
	},
}

// ResolveDynamic evaluates a $-prefixed generator call. Unknown names report
// false so the caller can leave the token verbatim.
func ResolveDynamic(name string, args []string) (string, bool) {
	gen, ok := dynamicGenerators[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return gen(args), true
}

// randomInt yields an integer in [0,999] by default, or in [min,max]
// inclusive when both bounds are given and parse. Malformed or inverted
// bounds fall back to the default range rather than failing.
func randomInt(args []string) string {
	lo, hi := int64(0), int64(defaultRandomIntMax)
	if len(args) >= 2 {
		min, errMin := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
		max, errMax := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
		if errMin == nil && errMax == nil && min <= max {
			lo, hi = min, max
		}
	}

	// hi-lo+1 can exceed int64 for extreme bounds, so the draw stays in big.Int
	span := new(big.Int).Sub(big.NewInt(hi), big.NewInt(lo))
	span.Add(span, big.NewInt(1))
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		panic(err)
	}
	v.Add(v, big.NewInt(lo))
	return v.String()
}

func randomBelow(n int64) int64 {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		panic(err)
	}
	return v.Int64()
}
