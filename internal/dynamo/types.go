package dynamo

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
)

// FieldKind enumerates the supported fields of definition.
type FieldKind int

const (
	KindRational FieldKind = iota
	KindFinite
	KindGeneric
)

// Field is the field a map is defined over.
type Field struct {
	Kind FieldKind
	// Char is the characteristic for KindFinite.
	Char int64
	// Name labels a KindGeneric field.
	Name string
}

func Rational() Field { return Field{Kind: KindRational} }

func Finite(p int64) Field { return Field{Kind: KindFinite, Char: p} }

func Generic(name string) Field { return Field{Kind: KindGeneric, Name: name} }

func (f Field) String() string {
	switch f.Kind {
	case KindRational:
		return "QQ"
	case KindFinite:
		return fmt.Sprintf("GF(%d)", f.Char)
	default:
		if f.Name == "" {
			return "generic"
		}
		return f.Name
	}
}

// ParseField accepts "QQ", "Q", "GF(p)", "F_p" or any other name for a generic field.
func ParseField(s string) (Field, error) {
	switch s {
	case "", "QQ", "Q", "rational":
		return Rational(), nil
	}
	var p int64
	if _, err := fmt.Sscanf(s, "GF(%d)", &p); err == nil {
		return finiteField(p)
	}
	if _, err := fmt.Sscanf(s, "F_%d", &p); err == nil {
		return finiteField(p)
	}
	return Generic(s), nil
}

func finiteField(p int64) (Field, error) {
	if p < 2 || p >= 1<<31 {
		return Field{}, fmt.Errorf("%w: characteristic %d", ErrParameterBounds, p)
	}
	return Finite(p), nil
}

// Place is an absolute value on Q: Prime == 0 is the archimedean place,
// otherwise the p-adic one. Index selects an embedding for fields with
// several infinite places; Q has only Index 0.
type Place struct {
	Prime int64
	Index int
}

func Archimedean() Place { return Place{} }

func PrimePlace(p int64) Place { return Place{Prime: p} }

func (p Place) IsArchimedean() bool { return p.Prime == 0 }

func (p Place) String() string {
	if p.IsArchimedean() {
		return "inf"
	}
	return fmt.Sprintf("p=%d", p.Prime)
}

// PrimeBound is an inclusive range of primes.
type PrimeBound struct {
	Low  int
	High int
}

// Config carries the options recognised by the sieve, height and
// lifting engines.
type Config struct {
	PrimeBound   PrimeBound
	LiftingPrime int64
	// ErrorBound > 0 selects error-bounded iteration; it excludes Iterations.
	ErrorBound float64
	Iterations int
	// BadPrimes overrides the computed primes of bad reduction when non-nil.
	BadPrimes []int64
	// Periods overrides the sieved possible periods when non-nil.
	Periods   []int
	Workers   int
	Precision uint
	Logger    *log.Logger
}

func DefaultConfig() Config {
	return Config{
		PrimeBound:   PrimeBound{Low: 1, High: 20},
		LiftingPrime: 23,
		Precision:    100,
	}
}

// Validate checks option consistency.
func (c Config) Validate() error {
	if c.ErrorBound < 0 || c.Iterations < 0 {
		return fmt.Errorf("%w: negative error bound or iteration count", ErrParameterBounds)
	}
	if c.ErrorBound > 0 && c.Iterations > 0 {
		return ErrConflictingOptions
	}
	if c.PrimeBound.Low > c.PrimeBound.High {
		return fmt.Errorf("%w: prime bound [%d, %d]", ErrParameterBounds, c.PrimeBound.Low, c.PrimeBound.High)
	}
	return nil
}

// WorkerCount resolves Workers, defaulting to the CPU count.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Log returns the configured logger or a quiet default.
func (c Config) Log() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger
}

var defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "arithdyn",
	Level:  log.WarnLevel,
})

// IsBadPrime reports whether p is listed in primes.
func IsBadPrime(primes []int64, p int64) bool {
	for _, q := range primes {
		if q == p {
			return true
		}
	}
	return false
}
